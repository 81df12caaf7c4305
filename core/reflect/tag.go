package reflect

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTagTargetMustBePointer = errors.New("target must be a pointer")
	ErrTagTargetMustNotBeNil  = errors.New("target must not be nil")
	ErrTagUnsupportedType     = errors.New("unsupported type")
)

var durationType = reflect.TypeOf(time.Duration(0))

// TagOption configuration options
type TagOption struct {
	tag string // tag name for default values
}

// WithTag sets the tag name
func WithTag(tag string) func(*TagOption) {
	return func(c *TagOption) {
		c.tag = tag
	}
}

func validateTarget(target any) (reflect.Value, error) {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr {
		return reflect.Value{}, ErrTagTargetMustBePointer
	}
	if v.IsNil() {
		return reflect.Value{}, ErrTagTargetMustNotBeNil
	}
	return v.Elem(), nil
}

// SetDefaultTag fills zero-valued struct fields from their `default` tag.
// Nested structs are always visited; fields that are already set are left alone.
func SetDefaultTag(target any, opts ...func(*TagOption)) error {
	v, err := validateTarget(target)
	if err != nil {
		return err
	}
	if v.Kind() != reflect.Struct {
		return ErrTagUnsupportedType
	}

	option := &TagOption{tag: "default"}
	for _, opt := range opts {
		opt(option)
	}

	return setStructDefaults(v, option.tag)
}

func setStructDefaults(v reflect.Value, tagName string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		tagValue := field.Tag.Get(tagName)

		if fv.Kind() == reflect.Struct {
			if err := setStructDefaults(fv, tagName); err != nil {
				return err
			}
			continue
		}
		if tagValue == "" || !fv.IsZero() {
			continue
		}
		if err := setValue(fv, tagValue); err != nil {
			return err
		}
	}
	return nil
}

func setValue(value reflect.Value, str string) error {
	if value.Type() == durationType {
		d, err := time.ParseDuration(str)
		if err != nil {
			return err
		}
		value.SetInt(int64(d))
		return nil
	}

	switch value.Kind() {
	case reflect.String:
		value.SetString(str)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		parsed, err := strconv.ParseInt(str, 10, 64)
		if err != nil {
			return err
		}
		value.SetInt(parsed)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		parsed, err := strconv.ParseUint(str, 10, 64)
		if err != nil {
			return err
		}
		value.SetUint(parsed)
	case reflect.Float32, reflect.Float64:
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		value.SetFloat(parsed)
	case reflect.Bool:
		parsed, err := strconv.ParseBool(str)
		if err != nil {
			return err
		}
		value.SetBool(parsed)
	case reflect.Slice:
		parts := strings.Split(str, ",")
		slice := reflect.MakeSlice(value.Type(), len(parts), len(parts))
		for i, part := range parts {
			if err := setValue(slice.Index(i), strings.TrimSpace(part)); err != nil {
				return err
			}
		}
		value.Set(slice)
	default:
		return ErrTagUnsupportedType
	}
	return nil
}
