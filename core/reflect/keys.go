package reflect

import (
	"reflect"
	"strings"
)

// Keys returns the dotted key path of every leaf field of the struct pointed
// to by target, named after the given tag (falling back to the lower-cased
// field name). Fields tagged "-" are skipped.
func Keys(target any, tag string) ([]string, error) {
	v, err := validateTarget(target)
	if err != nil {
		return nil, err
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrTagUnsupportedType
	}

	var keys []string
	collectKeys(v.Type(), "", tag, &keys)
	return keys, nil
}

func collectKeys(t reflect.Type, prefix, tag string, keys *[]string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(field.Name)
		}
		if prefix != "" {
			name = prefix + "." + name
		}

		if field.Type.Kind() == reflect.Struct && field.Type != durationType {
			collectKeys(field.Type, name, tag, keys)
			continue
		}
		*keys = append(*keys, name)
	}
}
