package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTrans "github.com/go-playground/validator/v10/translations/en"

	kerrors "github.com/kochabonline/liveserver/errors"
	"github.com/kochabonline/liveserver/log"
)

var (
	Validate *validator.Validate
	TransEn  ut.Translator
)

func init() {
	initValidator()
}

// initValidator initializes the validator and translator.
func initValidator() {
	Validate = validator.New()

	enTranslator := en.New()
	uni := ut.New(enTranslator, enTranslator)
	TransEn, _ = uni.GetTranslator("en")

	if err := enTrans.RegisterDefaultTranslations(Validate, TransEn); err != nil {
		log.Errorf("validator registration translator error: %v", err)
	}

	// Report field names the way they appear in configuration files.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		}
		if name == "-" {
			name = ""
		}
		return name
	})
}

// RegisterValidation registers a custom validation tag together with an
// English message of the form "<field> <message>".
func RegisterValidation(tag string, fn validator.Func, message string) error {
	if err := Validate.RegisterValidation(tag, fn); err != nil {
		return err
	}
	return Validate.RegisterTranslation(tag, TransEn,
		func(ut ut.Translator) error {
			return ut.Add(tag, "{0} "+message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}

// Struct validates target and returns a BadRequest error carrying the
// translated messages.
func Struct(target any) error {
	err := Validate.Struct(target)
	if err == nil {
		return nil
	}

	var invalidValidationError *validator.InvalidValidationError
	if errors.As(err, &invalidValidationError) {
		return err
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	sb := strings.Builder{}
	for _, e := range validationErrors {
		if sb.Len() > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Translate(TransEn))
	}
	return kerrors.BadRequest("%s", sb.String()).WithCause(err)
}
