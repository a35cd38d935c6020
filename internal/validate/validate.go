// Package validate checks request bodies and import documents with
// go-playground/validator and renders failures as per-field messages.
package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	// custom validation tags & texts
	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"
	marksTag     = "marks"
	marksText    = "{0} may only contain A, B, C, D, E or N"
	answersTag   = "answers"
	answersText  = "{0} may only contain A, B, C, D, E or -"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(marksTag, alphabetValidation("ABCDEN"))
	_ = validate.RegisterValidation(answersTag, alphabetValidation("ABCDE-"))
	registerCustomTranslation(notBlankTag, notBlankText)
	registerCustomTranslation(marksTag, marksText)
	registerCustomTranslation(answersTag, answersText)
}

func registerCustomTranslation(tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Struct validates s. Failures are returned as validator.ValidationErrors.
func Struct(s any) error {
	return validate.Struct(s)
}

// Fields renders validation failures as field name -> message. It returns nil
// when err holds no validation errors.
func Fields(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = fe.Translate(translator)
	}
	return fields
}

// fieldPath drops the top-level struct name from the namespace so nested
// errors read as "classes[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

// alphabetValidation accepts strings made only of the letters in alphabet,
// case-insensitively.
func alphabetValidation(alphabet string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return false
		}
		for _, r := range strings.ToUpper(str) {
			if !strings.ContainsRune(alphabet, r) {
				return false
			}
		}
		return true
	}
}
