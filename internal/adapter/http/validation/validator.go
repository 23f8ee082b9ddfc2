package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"todolist/internal/core/domain"
)

var (
	Validator  *validator.Validate
	Translator ut.Translator
)

func init() {
	Validator = validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	uni := ut.New(english, english)

	var found bool
	Translator, found = uni.GetTranslator("en")

	if !found {
		panic("translator en not found")
	}

	if err := en_translations.RegisterDefaultTranslations(Validator, Translator); err != nil {
		panic(err)
	}

	if err := Validator.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}

	addCustomTranslations()
}

func addCustomTranslations() {
	for _, tag := range []string{"required", "notblank"} {
		Validator.RegisterTranslation(tag, Translator, func(ut ut.Translator) error {
			return ut.Add(tag, "Missing {0}", true)
		}, func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(fe.Tag(), getFieldName(fe.Field()))
			return t
		})
	}
}

func getFieldName(field string) string {
	fieldNames := map[string]string{
		"Name":     "name",
		"Email":    "email",
		"Password": "password",
		"Title":    "task title",
		"DueDate":  "due date",
		"UserID":   "user ID",
	}

	if name, exists := fieldNames[field]; exists {
		return name
	}

	return strings.ToLower(field)
}

// Validate checks v against its validate tags and reports the first failing
// field as a validation error.
func Validate(v any) error {
	err := Validator.Struct(v)

	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors

	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		return domain.NewValidationError("%s", validationErrors[0].Translate(Translator))
	}

	return err
}
