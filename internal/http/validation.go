package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/example/exterminus/internal/application"
)

const maxBodyBytes = 1 << 20

// requestValidator checks request DTO shape before the services apply the
// scheduling rules. Messages are rendered in English with JSON field names.
type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func newRequestValidator() (*requestValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("register validation translations: %w", err)
	}
	return &requestValidator{validate: validate, translator: trans}, nil
}

// check validates v and converts failures into an application validation
// error keyed by JSON field name.
func (rv *requestValidator) check(v any) error {
	err := rv.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		msg := fe.Translate(rv.translator)
		if vErr.Message == "" {
			vErr.Message = msg
		}
		vErr.FieldErrors[fe.Field()] = msg
	}
	return vErr
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// flexibleText accepts a field sent as either a JSON string or number, such
// as an identifier or a price.
type flexibleText string

// UnmarshalJSON implements json.Unmarshaler.
func (f *flexibleText) UnmarshalJSON(data []byte) error {
	var number json.Number
	if err := json.Unmarshal(data, &number); err == nil {
		*f = flexibleText(number.String())
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("value must be a string or number: %w", err)
	}
	*f = flexibleText(text)
	return nil
}
