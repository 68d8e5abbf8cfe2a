package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/student-ally/ally-core/internal/auth"
)

var validate = newValidator()

// newValidator reports field names by their JSON key and knows the
// adminrole tag.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	//nolint:errcheck // registration only fails on an empty tag
	v.RegisterValidation("adminrole", func(fl validator.FieldLevel) bool {
		return auth.IsAdminRole(auth.Role(fl.Field().String()))
	})
	return v
}

// messages maps "field.tag" or "field" to a client message. The more
// specific key wins.
type messages map[string]string

func (m messages) lookup(fe validator.FieldError) string {
	if msg, ok := m[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	if msg, ok := m[fe.Field()]; ok {
		return msg
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// redactedFields never echo their value back in a validation error.
var redactedFields = map[string]bool{"password": true}

// fieldErrors validates v and returns one FieldError per failing field,
// in struct order. A nil slice means v is valid.
func fieldErrors(v any, msgs messages) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Type: "field", Msg: err.Error(), Location: "body"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		e := FieldError{
			Type:     "field",
			Msg:      msgs.lookup(fe),
			Path:     fe.Field(),
			Location: "body",
		}
		if !redactedFields[fe.Field()] {
			e.Value = fe.Value()
		}
		out = append(out, e)
	}
	return out
}

// firstError validates v for the resource handlers, which answer with a
// single {"error"} message: required when any required field is missing,
// otherwise the message for the first failing field.
func firstError(v any, required string, msgs messages) (string, bool) {
	errs := validate.Struct(v)
	if errs == nil {
		return "", true
	}

	var verrs validator.ValidationErrors
	if !errors.As(errs, &verrs) {
		return required, false
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return required, false
		}
	}
	return msgs.lookup(verrs[0]), false
}

// decodeJSON reads the request body into dst. An empty body leaves dst at
// its zero value so validation reports the missing fields.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
