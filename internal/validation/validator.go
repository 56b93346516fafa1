// Package validation binds JSON request bodies and turns validator/v10
// failures into field-level messages.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fe[f], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

// Error is returned by BindJSON. Status is 400 for an unreadable body and
// 422 for a well-formed body that fails validation.
type Error struct {
	Status int
	Fields FieldErrors
}

func (e *Error) Error() string {
	return e.Fields.Error()
}

var setupOnce sync.Once

// setup makes gin's validator report JSON field names.
func setup() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonTagName)
	})
}

func jsonTagName(fld reflect.StructField) string {
	name := fld.Tag.Get("json")
	if name == "" {
		return fld.Name
	}
	// Remove options like omitempty, -
	if idx := strings.IndexByte(name, ','); idx >= 0 {
		name = name[:idx]
	}
	if name == "-" {
		return fld.Name
	}
	return name
}

// BindJSON decodes the request body into dst and validates its binding tags.
func BindJSON(c *gin.Context, dst any) error {
	setup()

	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := FieldErrors{}
		for _, e := range validationErrs {
			fields.Add(e.Field(), friendlyMessage(e))
		}
		return &Error{Status: http.StatusUnprocessableEntity, Fields: fields}
	}

	return &Error{Status: http.StatusBadRequest, Fields: FieldErrors{"body": {decodeMessage(err)}}}
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.Is(err, io.EOF):
		return "request body is empty"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("field %q must be of type %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &syntaxErr):
		return "request body is not valid JSON"
	default:
		return "request body could not be decoded"
	}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "dive":
		return "contains an invalid item"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
}
