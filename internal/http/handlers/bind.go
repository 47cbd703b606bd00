package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const msgInvalidBody = "Invalid request body."

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("maxbytes", maxBytes)
	}
}

// maxBytes is max for byte length; validator's max counts runes.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len(fl.Field().String()) <= limit
}

type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message,omitempty"`
}

// BindJSON decodes and validates the body into out. On failure it writes the
// envelope with failStatus, since every users endpoint has one fixed failure code.
func BindJSON(ctx *gin.Context, out interface{}, failStatus int) bool {
	err := ctx.ShouldBindJSON(out)

	if err != nil {
		RespondValidation(ctx, failStatus, parseBindError(err, out))

		return false
	}

	return true
}

func parseBindError(err error, out interface{}) []FieldError {
	rootType := baseStructType(out)

	// validator errors (struct bind tags)

	var validatorError validator.ValidationErrors

	if errors.As(err, &validatorError) {
		fields := make([]FieldError, 0, len(validatorError))

		for _, fieldError := range validatorError {
			rule := fieldError.Tag()
			param := fieldError.Param()

			fields = append(fields, FieldError{
				Field:   jsonFieldName(rootType, fieldError.StructField()),
				Rule:    rule,
				Param:   param,
				Message: validationMessage(rule, param),
			})
		}
		return fields
	}

	// in the event of a type mismatch

	var unmatchedTypeError *json.UnmarshalTypeError

	if errors.As(err, &unmatchedTypeError) {
		field := strings.TrimSpace(unmatchedTypeError.Field)

		return []FieldError{{
			Field:   field,
			Rule:    "type",
			Message: fmt.Sprintf("must be of type %s", unmatchedTypeError.Type.String()),
		}}
	}

	var syntaxError *json.SyntaxError
	var tooLarge *http.MaxBytesError

	switch {
	case errors.As(err, &syntaxError), errors.Is(err, io.ErrUnexpectedEOF):
		return []FieldError{{Field: "body", Rule: "json", Message: "must be valid JSON"}}
	case errors.Is(err, io.EOF):
		return []FieldError{{Field: "body", Rule: "required", Message: "is required"}}
	case errors.As(err, &tooLarge):
		return []FieldError{{Field: "body", Rule: "max", Param: fmt.Sprint(tooLarge.Limit), Message: "is too large"}}
	}

	// the raw decoder message can echo input back; keep it generic
	return []FieldError{{Field: "body", Rule: "invalid", Message: "could not be decoded"}}
}

func baseStructType(v interface{}) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

// request bodies here are flat, so the struct field maps straight to its json tag
func jsonFieldName(rootType reflect.Type, structField string) string {
	if rootType == nil {
		return structField
	}

	sf, ok := rootType.FieldByName(structField)
	if !ok {
		return structField
	}

	tag := sf.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return sf.Name
	}

	return name
}

func validationMessage(rule, param string) string {
	switch rule {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "maxbytes":
		return "must be at most " + param + " bytes"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	default:
		if param != "" {
			return fmt.Sprintf("failed %s validation (%s)", rule, param)
		}
		return "failed " + rule + " validation"
	}
}
