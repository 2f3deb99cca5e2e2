package util

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/SeakMengs/DocSign/pkg/docsign"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// credit: https://github.com/go-playground/validator/issues/559#issuecomment-976459959

type ApiError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

const unknownField = "Unknown"

var tagMessages = map[string]func(field, param string) string{
	"required":      func(f, _ string) string { return f + " is required" },
	"email":         func(_, _ string) string { return "Invalid email" },
	"numeric":       func(f, _ string) string { return f + " must be numeric" },
	"min":           func(f, p string) string { return fmt.Sprintf("%s must be at least %s characters", f, p) },
	"max":           func(f, p string) string { return fmt.Sprintf("%s must be at most %s characters", f, p) },
	"gte":           func(f, p string) string { return fmt.Sprintf("%s must be greater than or equal to %s", f, p) },
	"lte":           func(f, p string) string { return fmt.Sprintf("%s must be less than or equal to %s", f, p) },
	"oneof":         func(f, p string) string { return fmt.Sprintf("%s must be one of: %s", f, strings.ReplaceAll(p, " ", ", ")) },
	"cmin":          func(f, p string) string { return fmt.Sprintf("%s must be at least %s non-whitespace characters", f, p) },
	"cmax":          func(f, p string) string { return fmt.Sprintf("%s must be at most %s non-whitespace characters", f, p) },
	"strNotEmpty":   func(f, _ string) string { return f + " must not be empty or contain only whitespace characters" },
	"docStatus":     func(f, _ string) string { return f + " must be one of: pending, reviewed, signed, archived" },
	"signatureMode": func(f, _ string) string { return f + " must be one of: draw, upload, text" },
	"imageDataURL":  func(f, _ string) string { return f + " must be a base64 encoded image data url" },
}

func msgForTag(fe validator.FieldError, field string) string {
	if format, ok := tagMessages[fe.Tag()]; ok {
		return format(field, fe.Param())
	}
	return fe.Error()
}

/*
GenerateErrorMessages turns err into the []ApiError carried by failed responses. Validation errors
produce one entry per field; anything else produces a single entry.

Optional parameters:
  - map[string]string renames validated fields, e.g. {"PDFPageDimensions": "pdfPageDimensions"}
  - string names the field a non-validation error belongs to

Example:

	GenerateErrorMessages(err, "signaturePosition")
	// [{"field": "signaturePosition", "message": "..."}]
*/
func GenerateErrorMessages(err error, optionalParams ...any) []ApiError {
	if err == nil {
		return nil
	}

	var rename map[string]string
	fieldName := unknownField
	for _, param := range optionalParams {
		switch v := param.(type) {
		case map[string]string:
			rename = v
		case string:
			if v != "" {
				fieldName = v
			}
		}
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		out := make([]ApiError, 0, len(ve))
		for _, fe := range ve {
			field := fe.Field()
			if custom, ok := rename[field]; ok {
				field = custom
			}
			out = append(out, ApiError{Field: field, Message: msgForTag(fe, field)})
		}
		return out
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []ApiError{{Field: fieldName, Message: "Record not found"}}
	}

	return []ApiError{{Field: fieldName, Message: err.Error()}}
}

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"strNotEmpty":   StrNotEmpty,
		"cmin":          CustomMin,
		"cmax":          CustomMax,
		"docStatus":     DocumentStatus,
		"signatureMode": SignatureMode,
		"imageDataURL":  ImageDataURL,
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func trimmedString(fl validator.FieldLevel) (string, bool) {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return "", false
	}
	return strings.TrimSpace(field.String()), true
}

// check if string is empty, after trimming spaces
// Usage: `binding:"strNotEmpty"`
func StrNotEmpty(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	return ok && s != ""
}

// Usage: `binding:"cmin=3"`
func CustomMin(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	n, err := strconv.Atoi(fl.Param())
	return ok && err == nil && len(s) >= n
}

// Usage: `binding:"cmax=3"`
func CustomMax(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	n, err := strconv.Atoi(fl.Param())
	return ok && err == nil && len(s) <= n
}

// Usage: `binding:"docStatus"`
func DocumentStatus(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	return ok && docsign.DocumentStatus(s).Valid()
}

// Usage: `binding:"signatureMode"`
func SignatureMode(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	return ok && docsign.SourceMode(s).Valid()
}

// ImageDataURL accepts a base64 data url (or bare base64 payload) of an image.
// Usage: `binding:"imageDataURL"`
func ImageDataURL(fl validator.FieldLevel) bool {
	s, ok := trimmedString(fl)
	if !ok || s == "" {
		return false
	}
	mimeType, data, err := docsign.DecodeDataURL(s)
	return err == nil && len(data) > 0 && strings.HasPrefix(mimeType, "image/")
}
