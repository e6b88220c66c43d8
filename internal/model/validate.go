package model

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Limits enforced on both sides of the wire.
const (
	MaxDescriptionLen = 500
	MaxCategoryLen    = 50
)

const (
	MsgDescriptionEmpty   = "Description cannot be empty or whitespace-only"
	MsgDescriptionTooLong = "Description cannot exceed 500 characters"
	MsgPriorityInvalid    = "Priority must be one of Low, Medium, High"
	MsgCategoryTooLong    = "Category cannot exceed 50 characters"
)

var validate = validator.New()

// ValidateDescription trims s and checks it. The trimmed value is returned
// so callers submit exactly what was validated.
func ValidateDescription(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if err := validate.Var(trimmed, "required,max=500"); err != nil {
		return "", fieldError("Description", err)
	}
	return trimmed, nil
}

// NormalizeCreate trims the text fields of in and validates the result.
func NormalizeCreate(in CreateInput) (CreateInput, error) {
	out := in
	out.Description = strings.TrimSpace(in.Description)
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if c == "" {
			out.Category = nil
		} else {
			out.Category = &c
		}
	}
	if err := validate.Struct(out); err != nil {
		return CreateInput{}, fieldError("", err)
	}
	return out, nil
}

// NormalizeUpdate does the same for a partial update; only set fields are
// checked.
func NormalizeUpdate(in UpdateInput) (UpdateInput, error) {
	out := in
	if in.Description != nil {
		d, err := ValidateDescription(*in.Description)
		if err != nil {
			return UpdateInput{}, err
		}
		out.Description = &d
	}
	if in.Priority != nil {
		if err := validate.Var(string(*in.Priority), "oneof=Low Medium High"); err != nil {
			return UpdateInput{}, fieldError("Priority", err)
		}
	}
	if in.Category != nil {
		c := strings.TrimSpace(*in.Category)
		if err := validate.Var(c, "max=50"); err != nil {
			return UpdateInput{}, fieldError("Category", err)
		}
		out.Category = &c
	}
	return out, nil
}

// fieldError turns the first validator failure into a ValidationError.
// Var() reports no field name, so the caller supplies it.
func fieldError(field string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Field: field, Message: err.Error()}
	}
	fe := verrs[0]
	if field == "" {
		field = fe.Field()
	}
	return &ValidationError{Field: field, Message: message(field, fe.Tag())}
}

func message(field, tag string) string {
	switch field {
	case "Description":
		if tag == "max" {
			return MsgDescriptionTooLong
		}
		return MsgDescriptionEmpty
	case "Priority":
		return MsgPriorityInvalid
	case "Category":
		return MsgCategoryTooLong
	}
	return field + " is invalid"
}
