package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Issue describes one reason a payload was rejected.
// Loc is the path to the offending value, starting with "body".
type Issue struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ValidationError is returned by Decode when the body does not satisfy the schema.
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(issue.Loc, "."), issue.Msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validate is shared; validator caches struct metadata per instance.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a JSON object from r into a T and validates it.
// Any failure is reported as a *ValidationError; unknown fields are ignored.
func Decode[T Payload](r io.Reader) (T, error) {
	var payload T

	data, err := io.ReadAll(r)
	if err != nil {
		return payload, fmt.Errorf("failed to read request body: %w", err)
	}
	// A JSON null carries no object, same as an empty body.
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return payload, &ValidationError{Issues: []Issue{{
			Loc:  []string{"body"},
			Msg:  "Field required",
			Type: "missing",
		}}}
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, &ValidationError{Issues: []Issue{decodeIssue(err)}}
	}

	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return payload, fmt.Errorf("failed to validate payload: %w", err)
		}
		issues := make([]Issue, 0, len(verrs))
		for _, fe := range verrs {
			issues = append(issues, fieldIssue(fe))
		}
		return payload, &ValidationError{Issues: issues}
	}

	return payload, nil
}

func decodeIssue(err error) Issue {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return Issue{
				Loc:  []string{"body"},
				Msg:  "Input should be a valid dictionary or object to extract fields from",
				Type: "model_attributes_type",
			}
		}
		loc := append([]string{"body"}, strings.Split(typeErr.Field, ".")...)
		switch typeErr.Type.Kind() {
		case reflect.String:
			return Issue{Loc: loc, Msg: "Input should be a valid string", Type: "string_type"}
		case reflect.Float32, reflect.Float64:
			return Issue{Loc: loc, Msg: "Input should be a valid number", Type: "float_type"}
		default:
			return Issue{Loc: loc, Msg: "Input has the wrong type", Type: "type_error"}
		}
	}
	return Issue{
		Loc:  []string{"body"},
		Msg:  "JSON decode error",
		Type: "json_invalid",
	}
}

func fieldIssue(fe validator.FieldError) Issue {
	loc := []string{"body", fe.Field()}
	switch fe.Tag() {
	case "required":
		return Issue{Loc: loc, Msg: "Field required", Type: "missing"}
	case "gte":
		return Issue{Loc: loc, Msg: "Input should be greater than or equal to " + fe.Param(), Type: "greater_than_equal"}
	default:
		return Issue{Loc: loc, Msg: fmt.Sprintf("Failed on the %q constraint", fe.Tag()), Type: fe.Tag()}
	}
}
