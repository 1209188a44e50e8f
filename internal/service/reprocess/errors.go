package reprocess

import (
	"net/http"
	"sort"
	"strings"
)

const (
	CodeInvalidFields = "INVALID_FIELDS"
	CodeUnprocessable = "UNPROCESSABLE_ENTITY"
)

// FieldError aggregates every problem found for a request, keyed by field.
type FieldError struct {
	Status int
	Code   string
	Fields map[string][]string
}

func newInvalidFields() *FieldError {
	return &FieldError{Status: http.StatusBadRequest, Code: CodeInvalidFields, Fields: map[string][]string{}}
}

func newUnprocessable() *FieldError {
	return &FieldError{Status: http.StatusUnprocessableEntity, Code: CodeUnprocessable, Fields: map[string][]string{}}
}

func (e *FieldError) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

// OrNil returns nil when nothing was added.
func (e *FieldError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *FieldError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var sb strings.Builder
	sb.WriteString(strings.ToLower(e.Code))
	for _, f := range fields {
		sb.WriteString("; ")
		sb.WriteString(f)
		sb.WriteString(": ")
		sb.WriteString(strings.Join(e.Fields[f], ", "))
	}
	return sb.String()
}
