package extract

import (
	"errors"
	"fmt"
)

// StructuralError reports a document that does not have the shape extraction expects.
type StructuralError struct {
	Document string
	Path     string
	Reason   string
}

func (e *StructuralError) Error() string {
	doc := e.Document
	if doc == "" {
		doc = "document"
	}
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", doc, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", doc, e.Path, e.Reason)
}

func structuralf(path, format string, args ...any) *StructuralError {
	return &StructuralError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// WithDocument names the document on a StructuralError that does not carry one yet.
func WithDocument(err error, name string) error {
	var se *StructuralError
	if errors.As(err, &se) && se.Document == "" {
		se.Document = name
	}
	return err
}
