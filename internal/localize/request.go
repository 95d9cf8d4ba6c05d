// Package localize runs one localization request: validate the uploads,
// extract quest text, optionally translate it and render the artifacts.
package localize

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"quest-localizer/internal/langfile"
	"quest-localizer/internal/locale"
)

const (
	// MaxFiles bounds the quest files of one request.
	MaxFiles = 50
	// MaxModpackName bounds the modpack name.
	MaxModpackName = 32
)

// Format is the questing mod whose files are uploaded.
type Format string

const (
	FTBQuests      Format = "ftbquests"
	BetterQuesting Format = "bqm"
)

// DictFormat is the file format of FTB Quests dictionaries.
type DictFormat string

const (
	DictJSON DictFormat = "json"
	DictSNBT DictFormat = "snbt"
)

// Upload is one uploaded file. Name may carry a relative path.
type Upload struct {
	Name string `validate:"required"`
	Data []byte
}

// Request describes one convert (and optionally translate) run.
type Request struct {
	Format  Format   `validate:"required,oneof=ftbquests bqm"`
	Modpack string   `validate:"max=32"`
	Files   []Upload `validate:"required,min=1,max=50,dive"`
	// Existing is a dictionary whose entries seed the source dictionary.
	Existing *Upload `validate:"omitempty"`

	SourceLang string `validate:"required"`
	TargetLang string
	Translate  bool

	LangDialect string     `validate:"omitempty,oneof=backslash-n percent-n"`
	DictFormat  DictFormat `validate:"omitempty,oneof=json snbt"`
	// Inline also renders the quests with dictionary text put back in place.
	Inline bool
}

// ValidationError rejects a request before any work is done.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the request and returns every problem joined.
func (r *Request) Validate() error {
	var errs []error
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate request: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fromFieldError(fe))
		}
	}

	if _, err := locale.Parse(r.SourceLang); r.SourceLang != "" && err != nil {
		errs = append(errs, &ValidationError{Field: "SourceLang", Reason: err.Error()})
	}
	if r.TargetLang != "" {
		target, err := locale.Parse(r.TargetLang)
		switch {
		case err != nil:
			errs = append(errs, &ValidationError{Field: "TargetLang", Reason: err.Error()})
		case sameLang(r.SourceLang, r.TargetLang):
			errs = append(errs, &ValidationError{Field: "TargetLang", Reason: "source and target language are the same"})
		case r.Translate && !target.Translatable():
			errs = append(errs, &ValidationError{Field: "TargetLang", Reason: fmt.Sprintf("%s cannot be machine translated", target.Code)})
		}
	}
	if r.Translate && r.TargetLang == "" {
		errs = append(errs, &ValidationError{Field: "TargetLang", Reason: "translation needs a target language"})
	}
	if r.Format == BetterQuesting && len(r.Files) > 1 {
		errs = append(errs, &ValidationError{Field: "Files", Reason: "a Better Questing request takes exactly one DefaultQuests.json"})
	}
	return errors.Join(errs...)
}

func sameLang(a, b string) bool {
	la, errA := locale.Parse(a)
	lb, errB := locale.Parse(b)
	return errA == nil && errB == nil && la.Code == lb.Code
}

func fromFieldError(fe validator.FieldError) *ValidationError {
	field := strings.TrimPrefix(fe.Namespace(), "Request.")
	var reason string
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "min":
		reason = fmt.Sprintf("needs at least %s", fe.Param())
	case "max":
		if fe.Kind().String() == "slice" {
			reason = fmt.Sprintf("at most %s files are allowed", fe.Param())
		} else {
			reason = fmt.Sprintf("must be at most %s characters", fe.Param())
		}
	case "oneof":
		reason = fmt.Sprintf("must be one of %s", fe.Param())
	default:
		reason = fmt.Sprintf("failed %s", fe.Tag())
	}
	return &ValidationError{Field: field, Reason: reason}
}

// dialect returns the .lang dialect of the request, backslash-n by default.
func (r *Request) dialect() langfile.Dialect {
	if r.LangDialect == "" {
		return langfile.BackslashN
	}
	d, err := langfile.DialectByName(r.LangDialect)
	if err != nil {
		return langfile.BackslashN
	}
	return d
}
