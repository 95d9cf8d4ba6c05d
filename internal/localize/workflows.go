package localize

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/langfile"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/render"
)

// TranslateRequest translates an existing dictionary without quest files.
type TranslateRequest struct {
	Dictionary Upload `validate:"required"`
	// Existing is an earlier target dictionary to continue from.
	Existing    *Upload `validate:"omitempty"`
	SourceLang  string  `validate:"required"`
	TargetLang  string  `validate:"required"`
	LangDialect string  `validate:"omitempty,oneof=backslash-n percent-n"`
}

// FixRequest retranslates chosen keys of a target dictionary.
type FixRequest struct {
	Source      Upload   `validate:"required"`
	Target      Upload   `validate:"required"`
	Keys        []string `validate:"required,min=1,dive,required"`
	TargetLang  string   `validate:"required"`
	LangDialect string   `validate:"omitempty,oneof=backslash-n percent-n"`
}

func validateStruct(v any) []error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []error{fmt.Errorf("validate request: %w", err)}
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		ve := fromFieldError(fe)
		if i := strings.IndexByte(ve.Field, '.'); i >= 0 {
			ve.Field = ve.Field[i+1:]
		}
		errs = append(errs, ve)
	}
	return errs
}

func targetLocale(code string) (locale.Locale, error) {
	l, err := locale.Parse(code)
	if err != nil {
		return locale.Locale{}, &ValidationError{Field: "TargetLang", Reason: err.Error()}
	}
	if !l.Translatable() {
		return locale.Locale{}, &ValidationError{Field: "TargetLang", Reason: fmt.Sprintf("%s cannot be machine translated", l.Code)}
	}
	return l, nil
}

func dialectByName(name string) langfile.Dialect {
	if d, err := langfile.DialectByName(name); err == nil {
		return d
	}
	return langfile.BackslashN
}

// TranslateDictionary translates a dictionary into the target language and
// renders <dst>.<ext> in the format of the upload.
func (l *Localizer) TranslateDictionary(ctx context.Context, req TranslateRequest) (*Run, error) {
	errs := validateStruct(req)
	if req.TargetLang != "" {
		if _, err := targetLocale(req.TargetLang); err != nil {
			errs = append(errs, err)
		} else if sameLang(req.SourceLang, req.TargetLang) {
			errs = append(errs, &ValidationError{Field: "TargetLang", Reason: "source and target language are the same"})
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if l.adapter == nil {
		return nil, &ValidationError{Field: "Translate", Reason: "no translation provider is configured"}
	}

	dialect := dialectByName(req.LangDialect)
	run := newRun()
	if err := run.advance(Uploaded); err != nil {
		return run, err
	}

	source, kind, err := LoadDictionary(req.Dictionary, dialect)
	if err != nil {
		return run, err
	}
	run.Source = source
	if err := run.advance(Extracted); err != nil {
		return run, err
	}

	var into *dict.Dictionary
	if req.Existing != nil {
		if into, _, err = LoadDictionary(*req.Existing, dialect); err != nil {
			return run, fmt.Errorf("existing target dictionary: %w", err)
		}
	}
	if err := l.translate(ctx, run, req.TargetLang, into); err != nil {
		return run, err
	}

	target, _ := locale.Parse(req.TargetLang)
	data, err := EncodeDictionary(run.Target, kind, dialect, false)
	if err != nil {
		return run, err
	}
	run.Artifacts = append(run.Artifacts, render.Artifact{Name: target.Code + "." + string(kind), Data: data})
	return run, run.advance(Rendered)
}

// Fix retranslates req.Keys from the source dictionary and writes them into
// the target dictionary, which keeps its name and format. Keys whose
// retranslation fails keep their current target text.
func (l *Localizer) Fix(ctx context.Context, req FixRequest) (*Run, error) {
	errs := validateStruct(req)
	if req.TargetLang != "" {
		if _, err := targetLocale(req.TargetLang); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if l.adapter == nil {
		return nil, &ValidationError{Field: "Translate", Reason: "no translation provider is configured"}
	}

	dialect := dialectByName(req.LangDialect)
	run := newRun()
	if err := run.advance(Uploaded); err != nil {
		return run, err
	}

	source, _, err := LoadDictionary(req.Source, dialect)
	if err != nil {
		return run, err
	}
	target, kind, err := LoadDictionary(req.Target, dialect)
	if err != nil {
		return run, err
	}

	var unknown []string
	for _, k := range req.Keys {
		if !source.Has(k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		return run, &ValidationError{Field: "Keys", Reason: "not in the source dictionary: " + strings.Join(unknown, ", ")}
	}

	run.Source = source.Subset(req.Keys)
	if err := run.advance(Extracted); err != nil {
		return run, err
	}
	run.logger.Info().Int("keys", run.Source.Len()).Msg("Fixing translations")

	if err := l.translate(ctx, run, req.TargetLang, target); err != nil {
		return run, err
	}

	data, err := EncodeDictionary(run.Target, kind, dialect, false)
	if err != nil {
		return run, err
	}
	run.Artifacts = append(run.Artifacts, render.Artifact{Name: path.Base(cleanName(req.Target.Name)), Data: data})
	return run, run.advance(Rendered)
}
