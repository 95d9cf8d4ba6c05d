package localize

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/document"
	"quest-localizer/internal/extract"
	"quest-localizer/internal/langfile"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/render"
	"quest-localizer/internal/snbt"
	"quest-localizer/internal/textutil"
	"quest-localizer/internal/translation"
)

// Document is one processed quest file.
type Document struct {
	Name     string
	ID       string
	Root     *document.Map
	Replaced int
}

// Run is the state of one request from upload to artifacts.
type Run struct {
	ID        string
	Stage     Stage
	Documents []Document
	Source    *dict.Dictionary
	Target    *dict.Dictionary
	Report    *translation.Report
	Artifacts []render.Artifact

	logger zerolog.Logger
}

func newRun() *Run {
	id := uuid.NewString()
	return &Run{
		ID:     id,
		Stage:  Idle,
		logger: log.With().Str("run_id", id).Logger(),
	}
}

func (r *Run) advance(to Stage) error {
	if !CanAdvance(r.Stage, to) {
		return fmt.Errorf("run %s: cannot move from %s to %s", r.ID, r.Stage, to)
	}
	r.logger.Debug().Stringer("from", r.Stage).Stringer("to", to).Msg("Run stage")
	r.Stage = to
	return nil
}

// Artifact returns the artifact called name.
func (r *Run) Artifact(name string) ([]byte, bool) {
	for _, a := range r.Artifacts {
		if a.Name == name {
			return a.Data, true
		}
	}
	return nil, false
}

// Localizer runs requests. The translation adapter is optional; without it
// requests that ask for translation are rejected.
type Localizer struct {
	adapter *translation.Adapter
}

// New creates a localizer.
func New(adapter *translation.Adapter) *Localizer {
	return &Localizer{adapter: adapter}
}

// Localize validates req, extracts its documents, translates when asked and
// renders the artifacts. Structural problems in any document abort the run;
// translation failures do not and are listed in the run report.
func (l *Localizer) Localize(ctx context.Context, req Request) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Translate && l.adapter == nil {
		return nil, &ValidationError{Field: "Translate", Reason: "no translation provider is configured"}
	}

	run := newRun()
	if err := run.advance(Uploaded); err != nil {
		return run, err
	}
	run.logger.Info().
		Str("format", string(req.Format)).
		Int("files", len(req.Files)).
		Str("source", req.SourceLang).
		Str("target", req.TargetLang).
		Msg("Localizing")

	seed := dict.New()
	if req.Existing != nil {
		existing, _, err := LoadDictionary(*req.Existing, req.dialect())
		if err != nil {
			return run, fmt.Errorf("existing dictionary: %w", err)
		}
		dict.MergeExisting(seed, existing)
		run.logger.Info().Int("entries", existing.Len()).Msg("Seeded dictionary")
	}

	var err error
	switch req.Format {
	case FTBQuests:
		err = l.extractFTB(run, req, seed)
	case BetterQuesting:
		err = l.extractBQM(run, req, seed)
	}
	if err != nil {
		return run, err
	}
	if err := run.advance(Extracted); err != nil {
		return run, err
	}

	if req.Translate {
		if err := l.translate(ctx, run, req.TargetLang, nil); err != nil {
			return run, err
		}
	}

	if err := l.render(run, req); err != nil {
		return run, err
	}
	return run, nil
}

func (l *Localizer) extractFTB(run *Run, req Request, seed *dict.Dictionary) error {
	ns := extract.ModpackNamespace(req.Modpack)
	ids := extract.NewDocumentIDs()
	walker := extract.NewWalker(extract.FTBQuests)
	run.Source = seed

	var errs []error
	for _, f := range req.Files {
		name := cleanName(f.Name)
		root, err := snbt.ParseMap([]byte(textutil.Decode(f.Data)))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		id := ids.Next(name)
		local := dict.New()
		n, err := walker.Extract(root, extract.Namespace{Modpack: ns, Document: id}, local)
		if err != nil {
			var se *extract.StructuralError
			if errors.As(err, &se) {
				se.Document = name
			}
			errs = append(errs, err)
			continue
		}
		dict.MergeExisting(run.Source, local)
		run.Documents = append(run.Documents, Document{Name: name, ID: id, Root: root, Replaced: n})
		run.logger.Debug().Str("document", name).Str("id", id).Int("replaced", n).Msg("Extracted document")
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	run.logger.Info().Int("documents", len(run.Documents)).Int("entries", run.Source.Len()).Msg("Extraction complete")
	return nil
}

func (l *Localizer) extractBQM(run *Run, req Request, seed *dict.Dictionary) error {
	f := req.Files[0]
	name := cleanName(f.Name)

	parsed, err := document.ParseJSON([]byte(textutil.Decode(f.Data)))
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	root, ok := parsed.(*document.Map)
	if !ok {
		return extract.WithDocument(&extract.StructuralError{Reason: "quest database root is not an object"}, name)
	}

	version, err := extract.DetectVersion(root)
	if err != nil {
		return extract.WithDocument(err, name)
	}
	strategy, err := extract.StrategyFor(version)
	if err != nil {
		return err
	}

	run.Source = seed
	n, err := strategy.Extract(root, extract.ModpackNamespace(req.Modpack), run.Source)
	if err != nil {
		return extract.WithDocument(err, name)
	}
	run.Documents = append(run.Documents, Document{Name: name, ID: name, Root: root, Replaced: n})
	run.logger.Info().Stringer("version", version).Int("replaced", n).Msg("Extraction complete")
	return nil
}

// translate moves run from Extracted to Translated. into seeds the target
// dictionary and may be nil.
func (l *Localizer) translate(ctx context.Context, run *Run, targetLang string, into *dict.Dictionary) error {
	target, err := locale.Parse(targetLang)
	if err != nil {
		return &ValidationError{Field: "TargetLang", Reason: err.Error()}
	}
	if err := run.advance(Translating); err != nil {
		return err
	}

	report, err := l.adapter.Translate(ctx, run.Source, target, into)
	run.Report = report
	if report != nil {
		run.Target = report.Target
	}
	if err != nil {
		return fmt.Errorf("translate into %s: %w", target.Code, err)
	}
	if failed := report.FailedKeys(); len(failed) > 0 {
		run.logger.Warn().Int("failed_keys", len(failed)).Err(report.Err()).Msg("Some batches were not translated")
	}
	return run.advance(Translated)
}

func (l *Localizer) render(run *Run, req Request) error {
	var err error
	switch req.Format {
	case FTBQuests:
		err = l.renderFTB(run, req)
	case BetterQuesting:
		err = l.renderBQM(run, req)
	}
	if err != nil {
		return err
	}
	run.logger.Info().Int("artifacts", len(run.Artifacts)).Msg("Rendered")
	return run.advance(Rendered)
}

func (l *Localizer) renderFTB(run *Run, req Request) error {
	quests := make([]render.Artifact, 0, len(run.Documents))
	for _, doc := range run.Documents {
		data, err := render.Tree(doc.Root)
		if err != nil {
			return fmt.Errorf("render %s: %w", doc.Name, err)
		}
		quests = append(quests, render.Artifact{Name: doc.Name, Data: data})
	}
	bundle, err := render.Bundle(quests)
	if err != nil {
		return err
	}
	run.Artifacts = append(run.Artifacts, render.Artifact{Name: "quests.zip", Data: bundle})

	kind := KindJSON
	if req.DictFormat == DictSNBT {
		kind = KindSNBT
	}
	if err := run.addDictionaries(req.SourceLang, req.TargetLang, kind, req.dialect()); err != nil {
		return err
	}

	if req.Inline {
		text := run.Source
		if run.Target != nil {
			text = run.Target
		}
		inline := make([]render.Artifact, 0, len(run.Documents))
		for _, doc := range run.Documents {
			data, err := render.Tree(render.Inline(doc.Root, text))
			if err != nil {
				return fmt.Errorf("render %s: %w", doc.Name, err)
			}
			inline = append(inline, render.Artifact{Name: doc.Name, Data: data})
		}
		bundle, err := render.Bundle(inline)
		if err != nil {
			return err
		}
		run.Artifacts = append(run.Artifacts, render.Artifact{Name: "quests_inline.zip", Data: bundle})
	}
	return nil
}

func (l *Localizer) renderBQM(run *Run, req Request) error {
	data, err := render.QuestDatabase(run.Documents[0].Root)
	if err != nil {
		return fmt.Errorf("render quest database: %w", err)
	}
	run.Artifacts = append(run.Artifacts, render.Artifact{Name: "DefaultQuests.json", Data: data})
	return run.addDictionaries(req.SourceLang, req.TargetLang, KindLang, req.dialect())
}

// addDictionaries renders the source, target (when translated) and template
// dictionaries as <src>.<ext>, <dst>.<ext> and template_lang.<ext>.
func (r *Run) addDictionaries(sourceLang, targetLang string, kind DictKind, dialect langfile.Dialect) error {
	src, err := locale.Parse(sourceLang)
	if err != nil {
		return &ValidationError{Field: "SourceLang", Reason: err.Error()}
	}

	data, err := EncodeDictionary(r.Source, kind, dialect, false)
	if err != nil {
		return err
	}
	r.Artifacts = append(r.Artifacts, render.Artifact{Name: src.Code + "." + string(kind), Data: data})

	if r.Target != nil {
		dst, err := locale.Parse(targetLang)
		if err != nil {
			return &ValidationError{Field: "TargetLang", Reason: err.Error()}
		}
		data, err := EncodeDictionary(r.Target, kind, dialect, false)
		if err != nil {
			return err
		}
		r.Artifacts = append(r.Artifacts, render.Artifact{Name: dst.Code + "." + string(kind), Data: data})
	}

	data, err = EncodeDictionary(dict.Template(r.Source), kind, dialect, true)
	if err != nil {
		return err
	}
	r.Artifacts = append(r.Artifacts, render.Artifact{Name: "template_lang." + string(kind), Data: data})
	return nil
}
