package translation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"quest-localizer/internal/dict"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/worker"
)

// Fallback decides what a failed key looks like in the result.
type Fallback int

const (
	// Omit leaves failed keys out of the result.
	Omit Fallback = iota
	// CopySource keeps the source text for failed keys.
	CopySource
)

// Cache stores translations of single lines per target language.
type Cache interface {
	Get(ctx context.Context, lang, source string) (string, bool)
	Set(ctx context.Context, lang, source, translated string) error
}

// Pair is one finished translation.
type Pair struct {
	Key        string
	Source     string
	Translated string
}

// Memory records finished translations for later reference.
type Memory interface {
	Remember(ctx context.Context, target locale.Locale, pairs []Pair) error
}

// Options tune an Adapter. Zero fields take the defaults of DefaultOptions.
type Options struct {
	Concurrency     int
	TokenBudget     int
	MaxBatchEntries int
	Retry           RetryPolicy
	// RequestsPerSecond throttles provider calls across workers; 0 disables it.
	RequestsPerSecond float64
	Fallback          Fallback
	// OnlyMissing skips keys the target already holds with a value that
	// differs from the source.
	OnlyMissing bool
	// OnProgress is called after every batch, possibly from several goroutines.
	OnProgress func(done, total int)
}

// DefaultOptions returns four workers, 1500-token batches of at most 40
// entries and the default retry policy.
func DefaultOptions() Options {
	return Options{
		Concurrency:     4,
		TokenBudget:     1500,
		MaxBatchEntries: 40,
		Retry:           DefaultRetryPolicy(),
	}
}

// Report describes one Translate run.
type Report struct {
	Target     *dict.Dictionary
	Batches    int
	Translated int
	Cached     int
	Kept       int
	Skipped    []string
	Failures   []*BatchError
	Duration   time.Duration
}

// FailedKeys lists every key without a translation, in batch order.
func (r *Report) FailedKeys() []string {
	var keys []string
	for _, f := range r.Failures {
		keys = append(keys, f.Keys...)
	}
	return keys
}

// Err joins all batch failures, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Adapter splits a dictionary into token-bounded batches, translates them
// concurrently and merges the results by key.
type Adapter struct {
	translator Translator
	opts       Options
	limiter    *rate.Limiter
	cache      Cache
	memory     Memory
}

// NewAdapter creates an adapter around translator.
func NewAdapter(translator Translator, opts Options) *Adapter {
	def := DefaultOptions()
	if opts.Concurrency < 1 {
		opts.Concurrency = def.Concurrency
	}
	if opts.TokenBudget < 1 {
		opts.TokenBudget = def.TokenBudget
	}
	if opts.MaxBatchEntries < 1 {
		opts.MaxBatchEntries = def.MaxBatchEntries
	}
	if opts.Retry.MaxAttempts < 1 {
		opts.Retry = def.Retry
	}

	a := &Adapter{translator: translator, opts: opts}
	if opts.RequestsPerSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return a
}

// WithCache makes the adapter reuse and store line translations.
func (a *Adapter) WithCache(c Cache) *Adapter {
	a.cache = c
	return a
}

// WithMemory makes the adapter record finished translations.
func (a *Adapter) WithMemory(m Memory) *Adapter {
	a.memory = m
	return a
}

type batchResult struct {
	accepted *dict.Dictionary
	rejected []*ShapeError
}

// Translate translates source into target and merges the results into into,
// which may be nil. With CopySource, into is first reconciled with source.
// Batch failures do not abort the run; they end up in the report. The error is
// only set when ctx ends the run early.
func (a *Adapter) Translate(ctx context.Context, source *dict.Dictionary, target locale.Locale, into *dict.Dictionary) (*Report, error) {
	start := time.Now()
	out := into
	if out == nil {
		out = dict.New()
	}
	if a.opts.Fallback == CopySource {
		out = dict.Reconcile(source, out)
	}
	held := out.Keys()
	report := &Report{}

	var pending []entry
	source.Each(func(key string, v dict.Value) bool {
		if untranslatable(v) {
			report.Skipped = append(report.Skipped, key)
			out.Set(key, v)
			return true
		}
		if a.opts.OnlyMissing {
			if cur, ok := out.Get(key); ok && !cur.IsBlank() && !cur.Equal(v) {
				report.Kept++
				return true
			}
		}
		if cached, ok := a.fromCache(ctx, target, v); ok {
			report.Cached++
			out.Set(key, cached)
			return true
		}
		pending = append(pending, entry{key: key, value: v})
		return true
	})

	groups := worker.Pack(pending, a.opts.TokenBudget, a.opts.MaxBatchEntries, func(e entry) int {
		return EstimateTokens(e.key, e.value)
	})
	batches := make([]batch, len(groups))
	for i, g := range groups {
		batches[i] = batch{index: i + 1, entries: g}
	}
	report.Batches = len(batches)

	log.Info().
		Str("provider", a.translator.Name()).
		Str("target", target.Code).
		Int("entries", len(pending)).
		Int("batches", len(batches)).
		Int("cached", report.Cached).
		Int("skipped", len(report.Skipped)).
		Msg("Translating dictionary")

	var done atomic.Int32
	pool := worker.NewPool(a.opts.Concurrency, func(ctx context.Context, b batch) (*batchResult, error) {
		res, err := a.translateBatch(ctx, b, target)
		n := int(done.Add(1))
		if a.opts.OnProgress != nil {
			a.opts.OnProgress(n, len(batches))
		}
		return res, err
	})

	var pairs []Pair
	for _, task := range pool.Execute(ctx, batches) {
		b := task.Input
		if task.Err != nil {
			report.Failures = append(report.Failures, &BatchError{Batch: b.index, Keys: b.keys(), Err: task.Err})
			continue
		}
		for _, se := range task.Result.rejected {
			report.Failures = append(report.Failures, &BatchError{Batch: b.index, Keys: []string{se.Key}, Err: se})
		}
		for _, e := range b.entries {
			got, ok := task.Result.accepted.Get(e.key)
			if !ok {
				continue
			}
			out.Set(e.key, got)
			report.Translated++
			a.toCache(ctx, target, e.value, got)
			for i, line := range e.value.Lines {
				pairs = append(pairs, Pair{Key: e.key, Source: line, Translated: got.Lines[i]})
			}
		}
	}

	if a.memory != nil && len(pairs) > 0 && ctx.Err() == nil {
		if err := a.memory.Remember(ctx, target, pairs); err != nil {
			log.Warn().Err(err).Msg("Failed to record translation memory")
		}
	}

	report.Target = ordered(source, out, held)
	report.Duration = time.Since(start)
	log.Info().
		Int("translated", report.Translated).
		Int("failed_keys", len(report.FailedKeys())).
		Dur("duration", report.Duration).
		Msg("Translation finished")

	return report, ctx.Err()
}

// ordered lays out the translated dictionary: keys it held before translation
// keep their order, new keys follow in source order.
func ordered(source, out *dict.Dictionary, held []string) *dict.Dictionary {
	res := dict.New()
	for _, k := range held {
		if v, ok := out.Get(k); ok {
			res.Set(k, v)
		}
	}
	source.Each(func(k string, _ dict.Value) bool {
		if v, ok := out.Get(k); ok {
			res.Add(k, v)
		}
		return true
	})
	return res
}

func (a *Adapter) translateBatch(ctx context.Context, b batch, target locale.Locale) (*batchResult, error) {
	request := b.dictionary()

	var reply *dict.Dictionary
	err := a.opts.Retry.Do(ctx, func(ctx context.Context) error {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return Permanent(err)
			}
		}
		res, err := a.translator.TranslateBatch(ctx, request, target)
		if err != nil {
			return err
		}
		if res == nil {
			return &ProviderError{Provider: a.translator.Name(), Message: "empty reply", Retryable: true}
		}
		reply = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	accepted, rejected := validate(request, reply)
	for _, se := range rejected {
		log.Warn().Int("batch", b.index).Str("key", se.Key).Str("reason", se.Reason).Msg("Rejected translation")
	}
	return &batchResult{accepted: accepted, rejected: rejected}, nil
}

func (a *Adapter) fromCache(ctx context.Context, target locale.Locale, v dict.Value) (dict.Value, bool) {
	if a.cache == nil {
		return dict.Value{}, false
	}
	lines := make([]string, len(v.Lines))
	for i, l := range v.Lines {
		if l == "" {
			continue
		}
		t, ok := a.cache.Get(ctx, target.Code, l)
		if !ok {
			return dict.Value{}, false
		}
		lines[i] = t
	}
	return dict.Value{Lines: lines, List: v.List}, true
}

func (a *Adapter) toCache(ctx context.Context, target locale.Locale, source, translated dict.Value) {
	if a.cache == nil {
		return
	}
	for i, l := range source.Lines {
		if l == "" || i >= len(translated.Lines) {
			continue
		}
		if err := a.cache.Set(ctx, target.Code, l, translated.Lines[i]); err != nil {
			log.Warn().Err(err).Msg("Failed to cache translation")
			return
		}
	}
}
