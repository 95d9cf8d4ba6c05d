package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quest-localizer/internal/cache"
	"quest-localizer/internal/config"
	"quest-localizer/internal/glossary"
	"quest-localizer/internal/rag"
	"quest-localizer/internal/translation"
)

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd := &cobra.Command{
		Use:   "quest-localizer",
		Short: "Localization tool for Minecraft quest books",
		Long: `Extracts the text of FTB Quests and Better Questing quest books into
language dictionaries, leaves key references in the quests and optionally
machine translates the dictionaries.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(config.Load().LogLevel)
		},
	}

	rootCmd.AddCommand(ftbqCmd())
	rootCmd.AddCommand(bqmCmd())
	rootCmd.AddCommand(translateCmd())
	rootCmd.AddCommand(fixCmd())
	rootCmd.AddCommand(languagesCmd())
	rootCmd.AddCommand(glossaryCmd())
	rootCmd.AddCommand(memoryCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Msg(describeError(err))
		os.Exit(1)
	}
}

func setupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// dependencies holds the optional backing services. Every field may be nil.
type dependencies struct {
	pgPool      *pgxpool.Pool
	neo4jDriver neo4j.DriverWithContext
}

func (d *dependencies) Close(ctx context.Context) {
	if d.pgPool != nil {
		d.pgPool.Close()
	}
	if d.neo4jDriver != nil {
		if err := d.neo4jDriver.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to close Neo4j driver")
		}
	}
}

// initDependencies connects to the services that are configured. A service
// that is configured but unreachable is an error.
func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	if cfg.HasDatabase() {
		pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pgPool.Ping(ctx); err != nil {
			pgPool.Close()
			return nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		deps.pgPool = pgPool
		log.Info().Msg("Connected to PostgreSQL")
	}

	if cfg.HasGlossary() {
		neo4jDriver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
		if err != nil {
			deps.Close(ctx)
			return nil, fmt.Errorf("connect Neo4j: %w", err)
		}
		if err := neo4jDriver.VerifyConnectivity(ctx); err != nil {
			neo4jDriver.Close(ctx)
			deps.Close(ctx)
			return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
		}
		deps.neo4jDriver = neo4jDriver
		log.Info().Msg("Connected to Neo4j")
	}

	return deps, nil
}

// translationFlags tune the translation adapter of one invocation.
type translationFlags struct {
	provider        string
	fallback        string
	concurrency     int
	tokenBudget     int
	maxBatchEntries int
	onlyMissing     bool
}

func (f *translationFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "gemini", "Translation provider: gemini, google or deepl")
	cmd.Flags().StringVar(&f.fallback, "fallback", "omit", "Keys whose translation fails: omit, or copy the source text")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "Concurrent provider calls (default MAX_CONCURRENT_API_CALLS)")
	cmd.Flags().IntVar(&f.tokenBudget, "token-budget", 0, "Estimated tokens per batch (default TOKEN_BUDGET)")
	cmd.Flags().IntVar(&f.maxBatchEntries, "max-batch-entries", 0, "Entries per batch (default MAX_BATCH_ENTRIES)")
}

// services are the pieces one translating command needs.
type services struct {
	deps    *dependencies
	adapter *translation.Adapter
}

// buildServices wires the provider, cache, glossary and translation memory
// for translating into targetLang.
func buildServices(ctx context.Context, cfg *config.Config, flags translationFlags, targetLang string) (*services, error) {
	deps, err := initDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}

	translationCache := cache.NewTranslationCache(deps.pgPool)
	if err := translationCache.EnsureSchema(ctx); err != nil {
		deps.Close(ctx)
		return nil, err
	}
	if err := translationCache.Preload(ctx, targetLang); err != nil {
		log.Warn().Err(err).Msg("Failed to preload cache")
	}

	retriever, err := buildRetriever(ctx, cfg, deps)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}

	translator, err := buildTranslator(cfg, flags.provider, retriever)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}

	opts, err := adapterOptions(cfg, flags)
	if err != nil {
		deps.Close(ctx)
		return nil, err
	}

	adapter := translation.NewAdapter(translator, opts).WithCache(translationCache)
	if retriever != nil {
		adapter = adapter.WithMemory(retriever)
	}
	return &services{deps: deps, adapter: adapter}, nil
}

// buildRetriever returns nil when neither a glossary nor a translation memory is configured.
func buildRetriever(ctx context.Context, cfg *config.Config, deps *dependencies) (*rag.Retriever, error) {
	var terms rag.TermFinder
	if deps.neo4jDriver != nil {
		store := glossary.NewStore(deps.neo4jDriver)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure glossary schema: %w", err)
		}
		terms = store
	}

	var (
		vectorStore     *rag.VectorStore
		embeddingClient *rag.EmbeddingClient
	)
	if cfg.HasEmbeddings() && deps.pgPool != nil {
		embeddingClient = rag.NewEmbeddingClient(cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.EmbeddingBaseURL, cfg.EmbeddingDimensions)
		vectorStore = rag.NewVectorStore(deps.pgPool)
		if err := vectorStore.EnsureSchema(ctx, embeddingClient.Dimensions()); err != nil {
			return nil, fmt.Errorf("ensure translation memory schema: %w", err)
		}
	}

	if terms == nil && vectorStore == nil {
		return nil, nil
	}
	return rag.NewRetriever(vectorStore, embeddingClient, terms), nil
}

func buildTranslator(cfg *config.Config, provider string, retriever *rag.Retriever) (translation.Translator, error) {
	switch strings.ToLower(provider) {
	case "gemini", "":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("provider gemini needs GEMINI_API_KEY")
		}
		client := translation.NewGeminiClient(cfg.GeminiAPIKey, cfg.TranslationModel)
		if retriever != nil {
			client = client.WithReferences(retriever)
		}
		return client, nil
	case "google":
		return translation.NewGoogleClient(), nil
	case "deepl":
		if cfg.DeepLAPIKey == "" {
			return nil, fmt.Errorf("provider deepl needs DEEPL_API_KEY")
		}
		return translation.NewDeepLClient(cfg.DeepLAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q, want gemini, google or deepl", provider)
	}
}

func adapterOptions(cfg *config.Config, flags translationFlags) (translation.Options, error) {
	opts := translation.Options{
		Concurrency:     firstPositive(flags.concurrency, cfg.MaxConcurrentAPICalls),
		TokenBudget:     firstPositive(flags.tokenBudget, cfg.TokenBudget),
		MaxBatchEntries: firstPositive(flags.maxBatchEntries, cfg.MaxBatchEntries),
		Retry: translation.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Jitter:      cfg.RetryJitter,
		},
		RequestsPerSecond: cfg.RequestsPerSecond,
		OnlyMissing:       flags.onlyMissing,
		OnProgress: func(done, total int) {
			log.Info().Int("done", done).Int("total", total).Msg("Batch finished")
		},
	}

	switch strings.ToLower(flags.fallback) {
	case "omit", "":
		opts.Fallback = translation.Omit
	case "copy", "copy-source":
		opts.Fallback = translation.CopySource
	default:
		return opts, fmt.Errorf("unknown fallback %q, want omit or copy", flags.fallback)
	}
	return opts, nil
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
