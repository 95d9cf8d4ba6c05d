package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"quest-localizer/internal/cache"
	"quest-localizer/internal/config"
	"quest-localizer/internal/filewalker"
	"quest-localizer/internal/glossary"
	"quest-localizer/internal/locale"
	"quest-localizer/internal/localize"
	"quest-localizer/internal/seed"
	"quest-localizer/internal/translation"
)

// convertFlags are shared by the ftbq and bqm commands.
type convertFlags struct {
	modpack     string
	sourceLang  string
	targetLang  string
	noTranslate bool
	existing    string
	dialect     string
	outDir      string
	translation translationFlags
}

func (f *convertFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.modpack, "modpack", "", "Modpack name used as key namespace (at most 32 characters)")
	cmd.Flags().StringVar(&f.sourceLang, "source", "en_us", "Language of the quest text")
	cmd.Flags().StringVar(&f.targetLang, "target", "", "Language to translate into; no translation without it")
	cmd.Flags().BoolVar(&f.noTranslate, "no-translate", false, "Only convert, even when --target is set")
	cmd.Flags().StringVar(&f.existing, "existing", "", "Dictionary whose entries seed the source dictionary")
	cmd.Flags().StringVar(&f.dialect, "dialect", "backslash-n", ".lang newline dialect: backslash-n or percent-n")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "output", "Output directory")
	f.translation.register(cmd)
}

func (f *convertFlags) translate() bool {
	return f.targetLang != "" && !f.noTranslate
}

func ftbqCmd() *cobra.Command {
	var (
		flags      convertFlags
		dictFormat string
		inline     bool
	)
	cmd := &cobra.Command{
		Use:   "ftbq <file-or-dir>...",
		Short: "Convert FTB Quests chapters to key references and a language dictionary",
		Long: `Walks the given .snbt files and directories (the lang/ folder is skipped),
moves every title, subtitle and description into a dictionary and writes
quests.zip, <source>.json, template_lang.json and, with --target, the
translated dictionary into the output directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readUploads(args)
			if err != nil {
				return err
			}
			req := localize.Request{
				Format:      localize.FTBQuests,
				Files:       files,
				DictFormat:  localize.DictFormat(dictFormat),
				Inline:      inline,
				LangDialect: flags.dialect,
			}
			return runConvert(cmd, req, flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&dictFormat, "dict-format", "json", "Dictionary format: json or snbt")
	cmd.Flags().BoolVar(&inline, "inline", false, "Also write quests_inline.zip with the text put back in place")
	return cmd
}

func bqmCmd() *cobra.Command {
	var flags convertFlags
	cmd := &cobra.Command{
		Use:   "bqm <DefaultQuests.json>",
		Short: "Convert a Better Questing quest database to key references and a .lang file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readUploads(args)
			if err != nil {
				return err
			}
			req := localize.Request{
				Format:      localize.BetterQuesting,
				Files:       files,
				LangDialect: flags.dialect,
			}
			return runConvert(cmd, req, flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func runConvert(cmd *cobra.Command, req localize.Request, flags convertFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	req.Modpack = flags.modpack
	req.SourceLang = flags.sourceLang
	req.TargetLang = flags.targetLang
	req.Translate = flags.translate()
	if flags.existing != "" {
		existing, err := readUpload(flags.existing)
		if err != nil {
			return err
		}
		req.Existing = &existing
	}

	localizer := localize.New(nil)
	if req.Translate {
		// Reject bad requests before connecting to anything.
		if err := req.Validate(); err != nil {
			return err
		}
		svc, err := buildServices(ctx, config.Load(), flags.translation, req.TargetLang)
		if err != nil {
			return err
		}
		defer svc.deps.Close(ctx)
		localizer = localize.New(svc.adapter)
	}

	run, err := localizer.Localize(ctx, req)
	if err != nil {
		return err
	}
	return finish(cmd, run, flags.outDir)
}

func translateCmd() *cobra.Command {
	var (
		flags      translationFlags
		sourceLang string
		targetLang string
		existing   string
		dialect    string
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "translate <dictionary>",
		Short: "Translate an existing .json, .lang or .snbt dictionary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			dictionary, err := readUpload(args[0])
			if err != nil {
				return err
			}
			req := localize.TranslateRequest{
				Dictionary:  dictionary,
				SourceLang:  sourceLang,
				TargetLang:  targetLang,
				LangDialect: dialect,
			}
			if existing != "" {
				u, err := readUpload(existing)
				if err != nil {
					return err
				}
				req.Existing = &u
			}

			svc, err := buildServices(ctx, config.Load(), flags, targetLang)
			if err != nil {
				return err
			}
			defer svc.deps.Close(ctx)

			run, err := localize.New(svc.adapter).TranslateDictionary(ctx, req)
			if err != nil {
				return err
			}
			return finish(cmd, run, outDir)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&flags.onlyMissing, "only-missing", false, "Keep keys the --existing dictionary already translated")
	cmd.Flags().StringVar(&sourceLang, "source", "en_us", "Language of the dictionary")
	cmd.Flags().StringVar(&targetLang, "target", "", "Language to translate into")
	cmd.Flags().StringVar(&existing, "existing", "", "Earlier target dictionary to continue from")
	cmd.Flags().StringVar(&dialect, "dialect", "backslash-n", ".lang newline dialect: backslash-n or percent-n")
	cmd.Flags().StringVarP(&outDir, "out", "o", "output", "Output directory")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func fixCmd() *cobra.Command {
	var (
		flags      translationFlags
		keys       []string
		targetLang string
		dialect    string
		outDir     string
	)
	cmd := &cobra.Command{
		Use:   "fix <source-dictionary> <target-dictionary>",
		Short: "Retranslate chosen keys of a translated dictionary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			source, err := readUpload(args[0])
			if err != nil {
				return err
			}
			target, err := readUpload(args[1])
			if err != nil {
				return err
			}

			svc, err := buildServices(ctx, config.Load(), flags, targetLang)
			if err != nil {
				return err
			}
			defer svc.deps.Close(ctx)

			run, err := localize.New(svc.adapter).Fix(ctx, localize.FixRequest{
				Source:      source,
				Target:      target,
				Keys:        keys,
				TargetLang:  targetLang,
				LangDialect: dialect,
			})
			if err != nil {
				return err
			}
			return finish(cmd, run, outDir)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "Keys to retranslate, comma separated")
	cmd.Flags().StringVar(&targetLang, "target", "", "Language of the target dictionary")
	cmd.Flags().StringVar(&dialect, "dialect", "backslash-n", ".lang newline dialect: backslash-n or percent-n")
	cmd.Flags().StringVarP(&outDir, "out", "o", "output", "Output directory")
	_ = cmd.MarkFlagRequired("keys")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the Minecraft languages and whether they can be machine translated",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tNAME\tGOOGLE\tDEEPL")
			for _, l := range locale.All() {
				deepl, err := l.DeepL()
				if err != nil {
					deepl = ""
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Code, l.DisplayName(), orDash(l.Google), orDash(deepl))
			}
			return tw.Flush()
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the terminology glossary",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <terms.json>",
		Short: "Import glossary terms and their relationships into Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read glossary: %w", err)
			}
			file, err := glossary.ParseFile(data)
			if err != nil {
				return err
			}

			cfg := config.Load()
			if !cfg.HasGlossary() {
				return fmt.Errorf("glossary import needs NEO4J_URI")
			}
			deps, err := initDependencies(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			store := glossary.NewStore(deps.neo4jDriver)
			if err := store.EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure glossary schema: %w", err)
			}
			if err := store.Import(ctx, file); err != nil {
				return err
			}

			log.Info().
				Str("lang", file.Lang).
				Int("terms", len(file.Terms)).
				Int("relationships", len(file.Relationships)).
				Msg("Glossary imported")
			return nil
		},
	})
	return cmd
}

func memoryCmd() *cobra.Command {
	var (
		targetLang string
		dialect    string
		export     string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Manage the translation cache and translation memory",
	}
	importCmd := &cobra.Command{
		Use:   "import <source-dictionary> <target-dictionary>",
		Short: "Store the translations of an already localized modpack for reuse",
		Long: `Aligns a source and a translated dictionary line by line and stores the
pairs in the translation cache and, when embeddings are configured, in the
translation memory that feeds similar past translations into prompts.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := setupContext()
			defer cancel()

			target, err := locale.Parse(targetLang)
			if err != nil {
				return err
			}
			d := dialectOrDefault(dialect)
			sourceUpload, err := readUpload(args[0])
			if err != nil {
				return err
			}
			targetUpload, err := readUpload(args[1])
			if err != nil {
				return err
			}
			source, _, err := localize.LoadDictionary(sourceUpload, d)
			if err != nil {
				return err
			}
			translated, _, err := localize.LoadDictionary(targetUpload, d)
			if err != nil {
				return err
			}
			entries := seed.Pairs(source, translated, target)

			cfg := config.Load()
			deps, err := initDependencies(ctx, cfg)
			if err != nil {
				return err
			}
			defer deps.Close(ctx)

			var (
				batchCache seed.BatchCache
				memory     translation.Memory
			)
			if deps.pgPool != nil {
				translationCache := cache.NewTranslationCache(deps.pgPool)
				if err := translationCache.EnsureSchema(ctx); err != nil {
					return err
				}
				batchCache = translationCache
			} else {
				log.Warn().Msg("DATABASE_URL is not set, translations are only exported")
			}
			retriever, err := buildRetriever(ctx, cfg, deps)
			if err != nil {
				return err
			}
			if retriever != nil {
				memory = retriever
			}

			if err := seed.NewSeeder(batchCache, memory).Ingest(ctx, target, entries); err != nil {
				return err
			}
			if export != "" {
				return exportSeed(export, output, entries)
			}
			return nil
		},
	}
	importCmd.Flags().StringVar(&targetLang, "target", "", "Language of the target dictionary")
	importCmd.Flags().StringVar(&dialect, "dialect", "backslash-n", ".lang newline dialect: backslash-n or percent-n")
	importCmd.Flags().StringVar(&export, "export", "", "Also export the aligned pairs: tsv or json")
	importCmd.Flags().StringVar(&output, "output", "seed_corpus", "Export path without extension")
	_ = importCmd.MarkFlagRequired("target")
	cmd.AddCommand(importCmd)
	return cmd
}

func exportSeed(format, path string, entries []seed.SeedEntry) error {
	var write func(f *os.File) error
	switch format {
	case "json":
		path += ".json"
		write = func(f *os.File) error { return seed.ExportJSON(f, entries) }
	case "tsv":
		path += ".tsv"
		write = func(f *os.File) error { return seed.ExportTSV(f, entries) }
	default:
		return fmt.Errorf("unknown export format %q, want tsv or json", format)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}

	log.Info().Str("path", path).Int("entries", len(entries)).Msg("Exported seed corpus")
	return nil
}

// readUploads loads every quest file found under paths. Names are relative to
// the directory argument they were found in.
func readUploads(paths []string) ([]localize.Upload, error) {
	w := filewalker.NewWalker()
	entries, err := w.Collect(paths)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no quest files found in %v", paths)
	}

	uploads := make([]localize.Upload, 0, len(entries))
	for _, e := range entries {
		data, err := w.ReadFile(e)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, localize.Upload{Name: e.Rel, Data: data})
	}
	return uploads, nil
}

func readUpload(path string) (localize.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return localize.Upload{}, fmt.Errorf("read %s: %w", path, err)
	}
	return localize.Upload{Name: filepath.Base(path), Data: data}, nil
}
