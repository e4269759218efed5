package cli

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pku-software/docman-homework-judge-action/internal/build"
	"github.com/pku-software/docman-homework-judge-action/internal/cache"
	"github.com/pku-software/docman-homework-judge-action/internal/corpus"
	"github.com/pku-software/docman-homework-judge-action/internal/judge"
	"github.com/pku-software/docman-homework-judge-action/internal/logging"
	"github.com/pku-software/docman-homework-judge-action/internal/metadata"
	"github.com/pku-software/docman-homework-judge-action/internal/model"
	"github.com/pku-software/docman-homework-judge-action/internal/oracle"
	"github.com/pku-software/docman-homework-judge-action/internal/report"
	"github.com/pku-software/docman-homework-judge-action/internal/runner"
	"github.com/pku-software/docman-homework-judge-action/internal/worker"
)

var (
	batchFile   string
	logPath     string
	keepScratch bool
)

// judgeCmd represents the judge command
var judgeCmd = &cobra.Command{
	Use:   "judge [workspace...]",
	Short: "Build docman workspaces and judge them against the corpus",
	Long: `Judge builds each workspace with CMake and runs the resulting docman
against the builtin fixtures plus a freshly generated random corpus:
- four invocation shapes (file/stdin in, file/stdout out) per fixture
- missing input and citation paths
- malformed argument vectors

With no workspace the current directory is judged.

Example:
  docjudge judge
  docjudge judge ./alice ./bob --seed 42
  docjudge judge --batch workspaces.txt --log results.json`,
	RunE: runJudge,
}

func init() {
	rootCmd.AddCommand(judgeCmd)

	judgeCmd.Flags().StringVar(&batchFile, "batch", "", "file listing workspaces, one per line")
	judgeCmd.Flags().StringVar(&logPath, "log", "", "append JSON results to this file instead of printing")
	judgeCmd.Flags().BoolVar(&keepScratch, "keep-scratch", false, "keep the generated corpus and outputs")

	judgeCmd.Flags().String("input-dir", "", "article fixtures (default: builtin)")
	judgeCmd.Flags().String("citation-dir", "", "citation fixtures (default: builtin)")
	judgeCmd.Flags().Uint64("seed", 0, "corpus seed (0 draws a fresh one)")
	judgeCmd.Flags().Int("generate", 3, "random base fixtures to generate")
	judgeCmd.Flags().Duration("timeout", 0, "per-case timeout")
	judgeCmd.Flags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag("corpus.input_dir", judgeCmd.Flags().Lookup("input-dir"))
	_ = viper.BindPFlag("corpus.citation_dir", judgeCmd.Flags().Lookup("citation-dir"))
	_ = viper.BindPFlag("judge.seed", judgeCmd.Flags().Lookup("seed"))
	_ = viper.BindPFlag("judge.generate", judgeCmd.Flags().Lookup("generate"))
	_ = viper.BindPFlag("judge.timeout", judgeCmd.Flags().Lookup("timeout"))
	_ = viper.BindPFlag("report.no_color", judgeCmd.Flags().Lookup("no-color"))
}

func runJudge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New("cli")

	workspaces, err := collectWorkspaces(args, batchFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	scratch, err := os.MkdirTemp("", "docjudge-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	if keepScratch {
		logger.Info("keeping scratch directory", "path", scratch)
	} else {
		defer func() { _ = os.RemoveAll(scratch) }()
	}

	seed := cfg.Judge.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	files, err := prepareCorpus(cfg.Corpus, scratch, seed, cfg.Judge.Generate)
	if err != nil {
		return err
	}
	logger.Info("corpus ready", "fixtures", len(files), "seed", seed)

	resolver, err := newResolver(cfg)
	if err != nil {
		return err
	}
	warmMetadata(ctx, cfg, resolver, files)

	builder, err := build.New(cfg.Build, runner.OSRunner{})
	if err != nil {
		return err
	}
	sink, err := report.New(cfg.Report, logPath, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	orc := oracle.New(resolver)
	j := judge.New(builder, runner.New(cfg.Judge.Timeout, cfg.Judge.WaitDelay))

	failed := false
	for i, ws := range workspaces {
		outputDir := filepath.Join(scratch, "outputs", strconv.Itoa(i))
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}

		cases, err := corpus.BuildCases(ctx, orc, files, outputDir, scratch)
		if err != nil {
			return fmt.Errorf("build cases: %w", err)
		}

		sum, runErr := j.Run(ctx, ws, cases, sink)
		if err := sink.Finalize(); err != nil {
			if !errors.Is(err, report.ErrFailed) {
				return fmt.Errorf("report %s: %w", ws, err)
			}
			failed = true
		}
		if runErr != nil {
			return fmt.Errorf("judge %s: %w", ws, runErr)
		}
		if !sum.Passed() {
			failed = true
		}
	}

	// A JSON sink only records; the exit status still reflects the verdicts
	if failed {
		return report.ErrFailed
	}
	return nil
}

// collectWorkspaces resolves positional and batch-file workspaces to
// absolute paths; none means the current directory
func collectWorkspaces(args []string, batch string) ([]string, error) {
	list := append([]string(nil), args...)
	if batch != "" {
		fromFile, err := judge.ReadWorkspaceList(batch)
		if err != nil {
			return nil, fmt.Errorf("read batch file: %w", err)
		}
		list = append(list, fromFile...)
	}
	if len(list) == 0 {
		list = []string{"."}
	}

	out := make([]string, 0, len(list))
	for _, ws := range list {
		abs, err := filepath.Abs(ws)
		if err != nil {
			return nil, fmt.Errorf("resolve workspace %s: %w", ws, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("workspace %s: %w", ws, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("workspace %s is not a directory", ws)
		}
		out = append(out, abs)
	}
	return out, nil
}

// prepareCorpus copies the configured (or builtin) fixtures into scratch,
// adds the generated ones and loads the result
func prepareCorpus(cfg model.CorpusConfig, scratch string, seed uint64, generate int) ([]corpus.FixtureFile, error) {
	inputDir := filepath.Join(scratch, "inputs")
	citationDir := filepath.Join(scratch, "citations")

	if cfg.InputDir == "" && cfg.CitationDir == "" {
		if _, _, err := corpus.Materialize(scratch); err != nil {
			return nil, fmt.Errorf("materialize builtin fixtures: %w", err)
		}
	} else {
		if cfg.InputDir == "" || cfg.CitationDir == "" {
			return nil, errors.New("corpus.input_dir and corpus.citation_dir must be set together")
		}
		if err := corpus.CopyDir(os.DirFS(cfg.InputDir), ".", inputDir); err != nil {
			return nil, fmt.Errorf("copy input fixtures: %w", err)
		}
		if err := corpus.CopyDir(os.DirFS(cfg.CitationDir), ".", citationDir); err != nil {
			return nil, fmt.Errorf("copy citation fixtures: %w", err)
		}
	}

	if generate > 0 {
		fixtures := corpus.NewGenerator(corpus.SeedOf(seed)).Generate(generate)
		if err := corpus.WriteFixtures(inputDir, citationDir, fixtures); err != nil {
			return nil, fmt.Errorf("write generated fixtures: %w", err)
		}
	}

	return corpus.LoadFixtures(inputDir, citationDir)
}

// newResolver builds the metadata resolver, cached when enabled
func newResolver(cfg *model.Config) (metadata.Resolver, error) {
	var opts []metadata.Option
	if cfg.Cache.Enabled {
		c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.Dir, cfg.Cache.DiskTTL)
		opts = append(opts, metadata.WithCache(c, cfg.Cache.DiskTTL))
	}
	return metadata.New(cfg.Metadata, opts...)
}

// warmMetadata resolves every remote citation concurrently so the
// sequential oracle mostly hits the cache. Failures surface again later as
// case verdicts.
func warmMetadata(ctx context.Context, cfg *model.Config, r metadata.Resolver, files []corpus.FixtureFile) {
	logger := logging.New("cli")
	citations := corpus.RemoteCitations(files)
	if len(citations) == 0 {
		return
	}

	workers := cfg.Metadata.PrefetchWorkers
	if workers <= 0 {
		workers = 1
	}
	results := worker.NewBatchPrefetcher(metadata.Warmer{Resolver: r}, workers).Prefetch(ctx, citations)

	failed := 0
	for _, res := range results {
		if res.Error != nil {
			failed++
			logger.Warn("metadata prefetch failed", "id", res.Citation.ID, "error", res.Error)
		}
	}
	logger.Info("metadata warmed", "lookups", len(results), "failed", failed)
}
