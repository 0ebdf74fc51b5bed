package main

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openrx/rxlink/internal/config"
	"github.com/openrx/rxlink/internal/fetcher"
	"github.com/openrx/rxlink/internal/ingest"
	"github.com/openrx/rxlink/internal/linker"
	"github.com/openrx/rxlink/internal/model"
	"github.com/openrx/rxlink/internal/publish"
	"github.com/openrx/rxlink/internal/runlog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full linkage pipeline",
	Long: `Acquires the pricing and NDC directory sources, builds the reference
index, links every pricing row, and publishes the chunked output artifacts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "run"))

		applyRunFlags(cmd)

		rl, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		runID, err := rl.Start(ctx)
		if err != nil {
			return err
		}
		log.Info("run started", zap.String("run_id", runID))

		start := time.Now()
		stats, err := executeRun(ctx, rl)
		if err != nil {
			if logErr := rl.Fail(ctx, runID, err.Error()); logErr != nil {
				log.Error("failed to record run failure", zap.Error(logErr))
			}
			return err
		}

		if err := rl.Complete(ctx, runID, int64(stats.Prices), int64(stats.Matched)); err != nil {
			log.Error("failed to record run completion", zap.Error(err))
		}

		log.Info("run complete",
			zap.String("run_id", runID),
			zap.Int("prices", stats.Prices),
			zap.Int("matched", stats.Matched),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	runCmd.Flags().String("pricing-file", "", "local pricing CSV/XLSX file (skips download)")
	runCmd.Flags().String("directory-file", "", "local NDC directory product file or zip (skips download)")
	runCmd.Flags().String("out", "", "output directory (overrides config)")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags folds command-line overrides into the loaded config.
func applyRunFlags(cmd *cobra.Command) {
	if f, _ := cmd.Flags().GetString("pricing-file"); f != "" {
		cfg.Sources.Pricing.File = f
	}
	if f, _ := cmd.Flags().GetString("directory-file"); f != "" {
		cfg.Sources.Directory.File = f
	}
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		cfg.Output.Dir = out
	}
}

// executeRun drives the pipeline: acquire, ingest, index, link, publish.
// The reference index is fully built before linkage begins.
func executeRun(ctx context.Context, rl *runlog.Log) (linker.Stats, error) {
	log := zap.L().With(zap.String("component", "pipeline"))

	tempDir := cfg.Fetch.TempDir
	if tempDir == "" {
		dir, err := os.MkdirTemp("", "rxlink-")
		if err != nil {
			return linker.Stats{}, eris.Wrap(err, "run: create temp dir")
		}
		defer os.RemoveAll(dir) //nolint:errcheck
		tempDir = dir
	} else if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return linker.Stats{}, eris.Wrap(err, "run: create temp dir")
	}

	refs, err := loadDirectory(ctx, rl, tempDir)
	if err != nil {
		return linker.Stats{}, err
	}

	prices, err := loadPricing(ctx, rl, tempDir)
	if err != nil {
		return linker.Stats{}, err
	}

	idx := linker.BuildIndex(refs, cfg.Linker.ZeroStripFloor)
	log.Info("reference index built",
		zap.Int("entries", len(refs)),
		zap.Int("postings", idx.Size()),
	)

	lk := linker.New(idx, linker.Options{
		ZeroStripFloor: cfg.Linker.ZeroStripFloor,
		MinTokenLen:    cfg.Linker.MinTokenLen,
		Workers:        cfg.Linker.Workers,
	})
	records, stats, err := lk.Link(ctx, prices)
	if err != nil {
		return stats, err
	}

	pub := publish.New(cfg.Output.Dir, cfg.Output.ChunkSize)
	if _, err := pub.Publish(records); err != nil {
		return stats, err
	}

	return stats, nil
}

// loadDirectory acquires and parses the NDC directory into reference entries.
func loadDirectory(ctx context.Context, rl *runlog.Log, tempDir string) ([]model.ReferenceEntry, error) {
	path, err := acquireSource(ctx, rl, "directory", cfg.Sources.Directory, tempDir)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".zip") {
		extracted, err := fetcher.ExtractZIPFile(path, "product.txt", tempDir)
		if err != nil {
			return nil, err
		}
		path = extracted
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "run: open directory file")
	}
	defer f.Close() //nolint:errcheck

	refs, _, err := ingest.ParseDirectoryTSV(ctx, f)
	return refs, err
}

// loadPricing acquires and parses the pricing dataset.
func loadPricing(ctx context.Context, rl *runlog.Log, tempDir string) ([]model.PriceEntry, error) {
	path, err := acquireSource(ctx, rl, "pricing", cfg.Sources.Pricing, tempDir)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		prices, _, err := ingest.ParsePricingXLSX(path, cfg.Sources.Pricing.Sheet)
		return prices, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "run: open pricing file")
	}
	defer f.Close() //nolint:errcheck

	prices, _, err := ingest.ParsePricingCSV(ctx, f)
	return prices, err
}

// acquireSource resolves a source to a local file path: a configured local
// file as-is, otherwise a download into tempDir. HTTP downloads are
// ETag-conditional against the run log, so an unchanged source with an
// intact cached copy is not re-fetched.
func acquireSource(ctx context.Context, rl *runlog.Log, name string, src config.SourceConfig, tempDir string) (string, error) {
	if src.File != "" {
		return src.File, nil
	}
	if src.URL == "" {
		return "", eris.Errorf("run: source %s has neither file nor url", name)
	}

	u, err := url.Parse(src.URL)
	if err != nil {
		return "", eris.Wrapf(err, "run: parse %s url", name)
	}

	dest := filepath.Join(tempDir, name+filepath.Ext(u.Path))
	log := zap.L().With(zap.String("source", name), zap.String("url", src.URL))

	if u.Scheme == "ftp" {
		ff := fetcher.NewFTPFetcher(fetcher.FTPOptions{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		})
		log.Info("downloading source over ftp")
		if _, err := ff.DownloadToFile(ctx, src.URL, dest); err != nil {
			return "", err
		}
		return dest, nil
	}

	hf := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})

	etag := ""
	if fileExists(dest) {
		etag, _ = rl.LastETag(ctx, name)
	}

	body, newETag, changed, err := hf.DownloadIfChanged(ctx, src.URL, etag)
	if err != nil {
		return "", err
	}
	if !changed {
		log.Info("source unchanged, reusing cached copy", zap.String("path", dest))
		return dest, nil
	}
	defer body.Close() //nolint:errcheck

	log.Info("downloading source")
	out, err := os.Create(dest)
	if err != nil {
		return "", eris.Wrapf(err, "run: create %s download", name)
	}
	defer out.Close() //nolint:errcheck

	if _, err := out.ReadFrom(body); err != nil {
		return "", eris.Wrapf(err, "run: write %s download", name)
	}

	if err := rl.SetETag(ctx, name, newETag); err != nil {
		zap.L().Warn("failed to record source etag", zap.String("source", name), zap.Error(err))
	}

	return dest, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
