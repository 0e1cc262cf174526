package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"savemymoney/internal/app"
	"savemymoney/internal/config"
	"savemymoney/internal/domain"
	"savemymoney/internal/port"
)

// fileResult is one line of the CLI output.
type fileResult struct {
	File          string                   `json:"file"`
	VisionOutcome string                   `json:"vision_outcome,omitempty"`
	OCRConfidence float64                  `json:"ocr_confidence,omitempty"`
	DurationMS    int64                    `json:"duration_ms,omitempty"`
	Result        *domain.ExtractionResult `json:"result,omitempty"`
	Error         string                   `json:"error,omitempty"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: extract <file-or-dir> [file-or-dir ...]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetFlags(cfg.Log.Flags())

	files, err := collectFiles(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to collect receipts: %v", err)
	}
	if len(files) == 0 {
		log.Fatal("No receipt images found")
	}

	svc, err := app.NewExtractionService(cfg)
	if err != nil {
		log.Fatalf("Failed to build extraction pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	concurrency := cfg.Extraction.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	log.Printf("Extracting %d receipt(s) with concurrency %d", len(files), concurrency)

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, path := range files {
		g.Go(func() error {
			results[i] = extractFile(gctx, svc, path, cfg.Extraction.RequestTimeout())
			// Per-file failures are reported in the output, only cancellation stops the batch.
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("Batch interrupted: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for i := range results {
		if results[i].File == "" {
			continue
		}
		if results[i].Error != "" {
			failed++
		}
		if err := enc.Encode(results[i]); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
	}

	log.Printf("Done: %d extracted, %d failed", len(files)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func extractFile(ctx context.Context, svc port.ReceiptExtractor, path string, timeout time.Duration) fileResult {
	out := fileResult{File: path}
	data, err := os.ReadFile(path)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, err := svc.ExtractWithReport(ctx, data)
	if err != nil {
		log.Printf("extract: %s failed: %v", path, err)
		out.Error = err.Error()
		return out
	}
	out.Result = report.Result
	out.VisionOutcome = report.VisionOutcome
	out.OCRConfidence = report.OCRConfidence
	out.DurationMS = report.Duration.Milliseconds()
	log.Printf("extract: %s -> %d items, method=%s, confidence=%s",
		path, len(report.Result.Items), report.Result.Method, report.Result.Confidence)
	return out
}

func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			if _, ok := domain.AllowedExtensions[ext]; ok {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
