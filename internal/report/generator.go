package report

import (
	"context"
	"fmt"

	"filereport/internal/scan"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// batchSize bounds how many built rows are held before being written.
const batchSize = 512

// Generator drives a report: walk each acronym, build rows with a bounded
// pool, and hand them to the writers in walk order.
type Generator struct {
	Scanner *scan.Scanner
	Builder *Builder
	Writers []RowWriter
	Workers int
	Logger  *zap.Logger
}

// Generate processes acronyms in order. Missing acronym directories and
// per-file failures are logged and skipped; only cancellation and writer
// failures abort the run.
func (g *Generator) Generate(ctx context.Context, acronyms []string) (*Summary, error) {
	logger := g.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sum := NewSummary()

	for _, acron := range acronyms {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		if !g.Scanner.Exists(acron) {
			logger.Warn("acronym directory not found", zap.String("acron", acron))
			sum.Missing = append(sum.Missing, acron)
			continue
		}

		logger.Info("processing acronym", zap.String("acron", acron))
		sum.Acronyms++

		files, err := g.Scanner.Files(ctx, acron)
		if err != nil {
			return sum, fmt.Errorf("failed to scan %s: %w", acron, err)
		}

		for start := 0; start < len(files); start += batchSize {
			end := start + batchSize
			if end > len(files) {
				end = len(files)
			}
			results, err := g.buildBatch(ctx, logger, acron, files[start:end])
			if err != nil {
				return sum, err
			}
			for _, res := range results {
				if res == nil {
					sum.Skipped++
					continue
				}
				if err := g.write(res.Row); err != nil {
					return sum, err
				}
				sum.add(res)
			}
		}
	}

	return sum, nil
}

// buildBatch builds rows concurrently. The returned slice is index-aligned
// with files; nil marks a skipped file.
func (g *Generator) buildBatch(ctx context.Context, logger *zap.Logger, acron string, files []string) ([]*Result, error) {
	results := make([]*Result, len(files))

	workers := g.Workers
	if workers < 1 {
		workers = 1
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, rel := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := g.Builder.Build(acron, rel)
			if err != nil {
				logger.Warn("failed to process file", zap.String("path", rel), zap.Error(err))
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (g *Generator) write(row Row) error {
	for _, w := range g.Writers {
		if err := w.WriteRow(row); err != nil {
			return err
		}
	}
	return nil
}
