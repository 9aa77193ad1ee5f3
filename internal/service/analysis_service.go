package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/Gusta765/RUPTURAS/internal/analyzer"
	"github.com/Gusta765/RUPTURAS/internal/cache"
	"github.com/Gusta765/RUPTURAS/internal/domain"
	"github.com/Gusta765/RUPTURAS/internal/export"
)

// AnalysisService runs the ruptura analyzer behind a memoizing cache and
// exposes the read-only projections the presentation layer consumes.
type AnalysisService struct {
	cache cache.AnalysisCache
}

func NewAnalysisService(cacheImpl cache.AnalysisCache) *AnalysisService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopAnalysisCache()
	}
	return &AnalysisService{cache: cacheImpl}
}

// Run analyzes the given tables, reusing a cached result when the exact same
// inputs were analyzed before. Cache failures are logged and never fail the
// run; the analyzer is the source of truth.
func (s *AnalysisService) Run(ctx context.Context, tables domain.InputTables, windowDays int) ([]domain.FlaggedProduct, error) {
	key := cache.ResultKey(tables, windowDays)

	if rows, ok, err := s.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("analysis cache read failed, recomputing")
	} else if ok {
		log.Debug().Str("key", key).Int("rows", len(rows)).Msg("analysis cache hit")
		return rows, nil
	}

	rows, err := analyzer.Analyze(tables, windowDays)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, rows); err != nil {
		log.Warn().Err(err).Msg("failed to store analysis result in cache")
	}

	return rows, nil
}

// Summarize computes the executive panel numbers over a flagged table.
// Money totals are accumulated as decimals to keep cents exact.
func Summarize(rows []domain.FlaggedProduct) domain.AnalysisSummary {
	summary := domain.AnalysisSummary{FlaggedProducts: len(rows)}

	total := decimal.Zero
	for _, r := range rows {
		summary.TotalLostUnits += r.LostUnits
		if v, ok := r.LostOpportunityValue.Float64(); ok {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}

	summary.TotalLostValue = total.InexactFloat64()
	if len(rows) > 0 {
		summary.AverageLossPerItem = total.Div(decimal.NewFromInt(int64(len(rows)))).InexactFloat64()
	}
	return summary
}

// ApplyFilter narrows a flagged table for display. Ordering is preserved.
func ApplyFilter(rows []domain.FlaggedProduct, filter domain.ResultFilter) []domain.FlaggedProduct {
	out := make([]domain.FlaggedProduct, 0, len(rows))
	for _, r := range rows {
		if v, ok := r.LostOpportunityValue.Float64(); ok && v < filter.MinOpportunityValue {
			continue
		}
		if filter.MaxDaysWithoutSale > 0 {
			if d, ok := r.DaysSinceLastSale.Float64(); ok && d > filter.MaxDaysWithoutSale {
				continue
			}
		}
		if r.StockQuantity < filter.MinStock {
			continue
		}
		out = append(out, r)
	}
	return out
}

// TopOpportunities returns the first n rows of the ranked table, the data
// behind the ranked-bar view.
func TopOpportunities(rows []domain.FlaggedProduct, n int) []domain.FlaggedProduct {
	if n <= 0 || n >= len(rows) {
		return rows
	}
	return rows[:n]
}

// WriteExportFile serializes the flagged table under outputDir with a
// generation-timestamped filename and returns the full path.
func (s *AnalysisService) WriteExportFile(outputDir string, rows []domain.FlaggedProduct, now time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, domain.ExportFilename(now))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := export.WriteCSV(f, rows); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
