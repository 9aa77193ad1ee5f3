package service

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Gusta765/RUPTURAS/internal/cache"
	"github.com/Gusta765/RUPTURAS/internal/domain"
	"github.com/Gusta765/RUPTURAS/internal/nullable"
)

// countingCache wraps a real cache and counts stores, so tests can observe
// whether a run recomputed or reused.
type countingCache struct {
	inner cache.AnalysisCache
	sets  int
}

func (c *countingCache) Get(ctx context.Context, key string) ([]domain.FlaggedProduct, bool, error) {
	return c.inner.Get(ctx, key)
}

func (c *countingCache) Set(ctx context.Context, key string, rows []domain.FlaggedProduct) error {
	c.sets++
	return c.inner.Set(ctx, key, rows)
}

func (c *countingCache) Invalidate(ctx context.Context, key string) error {
	return c.inner.Invalidate(ctx, key)
}

func (c *countingCache) InvalidateAll(ctx context.Context) error {
	return c.inner.InvalidateAll(ctx)
}

func fixtureTables() domain.InputTables {
	return domain.InputTables{
		Inventory: []domain.InventoryRecord{
			{ProductID: "P1", StockQuantity: 50},
			{ProductID: "ANCHOR", StockQuantity: 0},
		},
		Sales: []domain.SaleHeader{
			{SaleID: "1", Timestamp: "2024-03-13 12:00:00,000"},
			{SaleID: "9", Timestamp: "2024-03-21 12:00:00,000"},
		},
		LineItems: []domain.SaleLineItem{
			{ProductID: "P1", SaleID: "1", Quantity: 5, UnitPrice: "10,00"},
			{ProductID: "ANCHOR", SaleID: "9", Quantity: 1, UnitPrice: "1,00"},
		},
	}
}

func TestRunComputesAndMemoizes(t *testing.T) {
	ctx := context.Background()
	counting := &countingCache{inner: cache.NewMemoryAnalysisCache()}
	svc := NewAnalysisService(counting)

	first, err := svc.Run(ctx, fixtureTables(), 10)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first) != 1 || first[0].ProductID != "P1" {
		t.Fatalf("unexpected result: %+v", first)
	}
	if counting.sets != 1 {
		t.Fatalf("first run should store once, stored %d times", counting.sets)
	}

	second, err := svc.Run(ctx, fixtureTables(), 10)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if counting.sets != 1 {
		t.Fatalf("identical inputs should hit the cache, stored %d times", counting.sets)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached result differs:\nfirst:  %+v\nsecond: %+v", first, second)
	}

	// A different window is a different key and recomputes.
	if _, err := svc.Run(ctx, fixtureTables(), 11); err != nil {
		t.Fatalf("third run: %v", err)
	}
	if counting.sets != 2 {
		t.Fatalf("window change should recompute, stored %d times", counting.sets)
	}
}

func TestRunSurfacesAnalyzerError(t *testing.T) {
	svc := NewAnalysisService(nil)
	if _, err := svc.Run(context.Background(), fixtureTables(), 0); err == nil {
		t.Fatal("invalid window should error")
	}
}

func flaggedRow(id string, lostUnits int, value float64, days float64, stock int) domain.FlaggedProduct {
	return domain.FlaggedProduct{
		ProductID:            id,
		LostUnits:            lostUnits,
		LostOpportunityValue: nullable.FloatFrom(value),
		DaysSinceLastSale:    nullable.FloatFrom(days),
		StockQuantity:        stock,
		RecommendedAction:    domain.RecommendedAction,
	}
}

func TestSummarize(t *testing.T) {
	rows := []domain.FlaggedProduct{
		flaggedRow("A", 3, 30.10, 8, 50),
		flaggedRow("B", 1, 7.55, 16, 12),
	}

	got := Summarize(rows)
	if got.FlaggedProducts != 2 {
		t.Errorf("flagged products = %d", got.FlaggedProducts)
	}
	if got.TotalLostUnits != 4 {
		t.Errorf("total lost units = %d", got.TotalLostUnits)
	}
	if got.TotalLostValue != 37.65 {
		t.Errorf("total lost value = %v", got.TotalLostValue)
	}
	if got.AverageLossPerItem != 18.825 {
		t.Errorf("average loss = %v", got.AverageLossPerItem)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	got := Summarize(nil)
	if got.FlaggedProducts != 0 || got.TotalLostUnits != 0 || got.TotalLostValue != 0 || got.AverageLossPerItem != 0 {
		t.Fatalf("empty summary should be all zero: %+v", got)
	}
}

func TestApplyFilter(t *testing.T) {
	rows := []domain.FlaggedProduct{
		flaggedRow("A", 3, 300, 8, 50),
		flaggedRow("B", 1, 20, 60, 12),
		flaggedRow("C", 2, 90, 15, 2),
	}

	cases := []struct {
		name   string
		filter domain.ResultFilter
		want   []string
	}{
		{"no filter keeps all", domain.ResultFilter{}, []string{"A", "B", "C"}},
		{"min value", domain.ResultFilter{MinOpportunityValue: 50}, []string{"A", "C"}},
		{"max days", domain.ResultFilter{MaxDaysWithoutSale: 20}, []string{"A", "C"}},
		{"min stock", domain.ResultFilter{MinStock: 10}, []string{"A", "B"}},
		{"combined", domain.ResultFilter{MinOpportunityValue: 50, MaxDaysWithoutSale: 20, MinStock: 10}, []string{"A"}},
	}

	for _, tc := range cases {
		got := ApplyFilter(rows, tc.filter)
		ids := make([]string, len(got))
		for i, r := range got {
			ids[i] = r.ProductID
		}
		if !reflect.DeepEqual(ids, tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, ids, tc.want)
		}
	}
}

func TestTopOpportunities(t *testing.T) {
	rows := []domain.FlaggedProduct{
		flaggedRow("A", 3, 300, 8, 50),
		flaggedRow("B", 1, 20, 60, 12),
		flaggedRow("C", 2, 90, 15, 2),
	}

	if got := TopOpportunities(rows, 2); len(got) != 2 || got[0].ProductID != "A" {
		t.Fatalf("top 2 = %+v", got)
	}
	if got := TopOpportunities(rows, 0); len(got) != 3 {
		t.Fatalf("n<=0 should keep all rows, got %d", len(got))
	}
	if got := TopOpportunities(rows, 10); len(got) != 3 {
		t.Fatalf("n beyond length should keep all rows, got %d", len(got))
	}
}

func TestWriteExportFile(t *testing.T) {
	svc := NewAnalysisService(nil)
	dir := t.TempDir()
	now := time.Date(2024, 3, 21, 9, 5, 7, 0, time.UTC)

	path, err := svc.WriteExportFile(dir, []domain.FlaggedProduct{flaggedRow("A", 3, 30, 8, 50)}, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "ruptura_estoque_20240321_090507.csv" {
		t.Fatalf("unexpected filename: %s", path)
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	content := string(payload)
	if !strings.HasPrefix(content, "product_id,") {
		t.Fatalf("missing header: %s", content)
	}
	if !strings.Contains(content, "\nA,") {
		t.Fatalf("missing row: %s", content)
	}
}
