// Package analyzer implements the ruptura pipeline: given inventory, sale
// headers and sale line items, it flags products that still show stock but
// have been silent for longer than their recent demand predicts, and prices
// that silence as lost units and lost revenue.
package analyzer

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Gusta765/RUPTURAS/internal/domain"
	"github.com/Gusta765/RUPTURAS/internal/nullable"
)

// Window bounds accepted for the trailing demand window.
const (
	MinWindowDays = 1
	MaxWindowDays = 365
)

// Timestamp layouts accepted for the vendas "data" column. The reference
// files carry comma-separated milliseconds.
var timestampLayouts = []string{
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05",
}

// datedItem is a line item joined to its sale header. saleTime is only
// meaningful when dated is true; undated rows stay in the joined set but
// feed no date-gated aggregate.
type datedItem struct {
	productID string
	quantity  float64
	saleTime  time.Time
	dated     bool
}

// Analyze runs the full pipeline over the three input tables. Exactly one of
// the two results is populated: a ranked flagged table (possibly empty, which
// is the successful "no anomalies" outcome) or an error. Inputs are never
// mutated, so calling twice with identical inputs yields identical output.
func Analyze(tables domain.InputTables, windowDays int) (flagged []domain.FlaggedProduct, err error) {
	defer func() {
		if r := recover(); r != nil {
			flagged = nil
			err = fmt.Errorf("ruptura analysis failed: %v", r)
		}
	}()

	if windowDays < MinWindowDays || windowDays > MaxWindowDays {
		return nil, fmt.Errorf("window of %d days is outside the accepted range [%d, %d]",
			windowDays, MinWindowDays, MaxWindowDays)
	}

	joined := joinItemsToSales(tables.Sales, tables.LineItems)

	windowEnd, haveEnd := latestSaleTime(joined)

	// Demand inside the trailing window, summed per product. Products with no
	// windowed sales are filled with zero at composition time.
	unitsInWindow := make(map[string]float64)
	if haveEnd {
		windowStart := windowEnd.AddDate(0, 0, -windowDays)
		for _, it := range joined {
			if !it.dated {
				continue
			}
			if it.saleTime.Before(windowStart) || it.saleTime.After(windowEnd) {
				continue
			}
			unitsInWindow[it.productID] += it.quantity
		}
	}

	// Last sale across the whole history, not just the window.
	lastSale := make(map[string]time.Time)
	for _, it := range joined {
		if !it.dated {
			continue
		}
		if prev, ok := lastSale[it.productID]; !ok || it.saleTime.After(prev) {
			lastSale[it.productID] = it.saleTime
		}
	}

	avgPrice := averageUnitPrices(tables.LineItems)

	flagged = make([]domain.FlaggedProduct, 0)
	for _, inv := range tables.Inventory {
		rate := unitsInWindow[inv.ProductID] / float64(windowDays)

		var expected nullable.Float
		if rate > 0 {
			expected = nullable.FloatFrom(1 / rate)
		}

		var lastDate nullable.Time
		var daysSince nullable.Float
		if t, ok := lastSale[inv.ProductID]; ok {
			lastDate = nullable.TimeFrom(t)
			daysSince = nullable.FloatFrom(math.Floor(windowEnd.Sub(t).Hours() / 24))
		}

		price := avgPrice[inv.ProductID]

		excess := daysSince.Sub(expected)
		lostUnits := 0
		if v, ok := expected.Float64(); ok && v > 0 {
			if e, ok := excess.Float64(); ok && e > 0 {
				lostUnits = int(math.Floor(e / v))
			}
		}
		lostValue := price.Mul(nullable.FloatFrom(float64(lostUnits)))

		if inv.StockQuantity <= 0 {
			continue
		}
		if !daysSince.GreaterThan(expected) {
			continue
		}
		if !lostValue.Valid {
			// No parseable price ever observed for this product, so the loss
			// cannot be valued.
			continue
		}

		flagged = append(flagged, domain.FlaggedProduct{
			ProductID:            inv.ProductID,
			DailyDemandRate:      rate,
			ExpectedDaysPerSale:  expected,
			DaysSinceLastSale:    daysSince,
			LostUnits:            lostUnits,
			AverageUnitPrice:     price,
			LostOpportunityValue: lostValue,
			StockQuantity:        inv.StockQuantity,
			LastSaleDate:         lastDate,
			RecommendedAction:    domain.RecommendedAction,
		})
	}

	// Descending by lost value; the stable sort keeps input order on ties.
	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].LostOpportunityValue.Value > flagged[j].LostOpportunityValue.Value
	})

	return flagged, nil
}

// joinItemsToSales inner-joins line items to their sale header and dates each
// row. Items without a matching header are dropped; items whose header date
// does not parse stay in the set undated.
func joinItemsToSales(sales []domain.SaleHeader, items []domain.SaleLineItem) []datedItem {
	type saleDate struct {
		t     time.Time
		dated bool
	}
	dates := make(map[string]saleDate, len(sales))
	for _, s := range sales {
		t, ok := parseSaleTimestamp(s.Timestamp)
		dates[s.SaleID] = saleDate{t: t, dated: ok}
	}

	joined := make([]datedItem, 0, len(items))
	for _, it := range items {
		d, ok := dates[it.SaleID]
		if !ok {
			continue
		}
		joined = append(joined, datedItem{
			productID: it.ProductID,
			quantity:  it.Quantity,
			saleTime:  d.t,
			dated:     d.dated,
		})
	}
	return joined
}

func parseSaleTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// latestSaleTime returns the maximum valid sale time across the joined set,
// which is the end of the demand window for the whole run.
func latestSaleTime(joined []datedItem) (time.Time, bool) {
	var end time.Time
	have := false
	for _, it := range joined {
		if !it.dated {
			continue
		}
		if !have || it.saleTime.After(end) {
			end = it.saleTime
			have = true
		}
	}
	return end, have
}

// averageUnitPrices computes the mean parseable unit price per product over
// the raw line items. It deliberately works on the pre-join table so header
// or date failures never disturb the price aggregate.
func averageUnitPrices(items []domain.SaleLineItem) map[string]nullable.Float {
	type acc struct {
		sum decimal.Decimal
		n   int64
	}
	sums := make(map[string]*acc)
	for _, it := range items {
		p, ok := NormalizePrice(it.UnitPrice)
		if !ok {
			continue
		}
		a, exists := sums[it.ProductID]
		if !exists {
			a = &acc{}
			sums[it.ProductID] = a
		}
		a.sum = a.sum.Add(p)
		a.n++
	}

	out := make(map[string]nullable.Float, len(sums))
	for pid, a := range sums {
		mean := a.sum.Div(decimal.NewFromInt(a.n))
		out[pid] = nullable.FloatFrom(mean.InexactFloat64())
	}
	return out
}
