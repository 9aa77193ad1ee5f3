// Package export serializes the flagged table for download. Values keep
// full precision here; rounding belongs to the presentation layer.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/Gusta765/RUPTURAS/internal/domain"
	"github.com/Gusta765/RUPTURAS/internal/nullable"
)

// Columns is the fixed output column order.
var Columns = []string{
	"product_id",
	"daily_demand_rate",
	"expected_days_per_sale",
	"days_since_last_sale",
	"lost_units",
	"average_unit_price",
	"lost_opportunity_value",
	"stock_quantity",
	"last_sale_date",
	"recommended_action",
}

const exportTimeLayout = "2006-01-02 15:04:05"

// WriteCSV writes the flagged table to w. Absent values become empty cells.
func WriteCSV(w io.Writer, rows []domain.FlaggedProduct) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.ProductID,
			formatFloat(r.DailyDemandRate),
			formatNullableFloat(r.ExpectedDaysPerSale),
			formatNullableFloat(r.DaysSinceLastSale),
			strconv.Itoa(r.LostUnits),
			formatNullableFloat(r.AverageUnitPrice),
			formatNullableFloat(r.LostOpportunityValue),
			strconv.Itoa(r.StockQuantity),
			formatNullableTime(r.LastSaleDate),
			r.RecommendedAction,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatNullableFloat(v nullable.Float) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Value)
}

func formatNullableTime(v nullable.Time) string {
	if !v.Valid {
		return ""
	}
	return v.Value.Format(exportTimeLayout)
}
