package domain

import (
	"time"

	"github.com/Gusta765/RUPTURAS/internal/nullable"
)

// InventoryRecord is one row of the estoque table. ProductID is unique and
// is the grain of every downstream result.
type InventoryRecord struct {
	ProductID     string `json:"produto_id"`
	StockQuantity int    `json:"quantidade_estoque"`
}

// SaleHeader is one sale transaction from the vendas table. Timestamp keeps
// the raw string exactly as received; parsing happens inside the analyzer so
// that an unparseable date degrades per row instead of failing the load.
type SaleHeader struct {
	SaleID    string `json:"id"`
	Timestamp string `json:"data"`
}

// SaleLineItem is one row of the itens de vendas table. UnitPrice keeps the
// raw string (possibly "R$ 25,50" style) for the same reason as Timestamp.
type SaleLineItem struct {
	ProductID string  `json:"produto_id"`
	SaleID    string  `json:"vendas_id"`
	Quantity  float64 `json:"item_quantidade"`
	UnitPrice string  `json:"valor_unitario"`
}

// InputTables bundles the three tables one analysis run consumes.
type InputTables struct {
	Inventory []InventoryRecord
	Sales     []SaleHeader
	LineItems []SaleLineItem
}

// RecommendedAction is attached verbatim to every flagged row.
const RecommendedAction = "Verificar exposição / Validar estoque físico"

// FlaggedProduct is one row of the analysis output. Column names and order
// are fixed; nullable fields serialize as JSON null when absent.
type FlaggedProduct struct {
	ProductID            string         `json:"product_id"`
	DailyDemandRate      float64        `json:"daily_demand_rate"`
	ExpectedDaysPerSale  nullable.Float `json:"expected_days_per_sale"`
	DaysSinceLastSale    nullable.Float `json:"days_since_last_sale"`
	LostUnits            int            `json:"lost_units"`
	AverageUnitPrice     nullable.Float `json:"average_unit_price"`
	LostOpportunityValue nullable.Float `json:"lost_opportunity_value"`
	StockQuantity        int            `json:"stock_quantity"`
	LastSaleDate         nullable.Time  `json:"last_sale_date"`
	RecommendedAction    string         `json:"recommended_action"`
}

// AnalysisSummary aggregates the flagged table for the executive panel.
type AnalysisSummary struct {
	FlaggedProducts    int     `json:"flagged_products"`
	TotalLostUnits     int     `json:"total_lost_units"`
	TotalLostValue     float64 `json:"total_lost_value"`
	AverageLossPerItem float64 `json:"average_loss_per_product"`
}

// ResultFilter narrows the flagged table for display. Zero values keep
// everything; MaxDaysWithoutSale <= 0 means no upper bound.
type ResultFilter struct {
	MinOpportunityValue float64 `json:"min_oportunidade"`
	MaxDaysWithoutSale  float64 `json:"max_dias_sem_venda"`
	MinStock            int     `json:"min_estoque"`
}

// ExportFilename builds the download name for an exported flagged table,
// embedding the generation instant.
func ExportFilename(now time.Time) string {
	return "ruptura_estoque_" + now.Format("20060102_150405") + ".csv"
}
