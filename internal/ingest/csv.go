// Package ingest reads the three user-supplied CSV tables into well-typed
// slices and surfaces structural problems (missing columns, non-numeric
// quantities) before the analyzer ever runs.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Gusta765/RUPTURAS/internal/domain"
)

// Separators used by the reference files: the estoque table is
// comma-separated, vendas and itens de vendas are semicolon-separated.
const (
	InventorySeparator = ','
	SalesSeparator     = ';'
)

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// table wraps a csv.Reader with header-index resolution tolerant to
// spacing and separator variations in column names.
type table struct {
	reader *csv.Reader
	header []string
}

func newTable(r io.Reader, sep rune) (*table, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("file is empty, header row expected")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return &table{reader: reader, header: header}, nil
}

// columnIndex resolves a required column, trying each candidate name.
func (t *table) columnIndex(names ...string) (int, error) {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i, nil
		}
	}
	return -1, fmt.Errorf("required column %q not found (header: %s)",
		names[0], strings.Join(t.header, ", "))
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// ReadInventory parses the estoque table: produto_id, quantidade_estoque.
func ReadInventory(r io.Reader) ([]domain.InventoryRecord, error) {
	t, err := newTable(r, InventorySeparator)
	if err != nil {
		return nil, fmt.Errorf("estoque: %w", err)
	}

	idxProduct, err := t.columnIndex("produto_id")
	if err != nil {
		return nil, fmt.Errorf("estoque: %w", err)
	}
	idxStock, err := t.columnIndex("quantidade_estoque")
	if err != nil {
		return nil, fmt.Errorf("estoque: %w", err)
	}

	records := make([]domain.InventoryRecord, 0)
	line := 1
	for {
		record, err := t.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("estoque: %w", err)
		}
		line++

		stockRaw := field(record, idxStock)
		stock, err := strconv.Atoi(stockRaw)
		if err != nil {
			return nil, fmt.Errorf("estoque line %d: quantidade_estoque %q is not an integer", line, stockRaw)
		}

		records = append(records, domain.InventoryRecord{
			ProductID:     field(record, idxProduct),
			StockQuantity: stock,
		})
	}
	return records, nil
}

// ReadSales parses the vendas table: id, data. The timestamp stays raw; the
// analyzer degrades unparseable dates per row.
func ReadSales(r io.Reader) ([]domain.SaleHeader, error) {
	t, err := newTable(r, SalesSeparator)
	if err != nil {
		return nil, fmt.Errorf("vendas: %w", err)
	}

	idxID, err := t.columnIndex("id")
	if err != nil {
		return nil, fmt.Errorf("vendas: %w", err)
	}
	idxDate, err := t.columnIndex("data")
	if err != nil {
		return nil, fmt.Errorf("vendas: %w", err)
	}

	headers := make([]domain.SaleHeader, 0)
	for {
		record, err := t.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("vendas: %w", err)
		}

		headers = append(headers, domain.SaleHeader{
			SaleID:    field(record, idxID),
			Timestamp: field(record, idxDate),
		})
	}
	return headers, nil
}

// ReadLineItems parses the itens de vendas table: produto_id, vendas_id,
// item_quantidade, valor_unitario. The unit price stays raw; normalization
// is the analyzer's first step.
func ReadLineItems(r io.Reader) ([]domain.SaleLineItem, error) {
	t, err := newTable(r, SalesSeparator)
	if err != nil {
		return nil, fmt.Errorf("itens de vendas: %w", err)
	}

	idxProduct, err := t.columnIndex("produto_id")
	if err != nil {
		return nil, fmt.Errorf("itens de vendas: %w", err)
	}
	idxSale, err := t.columnIndex("vendas_id")
	if err != nil {
		return nil, fmt.Errorf("itens de vendas: %w", err)
	}
	idxQty, err := t.columnIndex("item_quantidade")
	if err != nil {
		return nil, fmt.Errorf("itens de vendas: %w", err)
	}
	idxPrice, err := t.columnIndex("valor_unitario")
	if err != nil {
		return nil, fmt.Errorf("itens de vendas: %w", err)
	}

	items := make([]domain.SaleLineItem, 0)
	line := 1
	for {
		record, err := t.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("itens de vendas: %w", err)
		}
		line++

		qtyRaw := field(record, idxQty)
		qty, err := strconv.ParseFloat(qtyRaw, 64)
		if err != nil {
			return nil, fmt.Errorf("itens de vendas line %d: item_quantidade %q is not numeric", line, qtyRaw)
		}

		items = append(items, domain.SaleLineItem{
			ProductID: field(record, idxProduct),
			SaleID:    field(record, idxSale),
			Quantity:  qty,
			UnitPrice: field(record, idxPrice),
		})
	}
	return items, nil
}

// LoadTables reads the three CSV files concurrently into a single bundle.
func LoadTables(ctx context.Context, estoquePath, vendasPath, itensPath string) (domain.InputTables, error) {
	var tables domain.InputTables

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := readFile(estoquePath, ReadInventory)
		tables.Inventory = records
		return err
	})
	g.Go(func() error {
		headers, err := readFile(vendasPath, ReadSales)
		tables.Sales = headers
		return err
	})
	g.Go(func() error {
		items, err := readFile(itensPath, ReadLineItems)
		tables.LineItems = items
		return err
	})

	if err := g.Wait(); err != nil {
		return domain.InputTables{}, err
	}
	return tables, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return read(f)
}
