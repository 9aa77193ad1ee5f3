// Command ruptura runs the stockout analysis over three local CSV files and
// writes the flagged table to a timestamped export.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Gusta765/RUPTURAS/internal/cache"
	"github.com/Gusta765/RUPTURAS/internal/domain"
	"github.com/Gusta765/RUPTURAS/internal/ingest"
	"github.com/Gusta765/RUPTURAS/internal/service"
	"github.com/Gusta765/RUPTURAS/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "ruptura",
		Usage: "análise de ruptura de estoque sobre arquivos CSV locais",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "estoque", Usage: "CSV de estoque (produto_id, quantidade_estoque)", Required: true},
			&cli.StringFlag{Name: "vendas", Usage: "CSV de vendas gerais (id, data)", Required: true},
			&cli.StringFlag{Name: "itens", Usage: "CSV de itens de vendas (produto_id, vendas_id, item_quantidade, valor_unitario)", Required: true},
			&cli.IntFlag{Name: "dias", Usage: "dias para análise da demanda", Value: 30},
			&cli.StringFlag{Name: "saida", Usage: "diretório do CSV exportado", Value: "./data/output"},
			&cli.Float64Flag{Name: "min-oportunidade", Usage: "oportunidade mínima (R$) exibida"},
			&cli.Float64Flag{Name: "max-dias-sem-venda", Usage: "máximo de dias sem venda exibido"},
			&cli.IntFlag{Name: "min-estoque", Usage: "estoque mínimo exibido"},
			&cli.StringFlag{Name: "log-level", Usage: "nível de log", Value: "info"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("análise falhou")
	}
}

func run(c *cli.Context) error {
	logger.SetLevel(c.String("log-level"))

	tables, err := ingest.LoadTables(c.Context,
		c.String("estoque"), c.String("vendas"), c.String("itens"))
	if err != nil {
		return err
	}

	logger.Log.Info().
		Int("produtos", len(tables.Inventory)).
		Int("vendas", len(tables.Sales)).
		Int("itens", len(tables.LineItems)).
		Msg("arquivos carregados")

	svc := service.NewAnalysisService(cache.NewMemoryAnalysisCache())
	rows, err := svc.Run(c.Context, tables, c.Int("dias"))
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		fmt.Println("Nenhum produto com ruptura identificada.")
		return nil
	}

	summary := service.Summarize(rows)
	fmt.Printf("Produtos afetados: %d\n", summary.FlaggedProducts)
	fmt.Printf("Unidades perdidas: %d\n", summary.TotalLostUnits)
	fmt.Printf("Oportunidade perdida: R$ %.2f\n", summary.TotalLostValue)
	fmt.Printf("Perda média por produto: R$ %.2f\n", summary.AverageLossPerItem)

	view := service.ApplyFilter(rows, domain.ResultFilter{
		MinOpportunityValue: c.Float64("min-oportunidade"),
		MaxDaysWithoutSale:  c.Float64("max-dias-sem-venda"),
		MinStock:            c.Int("min-estoque"),
	})
	for _, r := range service.TopOpportunities(view, 10) {
		value, _ := r.LostOpportunityValue.Float64()
		fmt.Printf("  %-20s R$ %10.2f (%d unid., estoque %d)\n",
			r.ProductID, value, r.LostUnits, r.StockQuantity)
	}

	path, err := svc.WriteExportFile(c.String("saida"), rows, time.Now())
	if err != nil {
		return err
	}
	logger.Log.Info().Str("arquivo", path).Msg("resultado exportado")

	return nil
}
