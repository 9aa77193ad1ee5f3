package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Gusta765/RUPTURAS/internal/domain"
	"github.com/Gusta765/RUPTURAS/internal/export"
	"github.com/Gusta765/RUPTURAS/internal/ingest"
	"github.com/Gusta765/RUPTURAS/internal/service"
)

// Multipart field names for the three input files.
const (
	FieldInventory = "estoque"
	FieldSales     = "vendas"
	FieldLineItems = "itens"
)

type RupturaHandler struct {
	service           *service.AnalysisService
	uploadDir         string
	defaultWindowDays int
}

func NewRupturaHandler(svc *service.AnalysisService, uploadDir string, defaultWindowDays int) *RupturaHandler {
	if defaultWindowDays <= 0 {
		defaultWindowDays = 30
	}
	return &RupturaHandler{
		service:           svc,
		uploadDir:         uploadDir,
		defaultWindowDays: defaultWindowDays,
	}
}

// Analyze receives the three CSV files plus the window parameter, runs the
// pipeline and responds with the flagged table, its summary and the applied
// view filter. An empty flagged table is a successful outcome with its own
// message, not an error.
func (h *RupturaHandler) Analyze(c *gin.Context) {
	tables, windowDays, ok := h.loadRequest(c)
	if !ok {
		return
	}

	rows, err := h.service.Run(c.Request.Context(), tables, windowDays)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if len(rows) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"items":   []domain.FlaggedProduct{},
			"total":   0,
			"summary": service.Summarize(rows),
			"message": "Nenhum produto com ruptura identificada",
		})
		return
	}

	filtered := service.ApplyFilter(rows, h.parseResultFilter(c))

	c.JSON(http.StatusOK, gin.H{
		"items":   filtered,
		"total":   len(rows),
		"summary": service.Summarize(rows),
	})
}

// Export runs the same analysis and streams the full-precision flagged table
// as a CSV attachment with a generation-timestamped filename.
func (h *RupturaHandler) Export(c *gin.Context) {
	tables, windowDays, ok := h.loadRequest(c)
	if !ok {
		return
	}

	rows, err := h.service.Run(c.Request.Context(), tables, windowDays)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	filename := domain.ExportFilename(time.Now())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	if err := export.WriteCSV(c.Writer, rows); err != nil {
		log.Error().Err(err).Msg("failed to stream export csv")
	}
}

// loadRequest saves the three uploaded files, parses them into typed tables
// and resolves the window parameter. On failure it writes the error response
// and returns ok=false.
func (h *RupturaHandler) loadRequest(c *gin.Context) (domain.InputTables, int, bool) {
	files := make(map[string]string, 3)
	cleanup := func() {
		for _, path := range files {
			if err := os.Remove(path); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("failed to remove uploaded file")
			}
		}
	}

	for _, field := range []string{FieldInventory, FieldSales, FieldLineItems} {
		file, err := c.FormFile(field)
		if err != nil {
			cleanup()
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("missing file %q", field)})
			return domain.InputTables{}, 0, false
		}
		path, err := h.saveUpload(c, field, file)
		if err != nil {
			cleanup()
			log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded file"})
			return domain.InputTables{}, 0, false
		}
		files[field] = path
	}
	defer cleanup()

	windowDays := h.defaultWindowDays
	if raw := strings.TrimSpace(c.PostForm("dias_demanda")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dias_demanda must be an integer"})
			return domain.InputTables{}, 0, false
		}
		windowDays = v
	}

	tables, err := ingest.LoadTables(c.Request.Context(),
		files[FieldInventory], files[FieldSales], files[FieldLineItems])
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return domain.InputTables{}, 0, false
	}

	return tables, windowDays, true
}

func (h *RupturaHandler) saveUpload(c *gin.Context, field string, file *multipart.FileHeader) (string, error) {
	name := fmt.Sprintf("%d_%s_%s", time.Now().UnixNano(), field, filepath.Base(file.Filename))
	path := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}

func (h *RupturaHandler) parseResultFilter(c *gin.Context) domain.ResultFilter {
	var filter domain.ResultFilter

	if v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("min_oportunidade")), 64); err == nil && v > 0 {
		filter.MinOpportunityValue = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("max_dias_sem_venda")), 64); err == nil && v > 0 {
		filter.MaxDaysWithoutSale = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(c.PostForm("min_estoque"))); err == nil && v > 0 {
		filter.MinStock = v
	}

	return filter
}
