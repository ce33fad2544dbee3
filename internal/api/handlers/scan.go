package handlers

import (
	"net/http"

	"margin-backtest/internal/api/models"
	"margin-backtest/internal/scanner"
	"margin-backtest/internal/store"

	"github.com/gin-gonic/gin"
)

// ScanHandler serves the ranked candidate list for a single date.
type ScanHandler struct {
	dbPath string
}

func NewScanHandler(dbPath string) *ScanHandler {
	return &ScanHandler{dbPath: dbPath}
}

// Scan handles GET /api/v1/scan?date=YYYYMMDD.
func (h *ScanHandler) Scan(c *gin.Context) {
	date := c.Query("date")
	if len(date) != 8 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_DATE", Message: "date must be YYYYMMDD"},
		})
		return
	}

	db, err := store.Open(h.dbPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "DATABASE_ERROR", Message: err.Error()},
		})
		return
	}
	defer db.Close()

	rows, err := db.Signals(date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "DATABASE_ERROR", Message: err.Error()},
		})
		return
	}

	c.JSON(http.StatusOK, models.ScanResponse{
		Date:       date,
		Candidates: models.NewCandidates(scanner.Scan(rows)),
	})
}
