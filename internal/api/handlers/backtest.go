package handlers

import (
	"net/http"

	"margin-backtest/internal/api/models"
	"margin-backtest/internal/backtest"
	"margin-backtest/internal/store"

	"github.com/gin-gonic/gin"
)

// BacktestHandler runs backtests and keeps finished runs retrievable by ID.
type BacktestHandler struct {
	dbPath string
	runs   *RunStore
}

func NewBacktestHandler(dbPath string) *BacktestHandler {
	return &BacktestHandler{dbPath: dbPath, runs: NewRunStore()}
}

// RunBacktest handles POST /api/v1/backtest.
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_REQUEST", Message: err.Error()},
		})
		return
	}

	params := backtest.Params{
		InitialCapital:   req.Backtest.InitialCapital,
		EnableTakeProfit: !req.Backtest.NoTakeProfit,
		EnableStopLoss:   !req.Backtest.NoStopLoss,
		Execution:        backtest.ExecutionMode(req.Backtest.Execution),
	}
	if params.InitialCapital == 0 {
		params.InitialCapital = 1000000
	}
	if params.Execution == "" {
		params.Execution = backtest.ExecutionMarket
	}
	if err := params.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "INVALID_CONFIG", Message: err.Error()},
		})
		return
	}

	dbPath := req.Database
	if dbPath == "" {
		dbPath = h.dbPath
	}
	db, err := store.Open(dbPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "DATABASE_ERROR", Message: err.Error()},
		})
		return
	}
	defer db.Close()

	dates, err := db.TradingDates(req.Backtest.StartDate, req.Backtest.EndDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "DATABASE_ERROR", Message: err.Error()},
		})
		return
	}
	if len(dates) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NO_TRADING_DATES", Message: "no trading dates in the requested window"},
		})
		return
	}

	result, err := backtest.New(db, db, params).Run(dates)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "BACKTEST_ERROR", Message: err.Error()},
		})
		return
	}

	resp := models.BacktestResponse{
		ID:      h.runs.Put(result),
		Status:  "completed",
		Summary: models.NewSummary(result.Summary),
	}
	if req.Options.IncludeTrades {
		resp.Trades = models.NewTrades(result.Trades)
	}
	if req.Options.IncludeSnapshots {
		resp.Snapshots = models.NewSnapshots(result.Snapshots)
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger handles GET /api/v1/backtest/:id/ledger, returning the run's
// daily snapshot sequence.
func (h *BacktestHandler) GetLedger(c *gin.Context) {
	result, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "RUN_NOT_FOUND", Message: "unknown backtest id"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        c.Param("id"),
		"snapshots": models.NewSnapshots(result.Snapshots),
	})
}

// GetTrades handles GET /api/v1/backtest/:id/trades.
func (h *BacktestHandler) GetTrades(c *gin.Context) {
	result, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "RUN_NOT_FOUND", Message: "unknown backtest id"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":     c.Param("id"),
		"trades": models.NewTrades(result.Trades),
	})
}
