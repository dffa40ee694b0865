package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pooled-savings-ledger/internal/api_gateway/handler"
	"github.com/pooled-savings-ledger/internal/api_gateway/middleware"
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Ledger         *handler.LedgerHandler
	History        *handler.EventHistoryHandler
	Reconciliation *handler.ReconciliationHandler
	Reports        *handler.ReportHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h Handlers) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		groups := v1.Group("/groups/:group_id")
		{
			groups.POST("/deposits", h.Ledger.Deposit)
			groups.POST("/withdrawals", h.Ledger.Withdraw)
			groups.POST("/interest-accruals", h.Ledger.Accrue)
			groups.GET("/events", h.History.ListByGroup)
			groups.GET("/members/:member_id/position", h.Ledger.GetPosition)
			groups.GET("/pool", h.Ledger.GetPool)
		}

		v1.POST("/corrections", h.Ledger.Correct)

		events := v1.Group("/events")
		{
			events.GET("/:id", h.Ledger.GetEvent)
			events.GET("/:id/balance", h.Reconciliation.EventBalance)
		}

		v1.GET("/reconciliation", h.Reconciliation.Run)

		reports := v1.Group("/reports")
		{
			reports.POST("/statements", h.Reports.CreateStatement)
			reports.POST("/1099-int", h.Reports.Create1099INT)
			reports.POST("/summaries", h.Reports.CreateSummary)
			reports.GET("/:id", h.Reports.GetByID)
			reports.POST("/:id/finalize", h.Reports.Finalize)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
