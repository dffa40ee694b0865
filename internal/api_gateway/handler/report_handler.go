package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/pooled-savings-ledger/internal/api_gateway/service"
	"github.com/pooled-savings-ledger/internal/domain/tax"
)

// ReportHandler handles tax report generation and finalization
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

func (h *ReportHandler) CreateStatement(c *gin.Context) {
	var req StatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.reportService.GenerateStatement(c.Request.Context(), req.MemberID, req.GroupID, req.TaxYear)
	if err != nil {
		respondError(c, h.logger, "generate_statement", err)
		return
	}
	RespondCreated(c, mapReportToResponse(report))
}

func (h *ReportHandler) Create1099INT(c *gin.Context) {
	var req Form1099Request
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var payer tax.PayerInfo
	if req.Payer != nil {
		payer = *req.Payer
	}

	report, err := h.reportService.Generate1099INT(c.Request.Context(), req.MemberID, req.TaxYear, payer)
	if err != nil {
		respondError(c, h.logger, "generate_1099_int", err)
		return
	}
	RespondCreated(c, mapReportToResponse(report))
}

func (h *ReportHandler) CreateSummary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	report, err := h.reportService.GenerateSummary(c.Request.Context(), req.MemberID, req.TaxYear)
	if err != nil {
		respondError(c, h.logger, "generate_summary", err)
		return
	}
	RespondCreated(c, mapReportToResponse(report))
}

func (h *ReportHandler) GetByID(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "get_report", err)
		return
	}
	RespondOK(c, mapReportToResponse(report))
}

// Finalize is not idempotent: a second call answers 409
func (h *ReportHandler) Finalize(c *gin.Context) {
	report, err := h.reportService.FinalizeReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, "finalize_report", err)
		return
	}
	RespondOK(c, mapReportToResponse(report))
}
