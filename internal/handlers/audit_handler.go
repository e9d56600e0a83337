package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/services"
)

// AuditHandler handles audit trail HTTP requests
type AuditHandler struct {
	auditService services.AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService services.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// GetLogs handles GET /campaigns/:id/audit with pagination
func (h *AuditHandler) GetLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}

	logs, total, err := h.auditService.GetLogs(c.Request.Context(), c.Param("id"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit logs: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// VerifyLog handles GET /audit/:logId/verify
func (h *AuditHandler) VerifyLog(c *gin.Context) {
	log, verification, err := h.auditService.VerifyLog(c.Request.Context(), c.Param("logId"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Audit log not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify audit log: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"log":          log,
		"verification": verification,
	})
}

// GetReport handles GET /campaigns/:id/audit/report
func (h *AuditHandler) GetReport(c *gin.Context) {
	report, err := h.auditService.GetReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate report: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportCSV handles GET /campaigns/:id/audit/export as a file download
func (h *AuditHandler) ExportCSV(c *gin.Context) {
	csv, err := h.auditService.ExportCSV(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export audit trail: " + err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="audit-`+c.Param("id")+`.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

// VerifyProof handles POST /proofs/verify, letting players independently
// check the fairness proof they received
func (h *AuditHandler) VerifyProof(c *gin.Context) {
	var proof models.ProofOfFairness
	if err := c.ShouldBindJSON(&proof); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"isValid": h.auditService.VerifyProof(proof)})
}
