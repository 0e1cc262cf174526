package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"savemymoney/internal/domain"
	"savemymoney/internal/service"
)

// ReceiptHandler handles receipt extraction endpoints.
type ReceiptHandler struct {
	receiptService service.ReceiptService
	maxBytes       int64
}

// NewReceiptHandler creates a new ReceiptHandler. maxFileSizeMB bounds how much
// of an upload is read.
func NewReceiptHandler(receiptService service.ReceiptService, maxFileSizeMB int64) *ReceiptHandler {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 10
	}
	return &ReceiptHandler{receiptService: receiptService, maxBytes: maxFileSizeMB * 1024 * 1024}
}

// ExtractionResponse is the payload returned for an extracted receipt. When no
// items were found, RawText carries the recognized text for manual entry.
type ExtractionResponse struct {
	ID                uuid.UUID              `json:"id"`
	Items             []domain.ExtractedItem `json:"items"`
	Metadata          domain.ReceiptMetadata `json:"metadata"`
	Confidence        domain.Confidence      `json:"confidence"`
	Method            string                 `json:"method"`
	Validation        *domain.Validation     `json:"validation,omitempty"`
	ExpectedItemCount *int                   `json:"expected_item_count,omitempty"`
	RawText           string                 `json:"raw_text,omitempty"`
	Warnings          []string               `json:"warnings"`
	ArchiveKey        string                 `json:"archive_key,omitempty"`
	ProcessedAt       time.Time              `json:"processed_at"`
}

func newExtractionResponse(out *service.ReceiptExtraction) ExtractionResponse {
	r := out.Result
	resp := ExtractionResponse{
		ID:                r.ID,
		Items:             r.Items,
		Metadata:          r.Metadata,
		Confidence:        r.Confidence,
		Method:            r.Method,
		Validation:        r.Validation,
		ExpectedItemCount: r.ExpectedItemCount,
		RawText:           r.RawText,
		Warnings:          r.Warnings,
		ArchiveKey:        out.ArchiveKey,
		ProcessedAt:       r.ProcessedAt,
	}
	if resp.Items == nil {
		resp.Items = []domain.ExtractedItem{}
	}
	if resp.Warnings == nil {
		resp.Warnings = []string{}
	}
	return resp
}

// Extract handles POST /api/v1/receipts/extract
// @Summary Extract a receipt
// @Description Read items and metadata from a receipt photo (JPG, PNG, WEBP or GIF). A result with zero items is still a 200 and carries raw_text for manual entry.
// @Tags receipts
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image"
// @Success 200 {object} Response{data=ExtractionResponse} "Extraction result"
// @Failure 400 {object} ErrorResponseBody "Missing file or unsupported type"
// @Failure 413 {object} ErrorResponseBody "File too large"
// @Failure 429 {object} ErrorResponseBody "Too many requests"
// @Failure 500 {object} ErrorResponseBody "Could not process receipt"
// @Router /receipts/extract [post]
func (h *ReceiptHandler) Extract(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "file is required")
		return
	}
	if fileHeader.Size > h.maxBytes {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		HandleError(c, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		HandleError(c, fmt.Errorf("reading upload: %w", err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		HandleError(c, domain.ErrFileTooLarge)
		return
	}

	out, err := h.receiptService.Extract(c.Request.Context(), service.ReceiptUploadInput{
		RequestID: c.GetString("request_id"),
		FileName:  fileHeader.Filename,
		Data:      data,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, newExtractionResponse(out))
}

// ListRuns handles GET /api/v1/receipts/runs
// @Summary List recent extraction runs
// @Description Diagnostics for the most recent extractions: method, confidence, vision outcome and timing. Items are never stored.
// @Tags receipts
// @Produce json
// @Param limit query int false "Maximum rows (max 200)" default(50)
// @Success 200 {object} Response{data=[]domain.ExtractionRun} "Recent runs"
// @Failure 500 {object} ErrorResponseBody "Internal error"
// @Router /receipts/runs [get]
func (h *ReceiptHandler) ListRuns(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.receiptService.RecentRuns(c.Request.Context(), limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, runs)
}
