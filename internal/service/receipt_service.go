package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"savemymoney/internal/config"
	"savemymoney/internal/domain"
	"savemymoney/internal/port"
	"savemymoney/internal/preprocess"
)

// ReceiptUploadInput is the DTO for receipt extraction requests.
type ReceiptUploadInput struct {
	RequestID string
	FileName  string
	Data      []byte
}

// ReceiptExtraction is what the upload use case hands back to the HTTP layer.
type ReceiptExtraction struct {
	Result     *domain.ExtractionResult
	ArchiveKey string
}

// ReceiptService defines the receipt upload contract.
type ReceiptService interface {
	Extract(ctx context.Context, input ReceiptUploadInput) (*ReceiptExtraction, error)
	RecentRuns(ctx context.Context, limit int) ([]domain.ExtractionRun, error)
}

type receiptService struct {
	extractor      port.ReceiptExtractor
	storage        port.ObjectStorage // nil disables archiving
	runs           port.ExtractionRunRepository
	s3Cfg          *config.S3Config
	requestTimeout time.Duration
	now            func() time.Time
}

// NewReceiptService creates a new ReceiptService implementation. storage may
// be nil, in which case uploads are not archived.
func NewReceiptService(
	extractor port.ReceiptExtractor,
	storage port.ObjectStorage,
	runs port.ExtractionRunRepository,
	s3Cfg *config.S3Config,
	extractionCfg *config.ExtractionConfig,
) ReceiptService {
	timeout := 75 * time.Second
	if extractionCfg != nil && extractionCfg.RequestTimeout() > 0 {
		timeout = extractionCfg.RequestTimeout()
	}
	return &receiptService{
		extractor:      extractor,
		storage:        storage,
		runs:           runs,
		s3Cfg:          s3Cfg,
		requestTimeout: timeout,
		now:            time.Now,
	}
}

func (s *receiptService) Extract(ctx context.Context, input ReceiptUploadInput) (*ReceiptExtraction, error) {
	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyImage
	}

	if input.FileName != "" {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.FileName), "."))
		if _, ok := domain.AllowedExtensions[ext]; !ok {
			return nil, domain.ErrUnsupportedFileType
		}
	}

	if s.s3Cfg != nil && s.s3Cfg.MaxFileSizeMB > 0 && int64(len(input.Data)) > s.s3Cfg.MaxFileSizeMB*1024*1024 {
		return nil, domain.ErrFileTooLarge
	}

	// Magic bytes decide the type, not the client's file name.
	contentType := preprocess.DetectContentType(input.Data)
	fileType, ok := domain.AllowedContentTypes[contentType]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}

	log.Printf("receiptService.Extract: [%s] extracting %s (%s, %d bytes)",
		input.RequestID, input.FileName, contentType, len(input.Data))

	archiveKey := s.archive(ctx, input, fileType, contentType)

	extractCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	report, err := s.extractor.ExtractWithReport(extractCtx, input.Data)
	if err != nil {
		log.Printf("receiptService.Extract: [%s] extraction failed: %v", input.RequestID, err)
		s.discardArchive(input.RequestID, archiveKey)
		if errors.Is(err, domain.ErrEmptyImage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	s.recordRun(ctx, input.RequestID, archiveKey, report)

	return &ReceiptExtraction{Result: report.Result, ArchiveKey: archiveKey}, nil
}

func (s *receiptService) RecentRuns(ctx context.Context, limit int) ([]domain.ExtractionRun, error) {
	if s.runs == nil {
		return []domain.ExtractionRun{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	runs, err := s.runs.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("listing extraction runs: %w", err)
	}
	return runs, nil
}

// archive stores the original image. Failures are logged and extraction
// proceeds without an archive key.
func (s *receiptService) archive(ctx context.Context, input ReceiptUploadInput, fileType domain.FileType, contentType string) string {
	if s.storage == nil || s.s3Cfg == nil || !s.s3Cfg.Enabled {
		return ""
	}
	key := fmt.Sprintf("receipts/%s/%s.%s", s.now().UTC().Format("2006/01/02"), uuid.New(), fileType)
	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Data),
		ContentType: contentType,
		Size:        int64(len(input.Data)),
	})
	if err != nil {
		log.Printf("receiptService.archive: [%s] %v: %v", input.RequestID, domain.ErrUploadFailed, err)
		return ""
	}
	return key
}

func (s *receiptService) discardArchive(requestID, key string) {
	if key == "" {
		return
	}
	// The request context may already be done; cleanup gets its own.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, s.s3Cfg.Bucket, key); err != nil {
		log.Printf("receiptService.discardArchive: [%s] deleting %s: %v", requestID, key, err)
	}
}

func (s *receiptService) recordRun(ctx context.Context, requestID, archiveKey string, report *port.ExtractionReport) {
	if s.runs == nil {
		return
	}
	res := report.Result
	run := &domain.ExtractionRun{
		ID:                res.ID,
		RequestID:         requestID,
		Method:            res.Method,
		Confidence:        res.Confidence,
		ItemCount:         len(res.Items),
		ExpectedItemCount: res.ExpectedItemCount,
		VisionOutcome:     report.VisionOutcome,
		OCRConfidence:     report.OCRConfidence,
		DurationMS:        report.Duration.Milliseconds(),
		ArchiveKey:        archiveKey,
		CreatedAt:         s.now(),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		log.Printf("receiptService.recordRun: [%s] %v", requestID, err)
	}
}
