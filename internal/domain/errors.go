package domain

import "errors"

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrEmptyImage          = errors.New("image is empty")
	ErrExtractionFailed    = errors.New("receipt extraction failed")
	ErrUploadFailed        = errors.New("file upload to storage failed")
)
