package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so a wrapped copy produced by WithError still
// satisfies errors.Is against the pre-defined value.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// IsClientError reports whether the error belongs to the 4xx class.
func (e *AppError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "Error processing the request",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	// Validation errors
	ErrGalleryIDRequired = &AppError{
		Code:       "GALLERY_ID_REQUIRED",
		Message:    "galleryId is required",
		StatusCode: 400,
	}

	ErrImageKeyRequired = &AppError{
		Code:       "IMAGE_KEY_REQUIRED",
		Message:    "key is required",
		StatusCode: 400,
	}

	ErrInvalidGalleryID = &AppError{
		Code:       "INVALID_GALLERY_ID",
		Message:    "galleryId should be an integer number",
		StatusCode: 400,
	}

	// Pipeline errors
	ErrAcquisitionFailed = &AppError{
		Code:       "IMAGE_ACQUISITION_FAILED",
		Message:    "Error downloading the image",
		StatusCode: 500,
	}

	ErrNormalizationFailed = &AppError{
		Code:       "IMAGE_NORMALIZATION_FAILED",
		Message:    "Error processing the image",
		StatusCode: 500,
	}

	ErrExtractionFailed = &AppError{
		Code:       "FACE_EXTRACTION_FAILED",
		Message:    "Error extracting faces from the image",
		StatusCode: 500,
	}

	ErrCatalogFailed = &AppError{
		Code:       "GALLERY_CATALOG_FAILED",
		Message:    "Error getting gallery photos",
		StatusCode: 500,
	}
)
