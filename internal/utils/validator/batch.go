// internal/utils/validator/batch.go
package validator

import (
	"fmt"
	"mime/multipart"

	"github.com/feichai0017/dedup-scanner/pkg/logger"
)

// BatchValidator 候选文件批次验证器
type BatchValidator struct {
	logger logger.Logger
	config *ValidatorConfig
}

// ValidatorConfig 验证器配置
type ValidatorConfig struct {
	MaxFileSize  int64 // 最大文件大小（字节）
	MaxBatchSize int   // 单次扫描最大文件数
}

// ValidationResult 验证结果
type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// ValidationError 验证错误
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// NewBatchValidator 创建新的批次验证器
func NewBatchValidator(log logger.Logger, config *ValidatorConfig) *BatchValidator {
	if config == nil {
		config = &ValidatorConfig{
			MaxFileSize:  50 * 1024 * 1024, // 50MB
			MaxBatchSize: 10000,
		}
	}

	return &BatchValidator{
		logger: log,
		config: config,
	}
}

// ValidateBatch checks a candidate batch before a scan task is created. It
// only inspects upload metadata; content sniffing happens on the worker once
// the bytes are in hand.
func (v *BatchValidator) ValidateBatch(files []*multipart.FileHeader) *ValidationResult {
	result := &ValidationResult{
		IsValid: true,
		Errors:  make([]ValidationError, 0),
	}

	if len(files) == 0 {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    "EMPTY_BATCH",
			Message: "at least one file is required",
			Field:   "files",
		})
		return result
	}

	if len(files) > v.config.MaxBatchSize {
		result.IsValid = false
		result.Errors = append(result.Errors, ValidationError{
			Code:    "BATCH_TOO_LARGE",
			Message: fmt.Sprintf("batch exceeds maximum of %d files", v.config.MaxBatchSize),
			Field:   "files",
		})
		return result
	}

	for _, file := range files {
		if errs := v.validateFile(file); len(errs) > 0 {
			result.IsValid = false
			result.Errors = append(result.Errors, errs...)
		}
	}

	return result
}

func (v *BatchValidator) validateFile(file *multipart.FileHeader) []ValidationError {
	var errors []ValidationError

	if file.Filename == "" {
		errors = append(errors, ValidationError{
			Code:    "MISSING_FILENAME",
			Message: "file has no name",
			Field:   "filename",
		})
	}

	if file.Size > v.config.MaxFileSize {
		errors = append(errors, ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file %s exceeds maximum size of %d bytes", file.Filename, v.config.MaxFileSize),
			Field:   "size",
		})
	}

	return errors
}
