package validator

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/dedup-scanner/pkg/logger"
)

func newValidator() *BatchValidator {
	return NewBatchValidator(logger.NewTestLogger(), &ValidatorConfig{
		MaxFileSize:  1024,
		MaxBatchSize: 3,
	})
}

func header(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: name, Size: size}
}

func TestValidateBatchAcceptsValidFiles(t *testing.T) {
	v := newValidator()

	result := v.ValidateBatch([]*multipart.FileHeader{
		header("a.jpg", 100),
		header("b.jpg", 1024),
	})

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateBatchRejectsEmptyBatch(t *testing.T) {
	v := newValidator()

	result := v.ValidateBatch(nil)

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "EMPTY_BATCH", result.Errors[0].Code)
}

func TestValidateBatchRejectsOversizedBatch(t *testing.T) {
	v := newValidator()

	result := v.ValidateBatch([]*multipart.FileHeader{
		header("a", 1), header("b", 1), header("c", 1), header("d", 1),
	})

	require.False(t, result.IsValid)
	assert.Equal(t, "BATCH_TOO_LARGE", result.Errors[0].Code)
}

func TestValidateBatchRejectsOversizedFile(t *testing.T) {
	v := newValidator()

	result := v.ValidateBatch([]*multipart.FileHeader{
		header("ok.jpg", 10),
		header("big.jpg", 2048),
	})

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "FILE_TOO_LARGE", result.Errors[0].Code)
	assert.Contains(t, result.Errors[0].Message, "big.jpg")
}

func TestValidateBatchRejectsMissingFilename(t *testing.T) {
	v := newValidator()

	result := v.ValidateBatch([]*multipart.FileHeader{header("", 10)})

	require.False(t, result.IsValid)
	assert.Equal(t, "MISSING_FILENAME", result.Errors[0].Code)
}
