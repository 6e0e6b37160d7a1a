package config

import (
	"sync"
	"time"
)

var (
	scanOnce   sync.Once
	scanConfig *ScanConfig
)

// ScanConfig holds the tuning knobs for the scan service. Chunk size only
// affects scheduling fairness, never grouping results.
type ScanConfig struct {
	ChunkSize       int
	MaxFileSize     int64
	MaxBatchSize    int
	StorageBackend  string
	RetentionPeriod time.Duration
}

func GetScanConfig() *ScanConfig {
	scanOnce.Do(func() {
		loadEnv()

		scanConfig = &ScanConfig{
			ChunkSize:       getEnvInt("SCAN_CHUNK_SIZE", 50),
			MaxFileSize:     getEnvInt64("SCAN_MAX_FILE_SIZE", 50*1024*1024), // 50MB
			MaxBatchSize:    getEnvInt("SCAN_MAX_BATCH_SIZE", 10000),
			StorageBackend:  getEnv("SCAN_STORAGE_BACKEND", "minio"),
			RetentionPeriod: time.Duration(getEnvInt("SCAN_RETENTION_HOURS", 24)) * time.Hour,
		}
	})
	return scanConfig
}
