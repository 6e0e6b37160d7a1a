package handlers

import (
	"github.com/feichai0017/dedup-scanner/internal/service/scan"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
)

type Handlers struct {
	Scan *ScanHandler
}

func NewHandlers(
	scanService scan.ScanProcessor,
	logger logger.Logger,
) *Handlers {
	return &Handlers{
		Scan: NewScanHandler(scanService, logger),
	}
}
