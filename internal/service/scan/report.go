package scan

import (
	"fmt"
	"time"

	"github.com/feichai0017/dedup-scanner/internal/models"
)

func uploadKey(taskID string, index int) string {
	return fmt.Sprintf("upload/%s/%06d", taskID, index)
}

func reportKey(taskID string) string {
	return fmt.Sprintf("report/%s", taskID)
}

// buildReport assembles the stored terminal artifact for a scan. A report
// with groups and a non-empty error set is a partial success.
func buildReport(
	taskID string,
	groups []models.DuplicateGroup,
	errs []models.ProcessingError,
	filesScanned int,
	startedAt, finishedAt time.Time,
) *models.ScanReport {
	report := &models.ScanReport{
		TaskID:       taskID,
		Status:       string(models.StatusCompleted),
		Groups:       groups,
		Errors:       errs,
		FilesScanned: filesScanned,
		StartedAt:    startedAt,
		FinishedAt:   finishedAt,
	}

	for _, g := range groups {
		extra := int64(len(g.Files) - 1)
		report.DuplicateCount += len(g.Files) - 1
		report.WastedBytes += g.Size * extra
	}

	return report
}
