package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/dedup-scanner/internal/service/scan"
	"github.com/feichai0017/dedup-scanner/pkg/logger"
)

type ScanHandler struct {
	service scan.ScanProcessor
	logger  logger.Logger
}

// ScanResponse 定义扫描响应结构
type ScanResponse struct {
	TaskID    string `json:"taskId"`
	Status    string `json:"status"`
	FileCount int    `json:"fileCount"`
	CreatedAt string `json:"createdAt"`
}

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewScanHandler(service scan.ScanProcessor, logger logger.Logger) *ScanHandler {
	return &ScanHandler{
		service: service,
		logger:  logger,
	}
}

// CreateScan 提交一批候选文件进行重复扫描
func (h *ScanHandler) CreateScan(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	task, err := h.service.SubmitBatch(c.Request.Context(), files)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to submit scan", err)
		return
	}

	c.JSON(http.StatusOK, ScanResponse{
		TaskID:    task.ID,
		Status:    string(task.Status),
		FileCount: task.FilesTotal,
		CreatedAt: task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// GetStatus 获取扫描状态
func (h *ScanHandler) GetStatus(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	task, err := h.service.GetScanStatus(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to get status", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"taskId":     task.ID,
		"status":     string(task.Status),
		"progress":   task.Progress,
		"filesTotal": task.FilesTotal,
		"error":      task.Error,
		"createdAt":  task.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"updatedAt":  task.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// DownloadReport 下载扫描报告
func (h *ScanHandler) DownloadReport(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	report, err := h.service.GetScanReport(c.Request.Context(), taskID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to get report", err)
		return
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to serialize report", err)
		return
	}

	filename := fmt.Sprintf("scan_report_%s.json", taskID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/json", reportJSON)
}

// CancelScan 取消扫描任务
func (h *ScanHandler) CancelScan(c *gin.Context) {
	taskID := c.Param("taskId")
	if taskID == "" {
		h.handleError(c, http.StatusBadRequest, "Task ID is required", nil)
		return
	}

	if err := h.service.CancelScan(c.Request.Context(), taskID); err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to cancel scan", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Scan cancelled successfully",
		"taskId":  taskID,
	})
}

// handleError 统一错误处理
func (h *ScanHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
