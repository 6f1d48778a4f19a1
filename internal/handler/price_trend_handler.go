package handler

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"agroprice/internal/domain"
	"agroprice/internal/export"
	"agroprice/internal/service"
)

// PriceTrendHandler handles price table parsing and price data saving endpoints.
type PriceTrendHandler struct {
	parseSvc service.PriceParseService
	now      func() time.Time
}

// NewPriceTrendHandler creates a new PriceTrendHandler.
func NewPriceTrendHandler(parseSvc service.PriceParseService) *PriceTrendHandler {
	return &PriceTrendHandler{parseSvc: parseSvc, now: time.Now}
}

// saveResponse adds the overall outcome to a SaveResult.
type saveResponse struct {
	*domain.SaveResult
	Success bool `json:"success"`
}

// CreateParseTask handles POST /api/v1/admin/price-trends/price-data
// Accepts multipart form fields "images" (repeated) and "exchangeRate".
func (h *PriceTrendHandler) CreateParseTask(c *gin.Context) {
	userID, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "multipart form with images is required")
		return
	}

	headers := form.File["images"]
	if len(headers) == 0 {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "images: at least one image is required")
		return
	}
	if len(headers) > domain.MaxImagesPerTask {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
			fmt.Sprintf("images: at most %d images are allowed, got %d", domain.MaxImagesPerTask, len(headers)))
		return
	}

	rate, err := parseExchangeRate(c.PostForm("exchangeRate"))
	if err != nil {
		HandleError(c, err)
		return
	}

	images := make([]domain.ImageFile, 0, len(headers))
	for _, fh := range headers {
		img, rerr := readImage(fh)
		if rerr != nil {
			log.Printf("PriceTrendHandler.CreateParseTask: reading %s: %v", fh.Filename, rerr)
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", fmt.Sprintf("could not read image %q", fh.Filename))
			return
		}
		images = append(images, img)
	}

	out, err := h.parseSvc.CreateTask(c.Request.Context(), service.CreateTaskInput{
		Images:       images,
		ExchangeRate: rate,
		CreatedBy:    userID,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, out)
}

// GetTaskStatus handles GET /api/v1/admin/price-trends/task-status/:taskId
func (h *PriceTrendHandler) GetTaskStatus(c *gin.Context) {
	task, err := h.parseSvc.GetTaskStatus(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, task)
}

// ListTasks handles GET /api/v1/admin/price-trends/tasks
func (h *PriceTrendHandler) ListTasks(c *gin.Context) {
	tasks, err := h.parseSvc.ListTasks(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}
	if tasks == nil {
		tasks = []domain.ParseTask{}
	}
	RespondOK(c, tasks)
}

// CancelTask handles POST /api/v1/admin/price-trends/task-status/:taskId/cancel
func (h *PriceTrendHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if err := h.parseSvc.CancelTask(c.Request.Context(), taskID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"taskId": taskID, "message": "cancellation requested"})
}

// ExportTask handles GET /api/v1/admin/price-trends/task-status/:taskId/export?format=csv|xlsx
func (h *PriceTrendHandler) ExportTask(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	task, err := h.parseSvc.GetTaskStatus(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	if format == export.FormatXLSX {
		err = export.WriteXLSX(&buf, task)
	} else {
		err = export.WriteCSV(&buf, task)
	}
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(task.ID, format, h.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// SavePriceData handles POST /api/v1/admin/price-trends/save-price-data
// The transport status is 200 whenever the save ran; the envelope's success field
// reports whether anything was persisted.
func (h *PriceTrendHandler) SavePriceData(c *gin.Context) {
	var input service.SavePriceDataInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.parseSvc.SavePriceData(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	success := result.Success()
	resp := APIResponse{
		Success: success,
		Data:    saveResponse{SaveResult: result, Success: success},
	}
	if !success {
		resp.Error = &APIError{Code: "SAVE_FAILED", Message: "no price records were saved"}
	}
	c.JSON(http.StatusOK, resp)
}

func parseExchangeRate(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.NewValidationError("exchangeRate", "is required")
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.NewValidationError("exchangeRate", "must be a number")
	}
	if rate <= 0 {
		return 0, domain.NewValidationError("exchangeRate", "must be greater than 0")
	}
	return rate, nil
}

// readImage loads an uploaded part into memory. Reading stops one byte past the size
// limit so the validator can still reject oversized files.
func readImage(fh *multipart.FileHeader) (domain.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.ImageFile{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, domain.MaxImageSize+1))
	if err != nil {
		return domain.ImageFile{}, err
	}

	return domain.ImageFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
