package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agroprice/internal/domain"
	"agroprice/internal/export"
	"agroprice/internal/handler"
	"agroprice/internal/middleware"
	"agroprice/internal/service"
	"agroprice/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setAuthContext(c *gin.Context, userID uuid.UUID, role string) {
	c.Set(middleware.ContextKeyUserID, userID)
	c.Set(middleware.ContextKeyRole, role)
}

type formImage struct {
	name        string
	contentType string
	data        []byte
}

func multipartBody(t *testing.T, images []formImage, rate string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, img.name))
		h.Set("Content-Type", img.contentType)
		part, err := writer.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(img.data)
		require.NoError(t, err)
	}
	if rate != "" {
		require.NoError(t, writer.WriteField("exchangeRate", rate))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00}

func TestPriceTrendHandler_CreateParseTask_Accepted(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)
	userID := uuid.New()

	svc.On("CreateTask", mock.Anything, mock.MatchedBy(func(in service.CreateTaskInput) bool {
		return len(in.Images) == 2 &&
			in.Images[0].Name == "week1.png" &&
			in.Images[0].ContentType == "image/png" &&
			bytes.Equal(in.Images[0].Data, pngBytes) &&
			in.ExchangeRate == 7.25 &&
			in.CreatedBy == userID
	})).Return(&service.CreateTaskOutput{TaskID: "task-1", TotalImages: 2, EstimatedTime: "about 30 seconds"}, nil)

	body, ct := multipartBody(t, []formImage{
		{"week1.png", "image/png", pngBytes},
		{"week2.png", "image/png", pngBytes},
	}, "7.25")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/price-data", body)
	c.Request.Header.Set("Content-Type", ct)
	setAuthContext(c, userID, "admin")

	h.CreateParseTask(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "task-1", data["taskId"])
	assert.Equal(t, float64(2), data["totalImages"])
	svc.AssertExpectations(t)
}

func TestPriceTrendHandler_CreateParseTask_NoImages(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	body, ct := multipartBody(t, nil, "7.1")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/price-data", body)
	c.Request.Header.Set("Content-Type", ct)
	setAuthContext(c, uuid.New(), "admin")

	h.CreateParseTask(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestPriceTrendHandler_CreateParseTask_TooManyImages(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	images := make([]formImage, domain.MaxImagesPerTask+1)
	for i := range images {
		images[i] = formImage{fmt.Sprintf("p%d.png", i), "image/png", pngBytes}
	}
	body, ct := multipartBody(t, images, "7.1")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/price-data", body)
	c.Request.Header.Set("Content-Type", ct)
	setAuthContext(c, uuid.New(), "admin")

	h.CreateParseTask(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Contains(t, resp.Error.Message, "at most 10 images")
	svc.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestPriceTrendHandler_CreateParseTask_InvalidExchangeRate(t *testing.T) {
	for _, rate := range []string{"", "abc", "0", "-3"} {
		t.Run(rate, func(t *testing.T) {
			svc := new(mocks.MockPriceParseService)
			h := handler.NewPriceTrendHandler(svc)

			body, ct := multipartBody(t, []formImage{{"a.png", "image/png", pngBytes}}, rate)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/price-data", body)
			c.Request.Header.Set("Content-Type", ct)
			setAuthContext(c, uuid.New(), "admin")

			h.CreateParseTask(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
			assert.Contains(t, resp.Error.Message, "exchangeRate")
		})
	}
}

func TestPriceTrendHandler_CreateParseTask_QueueFull(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	svc.On("CreateTask", mock.Anything, mock.Anything).Return(nil, domain.ErrTaskPoolFull)

	body, ct := multipartBody(t, []formImage{{"a.png", "image/png", pngBytes}}, "7")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/price-data", body)
	c.Request.Header.Set("Content-Type", ct)
	setAuthContext(c, uuid.New(), "admin")

	h.CreateParseTask(c)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestPriceTrendHandler_CreateParseTask_MissingAuth(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	body, ct := multipartBody(t, []formImage{{"a.png", "image/png", pngBytes}}, "7")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/price-data", body)
	c.Request.Header.Set("Content-Type", ct)

	h.CreateParseTask(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPriceTrendHandler_GetTaskStatus(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	task := &domain.ParseTask{ID: "task-1", Status: domain.TaskStatusProcessing, TotalImages: 3, ProcessedImages: 1, Progress: 33}
	svc.On("GetTaskStatus", mock.Anything, "task-1").Return(task, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/price-trends/task-status/task-1", http.NoBody)
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	h.GetTaskStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "processing", data["status"])
	assert.Equal(t, float64(33), data["progress"])
}

func TestPriceTrendHandler_GetTaskStatus_NotFound(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	svc.On("GetTaskStatus", mock.Anything, "missing").Return(nil, domain.ErrTaskNotFound)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/price-trends/task-status/missing", http.NoBody)
	c.Params = gin.Params{{Key: "taskId", Value: "missing"}}

	h.GetTaskStatus(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "TASK_NOT_FOUND", resp.Error.Code)
}

func TestPriceTrendHandler_ListTasks(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	svc.On("ListTasks", mock.Anything).Return([]domain.ParseTask{{ID: "b"}, {ID: "a"}}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/price-trends/tasks", http.NoBody)

	h.ListTasks(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Len(t, resp.Data.([]interface{}), 2)
}

func TestPriceTrendHandler_CancelTask(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"running", nil, http.StatusOK},
		{"finished", domain.ErrTaskFinished, http.StatusConflict},
		{"unknown", domain.ErrTaskNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockPriceParseService)
			h := handler.NewPriceTrendHandler(svc)
			svc.On("CancelTask", mock.Anything, "task-1").Return(tt.err)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/task-status/task-1/cancel", http.NoBody)
			c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

			h.CancelTask(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func exportTask() *domain.ParseTask {
	return &domain.ParseTask{
		ID:           "task-1",
		Status:       domain.TaskStatusCompleted,
		ExchangeRate: 7.2,
		ImageResults: []domain.ImageResult{{
			ImageIndex:  1,
			ImageName:   "a.png",
			ParseStatus: domain.ParseStatusSuccess,
			ParsedData:  []domain.ParsedPriceRecord{{ProductName: "Glyphosate", WeekEndDate: "2025-01-10", UnitPrice: 23500}},
		}},
	}
}

func TestPriceTrendHandler_ExportTask_CSV(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)
	svc.On("GetTaskStatus", mock.Anything, "task-1").Return(exportTask(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/price-trends/task-status/task-1/export", http.NoBody)
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	h.ExportTask(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "price_data_task-1_")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), export.BOM))
	assert.Contains(t, w.Body.String(), "Glyphosate,2025-01-10,23500,7.2")
}

func TestPriceTrendHandler_ExportTask_XLSX(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)
	svc.On("GetTaskStatus", mock.Anything, "task-1").Return(exportTask(), nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/price-trends/task-status/task-1/export?format=xlsx", http.NoBody)
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	h.ExportTask(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.FormatXLSX.ContentType(), w.Header().Get("Content-Type"))
	assert.True(t, strings.HasSuffix(strings.Trim(w.Header().Get("Content-Disposition"), `"`), ".xlsx"))
	// XLSX files are zip archives.
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))
}

func TestPriceTrendHandler_ExportTask_BadFormat(t *testing.T) {
	svc := new(mocks.MockPriceParseService)
	h := handler.NewPriceTrendHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/admin/price-trends/task-status/task-1/export?format=pdf", http.NoBody)
	c.Params = gin.Params{{Key: "taskId", Value: "task-1"}}

	h.ExportTask(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "GetTaskStatus", mock.Anything, mock.Anything)
}

func TestPriceTrendHandler_SavePriceData(t *testing.T) {
	tests := []struct {
		name        string
		result      *domain.SaveResult
		wantSuccess bool
	}{
		{
			name:        "all saved",
			result:      &domain.SaveResult{TotalItems: 2, SuccessfulSaves: 2},
			wantSuccess: true,
		},
		{
			name:        "partial failure still succeeds",
			result:      &domain.SaveResult{TotalItems: 3, SuccessfulSaves: 1, FailedSaves: 2, Errors: []string{"x", "y"}},
			wantSuccess: true,
		},
		{
			name:        "all duplicates skipped",
			result:      &domain.SaveResult{TotalItems: 2, SkippedSaves: 2},
			wantSuccess: true,
		},
		{
			name:        "nothing saved",
			result:      &domain.SaveResult{TotalItems: 2, FailedSaves: 2, Errors: []string{"x", "y"}},
			wantSuccess: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockPriceParseService)
			h := handler.NewPriceTrendHandler(svc)

			svc.On("SavePriceData", mock.Anything, mock.MatchedBy(func(in service.SavePriceDataInput) bool {
				return in.TaskID == "task-1" && in.ExchangeRate == 7.1 && len(in.PriceData) == 1
			})).Return(tt.result, nil)

			payload := `{"taskId":"task-1","exchangeRate":7.1,"priceData":[{"productName":"Glyphosate","weekEndDate":"2025-01-10","unitPrice":23500}]}`
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/save-price-data", strings.NewReader(payload))
			c.Request.Header.Set("Content-Type", "application/json")

			h.SavePriceData(c)

			assert.Equal(t, http.StatusOK, w.Code)
			resp := decodeResponse(t, w)
			assert.Equal(t, tt.wantSuccess, resp.Success)
			data := resp.Data.(map[string]interface{})
			assert.Equal(t, tt.wantSuccess, data["success"])
			assert.Equal(t, float64(tt.result.SkippedSaves), data["skippedSaves"])
			svc.AssertExpectations(t)
		})
	}
}

func TestPriceTrendHandler_SavePriceData_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
	}{
		{"malformed json", `{"exchangeRate":`, nil, http.StatusBadRequest},
		{"validation", `{"exchangeRate":0,"priceData":[]}`, domain.NewValidationError("exchangeRate", "must be greater than 0"), http.StatusBadRequest},
		{"unknown task", `{"taskId":"nope"}`, domain.ErrTaskNotFound, http.StatusNotFound},
		{"catalog down", `{"exchangeRate":7,"priceData":[{"productName":"a","weekEndDate":"2025-01-10","unitPrice":1}]}`, errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockPriceParseService)
			h := handler.NewPriceTrendHandler(svc)
			if tt.svcErr != nil {
				svc.On("SavePriceData", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/admin/price-trends/save-price-data", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			h.SavePriceData(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, decodeResponse(t, w).Success)
		})
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.NewValidationError("images", "bad"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{fmt.Errorf("wrapped: %w", domain.ErrTaskNotFound), http.StatusNotFound, "TASK_NOT_FOUND"},
		{&domain.NotFoundError{Resource: "pesticide", IDs: []string{"x"}}, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrTaskFinished, http.StatusConflict, "TASK_FINISHED"},
		{domain.ErrTaskPoolClosed, http.StatusServiceUnavailable, "SHUTTING_DOWN"},
		{&domain.ExtractionError{Kind: domain.ExtractionNetwork, Message: "boom"}, http.StatusBadGateway, "EXTRACTION_FAILED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{errors.New("other"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		status, code, _ := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.wantStatus, status, tt.err.Error())
		assert.Equal(t, tt.wantCode, code, tt.err.Error())
	}
}
