package handlers

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"finchat-backend/internal/chart"
	"finchat-backend/internal/models"
	"finchat-backend/internal/session"
)

// VisualizeHandler handles dataset upload and chart generation.
type VisualizeHandler struct {
	charts    *chart.Service
	sessions  *session.Manager
	uploadDir string
	logger    *log.Logger
}

// NewVisualizeHandler creates a new visualize handler.
func NewVisualizeHandler(charts *chart.Service, sessions *session.Manager, uploadDir string, logger *log.Logger) *VisualizeHandler {
	return &VisualizeHandler{
		charts:    charts,
		sessions:  sessions,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// SaveData stores an uploaded dataset for the session
// @Summary Upload a CSV or XLSX dataset for visualization
// @Tags visualize
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param session_id formData string false "Session ID"
// @Success 200 {object} models.BasicResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /save-visualize-data [post]
func (h *VisualizeHandler) SaveData(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(50 << 20); err != nil {
		h.sendError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".csv" && ext != ".xlsx" {
		h.sendError(w, http.StatusBadRequest, "Only CSV and XLSX files are supported")
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.logger.Printf("Failed to create upload directory: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to save dataset")
		return
	}

	path := filepath.Join(h.uploadDir, header.Filename)
	out, err := os.Create(path)
	if err != nil {
		h.logger.Printf("Failed to create dataset file: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to save dataset")
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		h.logger.Printf("Failed to write dataset file: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to save dataset")
		return
	}

	sess := h.sessions.Get(r.FormValue("session_id"))
	sess.SetDataset(header.Filename)

	h.logger.Printf("Saved dataset %s for session %s", header.Filename, sess.ID)
	h.sendJSON(w, http.StatusOK, models.BasicResponse{
		Status:  "success",
		Message: "Dataset saved",
	})
}

// Visualize generates a chart from the session's dataset
// @Summary Generate a chart from the uploaded dataset
// @Description Returns PNG bytes, or a JSON triple of base64 PNG, selected data, and explanation when explain is true
// @Tags visualize
// @Accept json
// @Produce png
// @Produce json
// @Param request body models.VisualizeRequest true "Chart request"
// @Success 200 {object} models.VisualizeExplainResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /visualize [post]
func (h *VisualizeHandler) Visualize(w http.ResponseWriter, r *http.Request) {
	var req models.VisualizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Prompt == "" {
		h.sendError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	sess := h.sessions.Get(req.SessionID)
	filename := sess.Dataset()
	if filename == "" {
		h.sendError(w, http.StatusNotFound, "No dataset uploaded for this session")
		return
	}

	// Datasets are small; load fresh so a re-upload takes effect immediately.
	f, err := os.Open(filepath.Join(h.uploadDir, filename))
	if err != nil {
		h.logger.Printf("Failed to open dataset %s: %v", filename, err)
		h.sendError(w, http.StatusNotFound, "Dataset file missing, upload it again")
		return
	}
	defer f.Close()

	ds, err := chart.LoadDataset(filename, f)
	if err != nil {
		h.sendChartError(w, err)
		return
	}

	result, err := h.charts.MakeChart(r.Context(), ds, req.Prompt, req.Explain)
	if err != nil {
		h.sendChartError(w, err)
		return
	}

	if !req.Explain {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(result.PNG); err != nil {
			h.logger.Printf("Failed to write PNG: %v", err)
		}
		return
	}

	var graphData interface{}
	if err := json.Unmarshal([]byte(result.ChartData), &graphData); err != nil {
		graphData = result.ChartData
	}
	h.sendJSON(w, http.StatusOK, models.VisualizeExplainResponse{
		Graph:            base64.StdEncoding.EncodeToString(result.PNG),
		GraphData:        graphData,
		GraphExplanation: result.Explanation,
	})
}

// sendChartError maps generation failures to 404 and everything else to
// 500.
func (h *VisualizeHandler) sendChartError(w http.ResponseWriter, err error) {
	h.logger.Printf("Chart generation failed: %v", err)

	if errors.Is(err, chart.ErrNoChartSpec) {
		h.sendError(w, http.StatusNotFound, "Model produced no chart for this request")
		return
	}
	var pipeErr *models.PipelineError
	if errors.As(err, &pipeErr) {
		h.sendError(w, http.StatusNotFound, pipeErr.Message)
		return
	}
	h.sendError(w, http.StatusInternalServerError, "Failed to generate chart")
}

func (h *VisualizeHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *VisualizeHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
