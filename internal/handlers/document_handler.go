package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"finchat-backend/internal/models"
	"finchat-backend/internal/repositories"
	"finchat-backend/internal/services"
	"finchat-backend/internal/session"
)

// DocumentHandler handles document upload and registry endpoints.
type DocumentHandler struct {
	ingest    *services.IngestService
	registry  repositories.DocumentRegistry
	sessions  *session.Manager
	uploadDir string
	logger    *log.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(
	ingest *services.IngestService,
	registry repositories.DocumentRegistry,
	sessions *session.Manager,
	uploadDir string,
	logger *log.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		ingest:    ingest,
		registry:  registry,
		sessions:  sessions,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// ProcessDocument handles PDF upload and ingestion
// @Summary Upload and process a financial document
// @Description Partition, chunk, embed, and index a PDF for question answering
// @Tags documents
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file"
// @Param session_id formData string false "Session ID"
// @Success 200 {object} models.DocumentResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /process-document [post]
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	h.logger.Printf("Process document request from %s", r.RemoteAddr)

	// Parse multipart form (max 100MB)
	if err := r.ParseMultipartForm(100 << 20); err != nil {
		h.logger.Printf("Failed to parse form: %v", err)
		h.sendError(w, http.StatusBadRequest, "Failed to parse form data")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Printf("No file uploaded: %v", err)
		h.sendError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		h.sendError(w, http.StatusBadRequest, "Only PDF files are supported")
		return
	}

	sess := h.sessions.Get(r.FormValue("session_id"))

	doc, err := h.ingest.IngestPDF(r.Context(), header.Filename, file, header.Size)
	if err != nil {
		h.logger.Printf("Ingestion failed: %v", err)
		var pipeErr *models.PipelineError
		if errors.As(err, &pipeErr) {
			h.sendError(w, http.StatusNotFound, pipeErr.Message)
		} else {
			h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("Processing failed: %v", err))
		}
		return
	}

	sess.SetDocument(doc.Filename, doc.Collection)

	h.sendJSON(w, http.StatusOK, models.DocumentResponse{
		Status:   "success",
		Response: fmt.Sprintf("Stored %d chunks from %d pages", doc.ChunkCount, doc.PageCount),
	})
}

// CheckDocumentsResponse reports how many documents are registered.
type CheckDocumentsResponse struct {
	Status        string `json:"status"`
	DocumentCount int    `json:"document_count"`
}

// CheckDocuments reports whether any documents have been ingested
// @Summary Check ingested documents
// @Tags documents
// @Produce json
// @Success 200 {object} CheckDocumentsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /check-documents [get]
func (h *DocumentHandler) CheckDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Printf("Failed to list documents: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to check documents")
		return
	}

	h.sendJSON(w, http.StatusOK, CheckDocumentsResponse{
		Status:        "success",
		DocumentCount: len(docs),
	})
}

// DocumentListResponse is the registry listing body.
type DocumentListResponse struct {
	Documents []*models.Document `json:"documents"`
	Count     int                `json:"count"`
}

// ListDocuments returns all registry records
// @Summary List documents
// @Tags documents
// @Produce json
// @Success 200 {object} DocumentListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /documents [get]
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Printf("Failed to list documents: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	h.sendJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Count: len(docs)})
}

// ClearUploadsResponse reports how many uploaded files were removed.
type ClearUploadsResponse struct {
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// ClearUploads deletes everything in the upload directory
// @Summary Clear uploaded files
// @Tags documents
// @Produce json
// @Success 200 {object} ClearUploadsResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /clear-uploads [delete]
func (h *DocumentHandler) ClearUploads(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			h.sendJSON(w, http.StatusOK, ClearUploadsResponse{Message: "Upload directory already empty"})
			return
		}
		h.logger.Printf("Failed to read upload directory: %v", err)
		h.sendError(w, http.StatusInternalServerError, "Failed to read upload directory")
		return
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(h.uploadDir, entry.Name())); err != nil {
			h.logger.Printf("Failed to delete %s: %v", entry.Name(), err)
			continue
		}
		deleted++
	}

	h.logger.Printf("Cleared %d uploaded files", deleted)
	h.sendJSON(w, http.StatusOK, ClearUploadsResponse{
		Message: "Uploads cleared",
		Deleted: deleted,
	})
}

func (h *DocumentHandler) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *DocumentHandler) sendError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}
