package routes

import (
	"net/http"

	"finchat-backend/internal/handlers"

	"github.com/gorilla/mux"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	Health http.HandlerFunc
	Home   http.HandlerFunc

	Documents *handlers.DocumentHandler
	Chat      *handlers.ChatHandler
	Visualize *handlers.VisualizeHandler
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(router *mux.Router, h *Handlers) {
	// Health endpoints
	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Document QA
	router.HandleFunc("/process-document", h.Documents.ProcessDocument).Methods(http.MethodPost)
	router.HandleFunc("/check-documents", h.Documents.CheckDocuments).Methods(http.MethodGet)
	router.HandleFunc("/documents", h.Documents.ListDocuments).Methods(http.MethodGet)
	router.HandleFunc("/clear-uploads", h.Documents.ClearUploads).Methods(http.MethodDelete)
	router.HandleFunc("/doc-chat", h.Chat.DocChat).Methods(http.MethodPost)

	// Visualization
	router.HandleFunc("/save-visualize-data", h.Visualize.SaveData).Methods(http.MethodPost)
	router.HandleFunc("/visualize", h.Visualize.Visualize).Methods(http.MethodPost)

	// Main routes
	router.HandleFunc("/", h.Home).Methods(http.MethodGet)
}
