package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tailorly/tailor-server-go/internal/middleware"
	"github.com/tailorly/tailor-server-go/internal/service"
)

type ApplicationsHandler struct {
	appService  *service.ApplicationService
	convService *service.ConversationService
}

func NewApplicationsHandler(appService *service.ApplicationService, convService *service.ConversationService) *ApplicationsHandler {
	return &ApplicationsHandler{
		appService:  appService,
		convService: convService,
	}
}

func (h *ApplicationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/applications", h.ListApplications)
	r.Get("/applications/{id}", h.GetApplication)
	r.Get("/conversations", h.ListConversations)
	r.Get("/conversations/{id}/messages", h.ListMessages)

	return r
}

// GET /v1/applications
func (h *ApplicationsHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	pagination := ParsePagination(r)
	apps, err := h.appService.List(r.Context(), account.ID, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"applications": apps,
		"limit":        pagination.Limit,
		"offset":       pagination.Offset,
	})
}

// GET /v1/applications/{id}
func (h *ApplicationsHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	app, err := h.appService.Get(r.Context(), account.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"application": app})
}

// GET /v1/conversations
func (h *ApplicationsHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	pagination := ParsePagination(r)
	convs, err := h.convService.List(r.Context(), account.ID, pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": convs,
		"limit":         pagination.Limit,
		"offset":        pagination.Offset,
	})
}

// GET /v1/conversations/{id}/messages
func (h *ApplicationsHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	account := middleware.GetAccount(r.Context())
	if account == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	pagination := ParsePagination(r)
	msgs, err := h.convService.Messages(r.Context(), account.ID, chi.URLParam(r, "id"), pagination.Limit, pagination.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"limit":    pagination.Limit,
		"offset":   pagination.Offset,
	})
}
