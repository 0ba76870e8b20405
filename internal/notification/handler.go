package notification

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fkhayef/groupledger/internal/models"
	"github.com/fkhayef/groupledger/pkg/middleware"
	"github.com/fkhayef/groupledger/pkg/request"
	"github.com/fkhayef/groupledger/pkg/response"
)

// Handler handles HTTP requests for notification operations
type Handler struct {
	service *Service
}

// NewHandler creates a new notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for notification endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Get("/unread-count", h.GetUnreadCount)
	r.Post("/{id}/read", h.MarkAsRead)
	r.Post("/read-all", h.MarkAllAsRead)

	return r
}

// NotificationResponse represents the response for a notification
type NotificationResponse struct {
	ID         uuid.UUID               `json:"id"`
	GroupID    *uuid.UUID              `json:"group_id,omitempty"`
	Type       models.NotificationType `json:"type"`
	Message    string                  `json:"message"`
	IsRead     bool                    `json:"is_read"`
	EntityType string                  `json:"related_entity_type,omitempty"`
	EntityID   *uuid.UUID              `json:"related_entity_id,omitempty"`
	CreatedAt  string                  `json:"created_at"`
}

func toResponse(n *models.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:         n.ID,
		GroupID:    n.GroupID,
		Type:       n.Type,
		Message:    n.Message,
		IsRead:     n.IsRead,
		EntityType: n.EntityType,
		EntityID:   n.EntityID,
		CreatedAt:  n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// List handles GET /notifications
// @Summary      List my notifications
// @Description  Newest first. meta.unread carries the caller's unread count.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread_only query bool false "Only unread notifications"
// @Param        skip query int false "Entries to skip" default(0)
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Success      200 {object} response.APIResponse{data=[]NotificationResponse,meta=response.Meta}
// @Router       /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	page, err := request.Page(r, 20, 100)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	unreadOnly := request.QueryBool(r, "unread_only")

	notifications, total, unread, err := h.service.ListByRecipientID(r.Context(), userID, page, unreadOnly)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSONWithMeta(w, http.StatusOK, notifications, &response.Meta{
		Skip:   page.Skip,
		Limit:  page.Limit,
		Total:  total,
		Unread: unread,
	})
}

// GetUnreadCount handles GET /notifications/unread-count
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	count, err := h.service.GetUnreadCount(r.Context(), userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]int{"unread_count": count})
}

// MarkAsRead handles POST /notifications/{id}/read
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, userID); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllAsRead handles POST /notifications/read-all
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkAllAsRead(r.Context(), userID); err != nil {
		response.FromError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "All notifications marked as read"})
}
