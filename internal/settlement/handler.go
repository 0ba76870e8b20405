package settlement

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/groupledger/pkg/middleware"
	"github.com/fkhayef/groupledger/pkg/request"
	"github.com/fkhayef/groupledger/pkg/response"
)

// Listing limits
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Handler handles HTTP requests for settlement operations
type Handler struct {
	service *Service
}

// NewHandler creates a new settlement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register adds the settlement endpoints to the /expenses router
func (h *Handler) Register(r chi.Router) {
	r.Post("/group/user/settlement", h.Create)
	r.Delete("/group/user/settlement", h.Delete)
	r.Get("/group/{groupId}/settlements", h.List)
	r.Get("/group/{groupId}/settlement/{id}", h.GetByID)
}

// Create handles POST /expenses/group/user/settlement
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req CreateSettlementRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	settlement, err := h.service.CreateSettlement(r.Context(), userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, settlement)
}

// List handles GET /expenses/group/{groupId}/settlements
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var req ListSettlementsRequest
	if req.Page, err = request.Page(r, DefaultLimit, MaxLimit); err != nil {
		response.FromError(w, r, err)
		return
	}
	if req.Filter.PaidBy, err = request.QueryUUID(r, "paid_by"); err != nil {
		response.FromError(w, r, err)
		return
	}
	if req.Filter.PaidTo, err = request.QueryUUID(r, "paid_to"); err != nil {
		response.FromError(w, r, err)
		return
	}

	settlements, total, err := h.service.ListSettlements(r.Context(), groupID, userID, req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, settlements, &response.Meta{
		Skip:  req.Page.Skip,
		Limit: req.Page.Limit,
		Total: total,
	})
}

// GetByID handles GET /expenses/group/{groupId}/settlement/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	id, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	settlement, err := h.service.GetSettlement(r.Context(), groupID, id, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, settlement)
}

// Delete handles DELETE /expenses/group/user/settlement?settlement_id=&group_id=
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := request.RequiredQueryUUID(r, "settlement_id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	groupID, err := request.RequiredQueryUUID(r, "group_id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.service.DeleteSettlement(r.Context(), groupID, id, userID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Settlement deleted successfully"})
}
