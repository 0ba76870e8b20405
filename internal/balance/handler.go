package balance

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/groupledger/pkg/middleware"
	"github.com/fkhayef/groupledger/pkg/request"
	"github.com/fkhayef/groupledger/pkg/response"
)

// Handler serves the caller's balances
type Handler struct {
	service *Service
}

// NewHandler creates a new balance handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router mounted at /user
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/balances", h.UserBalances)
	r.Get("/groups/{groupId}/balances", h.GroupBalances)
	r.Get("/groups/{groupId}/balances/{userId}", h.PairBalance)
	r.Get("/groups/{groupId}/settle-up", h.SettleUp)

	return r
}

// UserBalances handles GET /user/balances
// @Summary      Balances across all groups
// @Description  One entry per (group, other member) with a nonzero balance
// @Tags         balances
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.APIResponse{data=[]PairwiseBalance}
// @Router       /user/balances [get]
func (h *Handler) UserBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	balances, err := h.service.UserBalances(r.Context(), userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, balances)
}

// GroupBalances handles GET /user/groups/{groupId}/balances
// @Summary      Balances within one group
// @Tags         balances
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID" format(uuid)
// @Success      200 {object} response.APIResponse{data=[]PairwiseBalance}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /user/groups/{groupId}/balances [get]
func (h *Handler) GroupBalances(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	balances, err := h.service.GroupBalances(r.Context(), groupID, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, balances)
}

// PairBalance handles GET /user/groups/{groupId}/balances/{userId}
// @Summary      Balance with one member
// @Description  The amount may be zero
// @Tags         balances
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID" format(uuid)
// @Param        userId path string true "Other member" format(uuid)
// @Success      200 {object} response.APIResponse{data=PairwiseBalance}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /user/groups/{groupId}/balances/{userId} [get]
func (h *Handler) PairBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	otherID, err := request.PathUUID(r, "userId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	balance, err := h.service.PairBalance(r.Context(), groupID, userID, otherID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, balance)
}

// SettleUp handles GET /user/groups/{groupId}/settle-up
// @Summary      Suggested transfers
// @Description  Transfers that would clear every balance in the group
// @Tags         balances
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID" format(uuid)
// @Success      200 {object} response.APIResponse{data=[]TransferResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /user/groups/{groupId}/settle-up [get]
func (h *Handler) SettleUp(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	transfers, err := h.service.SettleUp(r.Context(), groupID, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, transfers)
}
