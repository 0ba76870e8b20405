package expense

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

// Handler handles HTTP requests for expense operations
type Handler struct {
	service *Service
}

// NewHandler creates a new expense handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register adds the expense endpoints to r. Settlement endpoints share the
// same /expenses prefix, so both handlers register on one router.
func (h *Handler) Register(r chi.Router) {
	// {id} is the group here; one segment takes one param name.
	r.Post("/{id}/expenses", h.Create)
	r.Get("/group/{groupId}/expenses", h.ListByGroup)
	r.Get("/group/{groupId}/expenses/", h.ListByGroup)
	r.Delete("/group/{groupId}/expense/{id}", h.Delete)

	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)
}

// Create handles POST /expenses/{id}/expenses
// @Summary      Create a new expense
// @Description  Create an expense split equally or by custom amounts. Equal splits without participants are shared by every active member.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID" format(uuid)
// @Param        request body CreateExpenseRequest true "Expense creation request"
// @Success      201 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /expenses/{id}/expenses [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var req CreateExpenseRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.service.CreateExpense(r.Context(), groupID, userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, result)
}

// GetByID handles GET /expenses/{id}
// @Summary      Get expense by ID
// @Description  Get an expense with all its splits
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.service.GetExpenseByID(r.Context(), id, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// ListByGroup handles GET /expenses/group/{groupId}/expenses/
// @Summary      List expenses by group
// @Description  Get a page of a group's expenses, newest first
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID" format(uuid)
// @Param        skip query int false "Entries to skip" default(0)
// @Param        limit query int false "Page size" default(100) maximum(1000)
// @Param        created_by query string false "Only expenses created by this user" format(uuid)
// @Param        min_amount query number false "Minimum total amount"
// @Param        max_amount query number false "Maximum total amount"
// @Success      200 {object} response.APIResponse{data=[]ExpenseResponse,meta=response.Meta}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /expenses/group/{groupId}/expenses/ [get]
func (h *Handler) ListByGroup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "groupId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	req, err := parseListRequest(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	expenses, total, err := h.service.ListExpensesByGroupID(r.Context(), groupID, userID, req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	meta := &response.Meta{
		Skip:  req.Page.Skip,
		Limit: req.Page.Limit,
		Total: total,
	}
	response.JSONWithMeta(w, http.StatusOK, expenses, meta)
}

// Update handles PUT /expenses/{id}
// @Summary      Update an expense
// @Description  Patch title, description, amount, split type or splits. Only the creator or a group admin may update.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body UpdateExpenseRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=ExpenseResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /expenses/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	id, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var req UpdateExpenseRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := h.service.UpdateExpense(r.Context(), id, userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

// Delete handles DELETE /expenses/group/{groupId}/expense/{id}
// @Summary      Delete an expense
// @Description  Delete an expense and its splits. Only the creator or a group admin may delete.
// @Tags         expenses
// @Produce      json
// @Security     BearerAuth
// @Param        groupId path string true "Group ID" format(uuid)
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /expenses/group/{groupId}/expense/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteExpense(r.Context(), groupID, id, userID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

func parseListRequest(r *http.Request) (ListExpensesRequest, error) {
	var req ListExpensesRequest
	var err error
	if req.Page, err = request.Page(r, DefaultLimit, MaxLimit); err != nil {
		return req, err
	}
	if req.Filter.CreatedBy, err = request.QueryUUID(r, "created_by"); err != nil {
		return req, err
	}
	if req.Filter.MinAmount, err = request.QueryAmount(r, "min_amount"); err != nil {
		return req, err
	}
	if req.Filter.MaxAmount, err = request.QueryAmount(r, "max_amount"); err != nil {
		return req, err
	}
	return req, nil
}

