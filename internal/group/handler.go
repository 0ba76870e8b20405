package group

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/groupledger/pkg/middleware"
	"github.com/fkhayef/groupledger/pkg/request"
	"github.com/fkhayef/groupledger/pkg/response"
)

// Handler handles HTTP requests for group operations
type Handler struct {
	service *Service
}

// NewHandler creates a new group handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for group endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Put("/{id}", h.Update)

	// Member management
	r.Post("/{id}/members", h.AddMember)
	r.Get("/{id}/members", h.GetMembers)
	r.Put("/{id}/members/{userId}", h.UpdateMember)
	r.Delete("/{id}/members/{userId}", h.RemoveMember)

	return r
}

// Create handles POST /groups
// @Summary      Create a new group
// @Description  Create a new group and add creator as admin
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateGroupRequest true "Group creation request"
// @Success      201 {object} response.APIResponse{data=GroupResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /groups [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	creatorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}

	var req CreateGroupRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	group, err := h.service.Create(r.Context(), creatorID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, group)
}

// GetByID handles GET /groups/{id}
// @Summary      Get group by ID
// @Description  Get a group with all its members
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID" format(uuid)
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id} [get]
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

	group, err := h.service.GetByIDWithMembers(r.Context(), id, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, group)
}

// List handles GET /groups
// @Summary      List my groups
// @Description  Get a page of the groups the current user belongs or belonged to
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        skip query int false "Entries to skip" default(0)
// @Param        limit query int false "Page size" default(20) maximum(100)
// @Success      200 {object} response.APIResponse{data=[]GroupResponse,meta=response.Meta}
// @Router       /groups [get]
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

	groups, total, err := h.service.ListByUserID(r.Context(), userID, page)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, groups, &response.Meta{
		Skip:  page.Skip,
		Limit: page.Limit,
		Total: total,
	})
}

// Update handles PUT /groups/{id}
// @Summary      Update a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID" format(uuid)
// @Param        request body UpdateGroupRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=GroupResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id} [put]
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

	var req UpdateGroupRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	group, err := h.service.Update(r.Context(), id, userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, group)
}

// AddMember handles POST /groups/{id}/members
// @Summary      Add a member
// @Tags         members
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID" format(uuid)
// @Param        request body AddMemberRequest true "Member to add"
// @Success      201 {object} response.APIResponse{data=MemberResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /groups/{id}/members [post]
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var req AddMemberRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	member, err := h.service.AddMember(r.Context(), groupID, userID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, member)
}

// GetMembers handles GET /groups/{id}/members
func (h *Handler) GetMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	members, err := h.service.GetMembers(r.Context(), groupID, userID)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, members)
}

// UpdateMember handles PUT /groups/{id}/members/{userId}
func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	memberID, err := request.PathUUID(r, "userId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	var req UpdateMemberRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	member, err := h.service.UpdateMember(r.Context(), groupID, actorID, memberID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, member)
}

// RemoveMember handles DELETE /groups/{id}/members/{userId}
// @Summary      Remove a member or leave
// @Description  Refused while the member has a nonzero balance in the group
// @Tags         members
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Group ID" format(uuid)
// @Param        userId path string true "Member to remove" format(uuid)
// @Success      200 {object} response.APIResponse
// @Failure      403 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /groups/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.RequireUserID(w, r)
	if !ok {
		return
	}
	groupID, err := request.PathUUID(r, "id")
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	memberID, err := request.PathUUID(r, "userId")
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.service.RemoveMember(r.Context(), groupID, actorID, memberID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"message": "Member removed successfully"})
}
