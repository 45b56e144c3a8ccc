package group

import (
	"encoding/json"
	"net/http"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/logger"
	"github.com/futig/urlchat-backend/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase GroupUsecase
}

func NewHandler(usecase GroupUsecase) *Handler {
	return &Handler{usecase: usecase}
}

// CreateGroup handles POST /groups
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateGroup")

	var req entity.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.usecase.CreateGroup(ctx, &req)
	if err != nil {
		ctxzap.Error(ctx, "failed to create group", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Created(w, toGroupDTO(created))
}

// ListGroups handles GET /groups
func (h *Handler) ListGroups(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListGroups")

	groups, err := h.usecase.ListGroups(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to list groups", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, toGroupDTOs(groups))
}

// GetActiveGroup handles GET /groups/active
func (h *Handler) GetActiveGroup(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetActiveGroup")

	active, err := h.usecase.GetActive(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to get active group", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, toGroupDTO(active))
}

// DeleteGroup handles DELETE /groups/{group_id}
func (h *Handler) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	ctx := logger.WithGroupID(logger.WithAction(r.Context(), "DeleteGroup"), groupID)

	if err := h.usecase.DeleteGroup(ctx, groupID); err != nil {
		ctxzap.Error(ctx, "failed to delete group", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}

// ActivateGroup handles POST /groups/{group_id}/activate
func (h *Handler) ActivateGroup(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	ctx := logger.WithGroupID(logger.WithAction(r.Context(), "ActivateGroup"), groupID)

	switched, err := h.usecase.SwitchGroup(ctx, groupID)
	if err != nil {
		ctxzap.Error(ctx, "failed to switch group", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, toGroupDTO(switched))
}

// AddURL handles POST /groups/{group_id}/urls
func (h *Handler) AddURL(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	ctx := logger.WithGroupID(logger.WithAction(r.Context(), "AddURL"), groupID)

	var req entity.AddURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.usecase.AddURL(ctx, groupID, req.URL)
	if err != nil {
		ctxzap.Error(ctx, "failed to add url", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	ctxzap.Info(ctx, "url added", zap.Int("url_count", len(updated.URLs)))
	response.Success(w, toGroupDTO(updated))
}

// RemoveURL handles DELETE /groups/{group_id}/urls
func (h *Handler) RemoveURL(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "group_id")
	ctx := logger.WithGroupID(logger.WithAction(r.Context(), "RemoveURL"), groupID)

	var req entity.RemoveURLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.usecase.RemoveURL(ctx, groupID, req.URL)
	if err != nil {
		ctxzap.Error(ctx, "failed to remove url", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, toGroupDTO(updated))
}
