package chat

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
	"github.com/futig/urlchat-backend/internal/pkg/formatter"
	"github.com/futig/urlchat-backend/internal/pkg/logger"
	"github.com/futig/urlchat-backend/internal/pkg/response"
	"github.com/futig/urlchat-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Handler struct {
	usecase   ChatUsecase
	cfg       config.FileUploadConfig
	validator *validator.Validator
}

func NewHandler(usecase ChatUsecase, cfg config.FileUploadConfig, validator *validator.Validator) *Handler {
	return &Handler{
		usecase:   usecase,
		cfg:       cfg,
		validator: validator,
	}
}

// GetMessages handles GET /chat/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetMessages")

	messages, err := h.usecase.GetMessages(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to list messages", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, toMessageDTOs(messages))
}

// Ask handles POST /chat/ask
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Ask")

	var req entity.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ctxzap.Warn(ctx, "failed to decode request body", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer, err := h.usecase.Ask(ctx, &req)
	if err != nil {
		ctxzap.Error(ctx, "failed to answer question", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, toMessageDTO(answer))
}

// GetSuggestions handles GET /chat/suggestions
func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetSuggestions")

	suggestions, err := h.usecase.Suggest(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to fetch suggestions", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Success(w, &entity.SuggestionsResponse{Suggestions: suggestions})
}

// AttachFile handles POST /chat/context/file
func (h *Handler) AttachFile(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AttachFile")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid form data or size too large")
		return
	}

	fh := firstFile(r, "file")
	if err := h.validator.ValidateSingleUpload(fh); err != nil {
		ctxzap.Warn(ctx, "upload rejected", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		ctxzap.Error(ctx, "failed to read upload", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	stored, err := h.usecase.AttachFile(ctx, fh.Filename, data)
	if err != nil {
		ctxzap.Error(ctx, "failed to attach file", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Created(w, toContextDTO(stored))
}

// AttachFolder handles POST /chat/context/folder
func (h *Handler) AttachFolder(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "AttachFolder")

	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		ctxzap.Error(ctx, "failed to parse multipart form", zap.Error(err))
		response.Error(w, http.StatusBadRequest, "invalid form data or size too large")
		return
	}

	files := r.MultipartForm.File["files"]
	if err := h.validator.ValidateFolderUpload(files); err != nil {
		ctxzap.Warn(ctx, "upload rejected", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	candidates := make([]extract.CandidateFile, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			ctxzap.Error(ctx, "failed to read upload", zap.String("file", fh.Filename), zap.Error(err))
			response.Error(w, http.StatusBadRequest, "failed to read uploaded files")
			return
		}
		candidates = append(candidates, extract.CandidateFile{Path: fh.Filename, Data: data})
	}

	name := r.FormValue("name")
	if name == "" {
		name = folderName(files)
	}

	stored, result, err := h.usecase.AttachFolder(ctx, name, candidates)
	if err != nil {
		ctxzap.Error(ctx, "failed to attach folder", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.Created(w, toAttachFolderResponse(stored, result))
}

// GetContext handles GET /chat/context
func (h *Handler) GetContext(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "GetContext")

	lc, err := h.usecase.GetContext(ctx)
	if err != nil {
		ctxzap.Error(ctx, "failed to get context", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	if lc == nil {
		response.NoContent(w)
		return
	}

	response.Success(w, toContextDTO(lc))
}

// RemoveContext handles DELETE /chat/context
func (h *Handler) RemoveContext(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "RemoveContext")

	if err := h.usecase.RemoveContext(ctx); err != nil {
		ctxzap.Error(ctx, "failed to remove context", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	response.NoContent(w)
}

// Export handles GET /chat/export?format=md|docx|pdf
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "Export")

	format := formatter.ExportFormat(r.URL.Query().Get("format"))
	if format == "" {
		format = formatter.FormatMarkdown
	}

	data, contentType, ext, err := h.usecase.Export(ctx, format)
	if err != nil {
		ctxzap.Error(ctx, "failed to export transcript", zap.Error(err))
		response.DomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "chat-transcript"+ext))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func firstFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}

// folderName derives a display name from the relative paths browsers send
// for directory uploads.
func folderName(files []*multipart.FileHeader) string {
	for _, fh := range files {
		if dir, _, ok := strings.Cut(fh.Filename, "/"); ok && dir != "" {
			return dir
		}
	}
	return "folder"
}
