package chat

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
	"github.com/futig/urlchat-backend/internal/pkg/formatter"
	"github.com/futig/urlchat-backend/internal/pkg/validator"
	"github.com/futig/urlchat-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// ChatUsecase drives the conversation: asking questions against the active
// group's URLs plus any attached local context, suggestion fetching, context
// attachment and transcript export.
type ChatUsecase struct {
	groupRepo   repository.GroupRepository
	messageRepo repository.MessageRepository
	contextRepo repository.ContextRepository
	generator   GenerationConnector
	aggregator  *extract.Aggregator
	validator   *validator.Validator
	formatters  *formatter.Factory
	suggestions *cache.Cache
	logger      *zap.Logger

	askBusy    atomic.Bool
	uploadBusy atomic.Bool
}

func NewUsecase(
	groupRepo repository.GroupRepository,
	messageRepo repository.MessageRepository,
	contextRepo repository.ContextRepository,
	generator GenerationConnector,
	aggregator *extract.Aggregator,
	validator *validator.Validator,
	formatters *formatter.Factory,
	suggestions *cache.Cache,
	logger *zap.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		contextRepo: contextRepo,
		generator:   generator,
		aggregator:  aggregator,
		validator:   validator,
		formatters:  formatters,
		suggestions: suggestions,
		logger:      logger,
	}
}

func (uc *ChatUsecase) GetMessages(ctx context.Context) ([]*entity.ChatMessage, error) {
	messages, err := uc.messageRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Ask runs one question through the generation gateway. The user message is
// appended first, then a pending model message that is resolved in place
// with either the answer or a readable failure notice. Only one ask may be
// in flight at a time.
func (uc *ChatUsecase) Ask(ctx context.Context, req *entity.AskRequest) (*entity.ChatMessage, error) {
	if err := uc.validator.ValidateAsk(req); err != nil {
		return nil, err
	}

	if !uc.askBusy.CompareAndSwap(false, true) {
		return nil, entity.ErrAskInProgress
	}
	defer uc.askBusy.Store(false)

	if _, err := uc.messageRepo.Append(ctx, entity.ChatMessage{
		ID:     uuid.New().String(),
		Text:   req.Query,
		Sender: entity.SenderUser,
	}); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}

	if !uc.generator.Configured() {
		notice, err := uc.messageRepo.Append(ctx, entity.ChatMessage{
			ID:     uuid.New().String(),
			Text:   "The generation API key is not configured. Set it in the server environment and restart.",
			Sender: entity.SenderSystem,
		})
		if err != nil {
			return nil, fmt.Errorf("append configuration notice: %w", err)
		}
		return notice, nil
	}

	group, err := uc.groupRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active group: %w", err)
	}

	localCtx, err := uc.contextRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get local context: %w", err)
	}

	pending, err := uc.messageRepo.Append(ctx, entity.ChatMessage{
		ID:        uuid.New().String(),
		Sender:    entity.SenderModel,
		IsLoading: true,
	})
	if err != nil {
		return nil, fmt.Errorf("append pending message: %w", err)
	}

	genReq := &entity.GenerateRequest{
		Query: req.Query,
		URLs:  group.URLs,
	}
	if localCtx != nil {
		genReq.LocalContext = localCtx.Content
	}

	result, err := uc.generator.Generate(ctx, genReq)
	if err != nil {
		ctxzap.Warn(ctx, "generation failed",
			zap.String("group_id", group.ID),
			zap.Error(err),
		)
		resolved, resolveErr := uc.messageRepo.Resolve(ctx, pending.ID, failureText(err), entity.SenderSystem, nil)
		if resolveErr != nil {
			return nil, fmt.Errorf("resolve pending message: %w", resolveErr)
		}
		return resolved, nil
	}

	resolved, err := uc.messageRepo.Resolve(ctx, pending.ID, result.Text, entity.SenderModel, result.URLMetadata)
	if err != nil {
		return nil, fmt.Errorf("resolve pending message: %w", err)
	}

	ctxzap.Info(ctx, "question answered",
		zap.String("group_id", group.ID),
		zap.Int("url_count", len(group.URLs)),
		zap.Int("grounded_urls", len(result.URLMetadata)),
	)

	return resolved, nil
}

// Suggest returns up to four suggested questions for the active group. The
// result is cached per group until the group's URL list changes or the TTL
// expires. A group without URLs yields an empty list without an upstream
// call, and an unparsable upstream reply degrades to an empty list.
func (uc *ChatUsecase) Suggest(ctx context.Context) ([]string, error) {
	group, err := uc.groupRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active group: %w", err)
	}

	if len(group.URLs) == 0 || !uc.generator.Configured() {
		return []string{}, nil
	}

	if cached, ok := uc.suggestions.Get(group.ID); ok {
		return cached.([]string), nil
	}

	topics, err := uc.generator.SuggestTopics(ctx, group.URLs)
	if err != nil {
		if errors.Is(err, entity.ErrSuggestionParse) {
			ctxzap.Warn(ctx, "discarding unparsable suggestions", zap.String("group_id", group.ID), zap.Error(err))
			if _, appendErr := uc.messageRepo.Append(ctx, entity.ChatMessage{
				ID:     uuid.New().String(),
				Text:   "Suggested questions could not be loaded this time.",
				Sender: entity.SenderSystem,
			}); appendErr != nil {
				return nil, fmt.Errorf("append suggestion notice: %w", appendErr)
			}
			return []string{}, nil
		}
		return nil, fmt.Errorf("fetch suggestions: %w", err)
	}

	uc.suggestions.Set(group.ID, topics, cache.DefaultExpiration)

	return topics, nil
}

// AttachFile extracts text from a single uploaded file and stores it as the
// local context. At most one context may be attached at a time.
func (uc *ChatUsecase) AttachFile(ctx context.Context, filename string, data []byte) (*entity.LocalContext, error) {
	release, err := uc.acquireUpload(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	text, truncated, err := uc.aggregator.Single(filename, data)
	if err != nil {
		return nil, err
	}

	stored, err := uc.contextRepo.Set(ctx, entity.LocalContext{
		Type:      entity.ContextTypeFile,
		Name:      filename,
		Content:   text,
		FileCount: 1,
		Truncated: truncated,
	})
	if err != nil {
		return nil, fmt.Errorf("store local context: %w", err)
	}

	ctxzap.Info(ctx, "attached file context",
		zap.String("name", filename),
		zap.Bool("truncated", truncated),
	)

	return stored, nil
}

// AttachFolder aggregates the readable files of an uploaded folder into one
// local context. Unsupported and unreadable files are skipped rather than
// failing the whole upload.
func (uc *ChatUsecase) AttachFolder(ctx context.Context, name string, files []extract.CandidateFile) (*entity.LocalContext, *extract.AggregateResult, error) {
	release, err := uc.acquireUpload(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	result := uc.aggregator.Aggregate(ctx, files)
	if result.EligibleCount == 0 {
		return nil, nil, fmt.Errorf("%w: folder contains no supported files", entity.ErrUnsupportedType)
	}
	if result.IncludedCount == 0 {
		return nil, nil, fmt.Errorf("%w: no readable text in folder", entity.ErrReadFailure)
	}

	stored, err := uc.contextRepo.Set(ctx, entity.LocalContext{
		Type:      entity.ContextTypeFolder,
		Name:      name,
		Content:   result.MergedText,
		FileCount: result.IncludedCount,
		Truncated: result.Truncated,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("store local context: %w", err)
	}

	ctxzap.Info(ctx, "attached folder context",
		zap.String("name", name),
		zap.Int("included", result.IncludedCount),
		zap.Int("eligible", result.EligibleCount),
		zap.Bool("truncated", result.Truncated),
	)

	return stored, result, nil
}

func (uc *ChatUsecase) GetContext(ctx context.Context) (*entity.LocalContext, error) {
	lc, err := uc.contextRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get local context: %w", err)
	}
	return lc, nil
}

// RemoveContext detaches the current local context, if any.
func (uc *ChatUsecase) RemoveContext(ctx context.Context) error {
	if err := uc.contextRepo.Clear(ctx); err != nil {
		return fmt.Errorf("clear local context: %w", err)
	}
	return nil
}

// Export renders the conversation transcript in the requested format and
// returns the rendered bytes along with the content type and file extension.
func (uc *ChatUsecase) Export(ctx context.Context, format formatter.ExportFormat) ([]byte, string, string, error) {
	messages, err := uc.messageRepo.List(ctx)
	if err != nil {
		return nil, "", "", fmt.Errorf("list messages: %w", err)
	}

	f, err := uc.formatters.Create(format)
	if err != nil {
		return nil, "", "", err
	}

	data, err := f.Format(messages)
	if err != nil {
		return nil, "", "", fmt.Errorf("format transcript: %w", err)
	}

	return data, f.ContentType(), f.FileExtension(), nil
}

// acquireUpload guards context attachment: rejects a second attachment while
// one is stored and serializes concurrent uploads.
func (uc *ChatUsecase) acquireUpload(ctx context.Context) (func(), error) {
	if !uc.uploadBusy.CompareAndSwap(false, true) {
		return nil, entity.ErrUploadInProgress
	}

	existing, err := uc.contextRepo.Get(ctx)
	if err != nil {
		uc.uploadBusy.Store(false)
		return nil, fmt.Errorf("get local context: %w", err)
	}
	if existing != nil {
		uc.uploadBusy.Store(false)
		return nil, entity.ErrContextAttached
	}

	return func() { uc.uploadBusy.Store(false) }, nil
}

func failureText(err error) string {
	switch {
	case errors.Is(err, entity.ErrInvalidCredential):
		return "The generation API rejected the configured key. Check the credential and restart the server."
	case errors.Is(err, entity.ErrQuotaExceeded):
		return "The generation API quota has been exhausted. Please try again later."
	default:
		return "Something went wrong while generating the answer. Please try again."
	}
}
