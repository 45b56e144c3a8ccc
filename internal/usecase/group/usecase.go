package group

import (
	"context"
	"fmt"
	"strings"

	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/validator"
	"github.com/futig/urlchat-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const defaultGroupName = "Default"

// GroupUsecase owns URL group lifecycle and the active-group switch, which
// also resets the conversation.
type GroupUsecase struct {
	groupRepo   repository.GroupRepository
	messageRepo repository.MessageRepository
	contextRepo repository.ContextRepository
	validator   *validator.Validator
	suggestions *cache.Cache
	logger      *zap.Logger
}

func NewUsecase(
	groupRepo repository.GroupRepository,
	messageRepo repository.MessageRepository,
	contextRepo repository.ContextRepository,
	validator *validator.Validator,
	suggestions *cache.Cache,
	logger *zap.Logger,
) *GroupUsecase {
	return &GroupUsecase{
		groupRepo:   groupRepo,
		messageRepo: messageRepo,
		contextRepo: contextRepo,
		validator:   validator,
		suggestions: suggestions,
		logger:      logger,
	}
}

// Bootstrap guarantees the two structural invariants at startup: at least
// one group exists, and exactly one of them is active.
func (uc *GroupUsecase) Bootstrap(ctx context.Context) error {
	count, err := uc.groupRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count groups: %w", err)
	}

	if count == 0 {
		created, err := uc.groupRepo.Create(ctx, entity.URLGroup{
			ID:     uuid.New().String(),
			Name:   defaultGroupName,
			URLs:   []string{},
			Active: true,
		})
		if err != nil {
			return fmt.Errorf("create default group: %w", err)
		}

		if _, err := uc.resetConversation(ctx, created.Name); err != nil {
			return fmt.Errorf("seed welcome message: %w", err)
		}

		uc.logger.Info("created default group", zap.String("group_id", created.ID))
		return nil
	}

	if _, err := uc.groupRepo.GetActive(ctx); err == nil {
		return nil
	}

	groups, err := uc.groupRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	if _, err := uc.groupRepo.SetActive(ctx, groups[0].ID); err != nil {
		return fmt.Errorf("promote first group: %w", err)
	}

	return nil
}

// CreateGroup creates a new, inactive group with a unique non-empty name.
func (uc *GroupUsecase) CreateGroup(ctx context.Context, req *entity.CreateGroupRequest) (*entity.URLGroup, error) {
	if err := uc.validator.ValidateCreateGroup(req); err != nil {
		return nil, err
	}

	created, err := uc.groupRepo.Create(ctx, entity.URLGroup{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(req.Name),
		URLs: []string{},
	})
	if err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}

	ctxzap.Info(ctx, "group created", zap.String("group_id", created.ID), zap.String("name", created.Name))

	return created, nil
}

func (uc *GroupUsecase) ListGroups(ctx context.Context) ([]*entity.URLGroup, error) {
	groups, err := uc.groupRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

func (uc *GroupUsecase) GetActive(ctx context.Context) (*entity.URLGroup, error) {
	group, err := uc.groupRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active group: %w", err)
	}
	return group, nil
}

// DeleteGroup removes a group. Removing the last remaining group is
// rejected; removing the active group promotes the first remaining group,
// which resets the conversation like any other switch.
func (uc *GroupUsecase) DeleteGroup(ctx context.Context, id string) error {
	count, err := uc.groupRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count groups: %w", err)
	}
	if count <= 1 {
		return entity.ErrLastGroup
	}

	group, err := uc.groupRepo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get group: %w", err)
	}

	if err := uc.groupRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}

	uc.suggestions.Delete(group.ID)
	ctxzap.Info(ctx, "group deleted", zap.String("group_id", id), zap.String("name", group.Name))

	if !group.Active {
		return nil
	}

	remaining, err := uc.groupRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list remaining groups: %w", err)
	}

	if _, err := uc.SwitchGroup(ctx, remaining[0].ID); err != nil {
		return fmt.Errorf("promote group after delete: %w", err)
	}

	return nil
}

// SwitchGroup makes the given group active, resets the message log to a
// single system welcome message, and clears any attached local context.
func (uc *GroupUsecase) SwitchGroup(ctx context.Context, id string) (*entity.URLGroup, error) {
	group, err := uc.groupRepo.SetActive(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("set active group: %w", err)
	}

	welcome, err := uc.resetConversation(ctx, group.Name)
	if err != nil {
		return nil, fmt.Errorf("reset conversation: %w", err)
	}

	if err := uc.contextRepo.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear local context: %w", err)
	}

	ctxzap.Info(ctx, "switched active group",
		zap.String("group_id", group.ID),
		zap.String("name", group.Name),
		zap.String("welcome_id", welcome.ID),
	)

	return group, nil
}

// AddURL appends a URL to a group, keeping order, uniqueness and the
// per-group cap.
func (uc *GroupUsecase) AddURL(ctx context.Context, groupID, rawURL string) (*entity.URLGroup, error) {
	if err := uc.validator.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	group, err := uc.groupRepo.Get(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	rawURL = strings.TrimSpace(rawURL)
	for _, existing := range group.URLs {
		if existing == rawURL {
			return nil, entity.ErrDuplicateURL
		}
	}

	if len(group.URLs) >= entity.MaxURLsPerGroup {
		return nil, fmt.Errorf("%w: limit is %d", entity.ErrTooManyURLs, entity.MaxURLsPerGroup)
	}

	updated, err := uc.groupRepo.UpdateURLs(ctx, groupID, append(group.URLs, rawURL))
	if err != nil {
		return nil, fmt.Errorf("update group urls: %w", err)
	}

	uc.suggestions.Delete(groupID)

	return updated, nil
}

// RemoveURL deletes a URL from a group, preserving the order of the rest.
func (uc *GroupUsecase) RemoveURL(ctx context.Context, groupID, rawURL string) (*entity.URLGroup, error) {
	group, err := uc.groupRepo.Get(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}

	urls := make([]string, 0, len(group.URLs))
	found := false
	for _, existing := range group.URLs {
		if existing == rawURL {
			found = true
			continue
		}
		urls = append(urls, existing)
	}

	if !found {
		return nil, entity.ErrURLNotFound
	}

	updated, err := uc.groupRepo.UpdateURLs(ctx, groupID, urls)
	if err != nil {
		return nil, fmt.Errorf("update group urls: %w", err)
	}

	uc.suggestions.Delete(groupID)

	return updated, nil
}

func (uc *GroupUsecase) resetConversation(ctx context.Context, groupName string) (*entity.ChatMessage, error) {
	welcome := entity.ChatMessage{
		ID:     uuid.New().String(),
		Text:   fmt.Sprintf("Now chatting with group %q. Ask me anything about its sources, or attach a local file or folder.", groupName),
		Sender: entity.SenderSystem,
	}

	return uc.messageRepo.Reset(ctx, welcome)
}
