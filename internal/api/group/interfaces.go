package group

import (
	"context"

	"github.com/futig/urlchat-backend/internal/entity"
)

type GroupUsecase interface {
	CreateGroup(ctx context.Context, req *entity.CreateGroupRequest) (*entity.URLGroup, error)
	ListGroups(ctx context.Context) ([]*entity.URLGroup, error)
	GetActive(ctx context.Context) (*entity.URLGroup, error)
	DeleteGroup(ctx context.Context, id string) error
	SwitchGroup(ctx context.Context, id string) (*entity.URLGroup, error)
	AddURL(ctx context.Context, groupID, rawURL string) (*entity.URLGroup, error)
	RemoveURL(ctx context.Context, groupID, rawURL string) (*entity.URLGroup, error)
}
