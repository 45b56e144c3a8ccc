package group

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/validator"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type fakeGroupRepo struct {
	groups []*entity.URLGroup
}

func (f *fakeGroupRepo) Create(_ context.Context, group entity.URLGroup) (*entity.URLGroup, error) {
	for _, g := range f.groups {
		if g.Name == group.Name {
			return nil, entity.ErrDuplicateGroupName
		}
	}
	g := group
	g.CreatedAt = time.Now()
	f.groups = append(f.groups, &g)
	return &g, nil
}

func (f *fakeGroupRepo) Get(_ context.Context, id string) (*entity.URLGroup, error) {
	for _, g := range f.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, entity.ErrGroupNotFound
}

func (f *fakeGroupRepo) GetByName(_ context.Context, name string) (*entity.URLGroup, error) {
	for _, g := range f.groups {
		if g.Name == name {
			return g, nil
		}
	}
	return nil, entity.ErrGroupNotFound
}

func (f *fakeGroupRepo) GetActive(_ context.Context) (*entity.URLGroup, error) {
	for _, g := range f.groups {
		if g.Active {
			return g, nil
		}
	}
	return nil, entity.ErrGroupNotFound
}

func (f *fakeGroupRepo) List(_ context.Context) ([]*entity.URLGroup, error) {
	return f.groups, nil
}

func (f *fakeGroupRepo) Count(_ context.Context) (int, error) {
	return len(f.groups), nil
}

func (f *fakeGroupRepo) Delete(_ context.Context, id string) error {
	for i, g := range f.groups {
		if g.ID == id {
			f.groups = append(f.groups[:i], f.groups[i+1:]...)
			return nil
		}
	}
	return entity.ErrGroupNotFound
}

func (f *fakeGroupRepo) SetActive(_ context.Context, id string) (*entity.URLGroup, error) {
	var target *entity.URLGroup
	for _, g := range f.groups {
		if g.ID == id {
			target = g
		}
	}
	if target == nil {
		return nil, entity.ErrGroupNotFound
	}
	for _, g := range f.groups {
		g.Active = false
	}
	target.Active = true
	return target, nil
}

func (f *fakeGroupRepo) UpdateURLs(_ context.Context, id string, urls []string) (*entity.URLGroup, error) {
	for _, g := range f.groups {
		if g.ID == id {
			g.URLs = urls
			return g, nil
		}
	}
	return nil, entity.ErrGroupNotFound
}

type fakeMessageRepo struct {
	messages []*entity.ChatMessage
	resets   int
}

func (f *fakeMessageRepo) Append(_ context.Context, msg entity.ChatMessage) (*entity.ChatMessage, error) {
	m := msg
	m.CreatedAt = time.Now()
	f.messages = append(f.messages, &m)
	return &m, nil
}

func (f *fakeMessageRepo) Resolve(_ context.Context, id, text string, sender entity.Sender, metadata []entity.URLMetadata) (*entity.ChatMessage, error) {
	for _, m := range f.messages {
		if m.ID == id {
			m.Text = text
			m.Sender = sender
			m.IsLoading = false
			m.URLMetadata = metadata
			return m, nil
		}
	}
	return nil, entity.ErrMessageNotFound
}

func (f *fakeMessageRepo) List(_ context.Context) ([]*entity.ChatMessage, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) Reset(_ context.Context, welcome entity.ChatMessage) (*entity.ChatMessage, error) {
	f.resets++
	w := welcome
	w.CreatedAt = time.Now()
	f.messages = []*entity.ChatMessage{&w}
	return &w, nil
}

type fakeContextRepo struct {
	stored *entity.LocalContext
	clears int
}

func (f *fakeContextRepo) Set(_ context.Context, lc entity.LocalContext) (*entity.LocalContext, error) {
	c := lc
	c.CreatedAt = time.Now()
	f.stored = &c
	return &c, nil
}

func (f *fakeContextRepo) Get(_ context.Context) (*entity.LocalContext, error) {
	return f.stored, nil
}

func (f *fakeContextRepo) Clear(_ context.Context) error {
	f.clears++
	f.stored = nil
	return nil
}

func newTestUsecase(groups ...*entity.URLGroup) (*GroupUsecase, *fakeGroupRepo, *fakeMessageRepo, *fakeContextRepo, *cache.Cache) {
	groupRepo := &fakeGroupRepo{groups: groups}
	messageRepo := &fakeMessageRepo{}
	contextRepo := &fakeContextRepo{}
	suggestions := cache.New(time.Minute, time.Minute)
	v := validator.NewValidator(config.FileUploadConfig{MaxContextChars: entity.MaxContextChars})
	uc := NewUsecase(groupRepo, messageRepo, contextRepo, v, suggestions, zap.NewNop())
	return uc, groupRepo, messageRepo, contextRepo, suggestions
}

func TestBootstrapCreatesDefaultGroup(t *testing.T) {
	uc, groupRepo, messageRepo, _, _ := newTestUsecase()

	if err := uc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	if len(groupRepo.groups) != 1 {
		t.Fatalf("expected 1 group after bootstrap, got %d", len(groupRepo.groups))
	}
	if !groupRepo.groups[0].Active {
		t.Fatal("default group should be active")
	}
	if len(messageRepo.messages) != 1 || messageRepo.messages[0].Sender != entity.SenderSystem {
		t.Fatalf("expected a single system welcome message, got %+v", messageRepo.messages)
	}
}

func TestCreateGroup(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(&entity.URLGroup{ID: "g1", Name: "Docs", Active: true})

	created, err := uc.CreateGroup(context.Background(), &entity.CreateGroupRequest{Name: "  News  "})
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if created.Name != "News" {
		t.Fatalf("name not trimmed: %q", created.Name)
	}
	if created.Active {
		t.Fatal("new group must not steal the active flag")
	}

	if _, err := uc.CreateGroup(context.Background(), &entity.CreateGroupRequest{Name: "Docs"}); !errors.Is(err, entity.ErrDuplicateGroupName) {
		t.Fatalf("duplicate name error = %v, want ErrDuplicateGroupName", err)
	}

	if _, err := uc.CreateGroup(context.Background(), &entity.CreateGroupRequest{Name: "   "}); !errors.Is(err, entity.ErrMissingField) {
		t.Fatalf("blank name error = %v, want ErrMissingField", err)
	}
}

func TestDeleteLastGroupRejected(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(&entity.URLGroup{ID: "g1", Name: "Docs", Active: true})

	if err := uc.DeleteGroup(context.Background(), "g1"); !errors.Is(err, entity.ErrLastGroup) {
		t.Fatalf("DeleteGroup() error = %v, want ErrLastGroup", err)
	}
}

func TestDeleteActiveGroupPromotesNext(t *testing.T) {
	uc, groupRepo, messageRepo, contextRepo, _ := newTestUsecase(
		&entity.URLGroup{ID: "g1", Name: "Docs", Active: true},
		&entity.URLGroup{ID: "g2", Name: "News"},
	)

	if err := uc.DeleteGroup(context.Background(), "g1"); err != nil {
		t.Fatalf("DeleteGroup() error = %v", err)
	}

	if len(groupRepo.groups) != 1 || groupRepo.groups[0].ID != "g2" {
		t.Fatalf("unexpected groups after delete: %+v", groupRepo.groups)
	}
	if !groupRepo.groups[0].Active {
		t.Fatal("remaining group should have been promoted to active")
	}
	if messageRepo.resets != 1 {
		t.Fatalf("expected one conversation reset, got %d", messageRepo.resets)
	}
	if contextRepo.clears != 1 {
		t.Fatalf("expected local context to be cleared, got %d clears", contextRepo.clears)
	}
}

func TestSwitchGroupResetsConversation(t *testing.T) {
	uc, _, messageRepo, contextRepo, _ := newTestUsecase(
		&entity.URLGroup{ID: "g1", Name: "Docs", Active: true},
		&entity.URLGroup{ID: "g2", Name: "News"},
	)
	messageRepo.messages = []*entity.ChatMessage{
		{ID: "m1", Text: "old question", Sender: entity.SenderUser},
		{ID: "m2", Text: "old answer", Sender: entity.SenderModel},
	}
	contextRepo.stored = &entity.LocalContext{Type: entity.ContextTypeFile, Name: "notes.md"}

	switched, err := uc.SwitchGroup(context.Background(), "g2")
	if err != nil {
		t.Fatalf("SwitchGroup() error = %v", err)
	}
	if !switched.Active {
		t.Fatal("switched group should be active")
	}

	if len(messageRepo.messages) != 1 {
		t.Fatalf("expected message log reset to a single welcome, got %d messages", len(messageRepo.messages))
	}
	if messageRepo.messages[0].Sender != entity.SenderSystem {
		t.Fatalf("welcome sender = %q, want system", messageRepo.messages[0].Sender)
	}
	if contextRepo.stored != nil {
		t.Fatal("local context should be cleared on switch")
	}
}

func TestAddURL(t *testing.T) {
	uc, _, _, _, suggestions := newTestUsecase(
		&entity.URLGroup{ID: "g1", Name: "Docs", Active: true, URLs: []string{"https://go.dev"}},
	)
	suggestions.Set("g1", []string{"stale"}, cache.DefaultExpiration)

	updated, err := uc.AddURL(context.Background(), "g1", "https://pkg.go.dev")
	if err != nil {
		t.Fatalf("AddURL() error = %v", err)
	}
	if len(updated.URLs) != 2 || updated.URLs[1] != "https://pkg.go.dev" {
		t.Fatalf("unexpected urls: %v", updated.URLs)
	}
	if _, ok := suggestions.Get("g1"); ok {
		t.Fatal("cached suggestions should be invalidated after a URL change")
	}

	if _, err := uc.AddURL(context.Background(), "g1", "https://go.dev"); !errors.Is(err, entity.ErrDuplicateURL) {
		t.Fatalf("duplicate url error = %v, want ErrDuplicateURL", err)
	}
	if _, err := uc.AddURL(context.Background(), "g1", "ftp://example.com"); !errors.Is(err, entity.ErrInvalidFormat) {
		t.Fatalf("non-http url error = %v, want ErrInvalidFormat", err)
	}
}

func TestAddURLCap(t *testing.T) {
	urls := make([]string, 0, entity.MaxURLsPerGroup)
	for i := 0; i < entity.MaxURLsPerGroup; i++ {
		urls = append(urls, "https://example.com/page/"+strconv.Itoa(i))
	}
	uc, _, _, _, _ := newTestUsecase(&entity.URLGroup{ID: "g1", Name: "Docs", Active: true, URLs: urls})

	if _, err := uc.AddURL(context.Background(), "g1", "https://example.com/one-more"); !errors.Is(err, entity.ErrTooManyURLs) {
		t.Fatalf("AddURL() at cap error = %v, want ErrTooManyURLs", err)
	}
}

func TestRemoveURL(t *testing.T) {
	uc, _, _, _, _ := newTestUsecase(
		&entity.URLGroup{ID: "g1", Name: "Docs", Active: true, URLs: []string{"https://a.dev", "https://b.dev", "https://c.dev"}},
	)

	updated, err := uc.RemoveURL(context.Background(), "g1", "https://b.dev")
	if err != nil {
		t.Fatalf("RemoveURL() error = %v", err)
	}
	want := []string{"https://a.dev", "https://c.dev"}
	if len(updated.URLs) != 2 || updated.URLs[0] != want[0] || updated.URLs[1] != want[1] {
		t.Fatalf("urls = %v, want %v", updated.URLs, want)
	}

	if _, err := uc.RemoveURL(context.Background(), "g1", "https://missing.dev"); !errors.Is(err, entity.ErrURLNotFound) {
		t.Fatalf("missing url error = %v, want ErrURLNotFound", err)
	}
}
