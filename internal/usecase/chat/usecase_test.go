package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/futig/urlchat-backend/internal/config"
	"github.com/futig/urlchat-backend/internal/entity"
	"github.com/futig/urlchat-backend/internal/pkg/extract"
	"github.com/futig/urlchat-backend/internal/pkg/formatter"
	"github.com/futig/urlchat-backend/internal/pkg/validator"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

type fakeGroupRepo struct {
	active *entity.URLGroup
}

func (f *fakeGroupRepo) Create(_ context.Context, group entity.URLGroup) (*entity.URLGroup, error) {
	return &group, nil
}

func (f *fakeGroupRepo) Get(_ context.Context, _ string) (*entity.URLGroup, error) {
	return f.active, nil
}

func (f *fakeGroupRepo) GetByName(_ context.Context, _ string) (*entity.URLGroup, error) {
	return f.active, nil
}

func (f *fakeGroupRepo) GetActive(_ context.Context) (*entity.URLGroup, error) {
	if f.active == nil {
		return nil, entity.ErrGroupNotFound
	}
	return f.active, nil
}

func (f *fakeGroupRepo) List(_ context.Context) ([]*entity.URLGroup, error) {
	return []*entity.URLGroup{f.active}, nil
}

func (f *fakeGroupRepo) Count(_ context.Context) (int, error) { return 1, nil }

func (f *fakeGroupRepo) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeGroupRepo) SetActive(_ context.Context, _ string) (*entity.URLGroup, error) {
	return f.active, nil
}

func (f *fakeGroupRepo) UpdateURLs(_ context.Context, _ string, urls []string) (*entity.URLGroup, error) {
	f.active.URLs = urls
	return f.active, nil
}

type fakeMessageRepo struct {
	messages []*entity.ChatMessage
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
	w := welcome
	f.messages = []*entity.ChatMessage{&w}
	return &w, nil
}

type fakeContextRepo struct {
	stored *entity.LocalContext
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
	f.stored = nil
	return nil
}

type fakeGenerator struct {
	configured    bool
	result        *entity.GenerateResult
	generateErr   error
	topics        []string
	suggestErr    error
	generateCalls int
	suggestCalls  int
	lastRequest   *entity.GenerateRequest
}

func (f *fakeGenerator) Configured() bool { return f.configured }

func (f *fakeGenerator) Generate(_ context.Context, req *entity.GenerateRequest) (*entity.GenerateResult, error) {
	f.generateCalls++
	f.lastRequest = req
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return f.result, nil
}

func (f *fakeGenerator) SuggestTopics(_ context.Context, _ []string) ([]string, error) {
	f.suggestCalls++
	if f.suggestErr != nil {
		return nil, f.suggestErr
	}
	return f.topics, nil
}

type testEnv struct {
	uc          *ChatUsecase
	groupRepo   *fakeGroupRepo
	messageRepo *fakeMessageRepo
	contextRepo *fakeContextRepo
	generator   *fakeGenerator
	suggestions *cache.Cache
}

func newTestEnv(generator *fakeGenerator, urls ...string) *testEnv {
	groupRepo := &fakeGroupRepo{active: &entity.URLGroup{ID: "g1", Name: "Docs", Active: true, URLs: urls}}
	messageRepo := &fakeMessageRepo{}
	contextRepo := &fakeContextRepo{}
	suggestions := cache.New(time.Minute, time.Minute)
	v := validator.NewValidator(config.FileUploadConfig{MaxContextChars: entity.MaxContextChars})
	uc := NewUsecase(
		groupRepo, messageRepo, contextRepo,
		generator,
		extract.NewAggregator(entity.MaxContextChars, zap.NewNop()),
		v,
		formatter.NewFactory(),
		suggestions,
		zap.NewNop(),
	)
	return &testEnv{uc: uc, groupRepo: groupRepo, messageRepo: messageRepo, contextRepo: contextRepo, generator: generator, suggestions: suggestions}
}

func TestAskAppendsAndResolves(t *testing.T) {
	env := newTestEnv(&fakeGenerator{
		configured: true,
		result: &entity.GenerateResult{
			Text: "Go is a programming language.",
			URLMetadata: []entity.URLMetadata{
				{RetrievedURL: "https://go.dev", RetrievalStatus: "URL_RETRIEVAL_STATUS_SUCCESS"},
			},
		},
	}, "https://go.dev")

	answer, err := env.uc.Ask(context.Background(), &entity.AskRequest{Query: "What is Go?"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if len(env.messageRepo.messages) != 2 {
		t.Fatalf("expected user + model messages, got %d", len(env.messageRepo.messages))
	}
	if env.messageRepo.messages[0].Sender != entity.SenderUser || env.messageRepo.messages[0].Text != "What is Go?" {
		t.Fatalf("unexpected user message: %+v", env.messageRepo.messages[0])
	}
	if answer.IsLoading {
		t.Fatal("answer must not stay in the loading state")
	}
	if answer.Sender != entity.SenderModel || answer.Text != "Go is a programming language." {
		t.Fatalf("unexpected answer: %+v", answer)
	}
	if len(answer.URLMetadata) != 1 || answer.URLMetadata[0].RetrievedURL != "https://go.dev" {
		t.Fatalf("unexpected url metadata: %+v", answer.URLMetadata)
	}
	if env.generator.lastRequest.Query != "What is Go?" || len(env.generator.lastRequest.URLs) != 1 {
		t.Fatalf("unexpected generate request: %+v", env.generator.lastRequest)
	}
}

func TestAskIncludesLocalContext(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true, result: &entity.GenerateResult{Text: "ok"}})
	env.contextRepo.stored = &entity.LocalContext{
		Type:    entity.ContextTypeFile,
		Name:    "notes.md",
		Content: "release planned for friday",
	}

	if _, err := env.uc.Ask(context.Background(), &entity.AskRequest{Query: "When is the release?"}); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if env.generator.lastRequest.LocalContext != "release planned for friday" {
		t.Fatalf("local context not forwarded: %q", env.generator.lastRequest.LocalContext)
	}
}

func TestAskBlankQuery(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})

	if _, err := env.uc.Ask(context.Background(), &entity.AskRequest{Query: "   "}); !errors.Is(err, entity.ErrBlankQuery) {
		t.Fatalf("Ask() error = %v, want ErrBlankQuery", err)
	}
	if len(env.messageRepo.messages) != 0 {
		t.Fatal("blank query must not touch the message log")
	}
}

func TestAskUnconfiguredSkipsUpstream(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: false}, "https://go.dev")

	notice, err := env.uc.Ask(context.Background(), &entity.AskRequest{Query: "hello"})
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}

	if env.generator.generateCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", env.generator.generateCalls)
	}
	if notice.Sender != entity.SenderSystem {
		t.Fatalf("notice sender = %q, want system", notice.Sender)
	}
	if !strings.Contains(notice.Text, "not configured") {
		t.Fatalf("notice text = %q", notice.Text)
	}
}

func TestAskWhileBusy(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})
	env.uc.askBusy.Store(true)

	if _, err := env.uc.Ask(context.Background(), &entity.AskRequest{Query: "hello"}); !errors.Is(err, entity.ErrAskInProgress) {
		t.Fatalf("Ask() error = %v, want ErrAskInProgress", err)
	}
}

func TestAskUpstreamFailureResolvesAsSystemMessage(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"quota", entity.ErrQuotaExceeded, "quota"},
		{"bad credential", entity.ErrInvalidCredential, "rejected"},
		{"generic", entity.ErrUpstream, "Something went wrong"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(&fakeGenerator{configured: true, generateErr: tc.err}, "https://go.dev")

			resolved, err := env.uc.Ask(context.Background(), &entity.AskRequest{Query: "hello"})
			if err != nil {
				t.Fatalf("Ask() error = %v", err)
			}
			if resolved.Sender != entity.SenderSystem {
				t.Fatalf("sender = %q, want system", resolved.Sender)
			}
			if resolved.IsLoading {
				t.Fatal("failure notice must not stay in the loading state")
			}
			if !strings.Contains(strings.ToLower(resolved.Text), strings.ToLower(tc.want)) {
				t.Fatalf("text = %q, want substring %q", resolved.Text, tc.want)
			}
		})
	}
}

func TestSuggestEmptyGroupSkipsUpstream(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true, topics: []string{"should not be called"}})

	topics, err := env.uc.Suggest(context.Background())
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(topics) != 0 {
		t.Fatalf("topics = %v, want empty", topics)
	}
	if env.generator.suggestCalls != 0 {
		t.Fatalf("expected no upstream calls, got %d", env.generator.suggestCalls)
	}
}

func TestSuggestCachesPerGroup(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true, topics: []string{"What is Go?", "Who made Go?"}}, "https://go.dev")

	first, err := env.uc.Suggest(context.Background())
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	second, err := env.uc.Suggest(context.Background())
	if err != nil {
		t.Fatalf("Suggest() second call error = %v", err)
	}

	if env.generator.suggestCalls != 1 {
		t.Fatalf("expected a single upstream call, got %d", env.generator.suggestCalls)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("topics = %v / %v", first, second)
	}
}

func TestSuggestParseFailureDegradesToEmpty(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true, suggestErr: entity.ErrSuggestionParse}, "https://go.dev")

	topics, err := env.uc.Suggest(context.Background())
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if len(topics) != 0 {
		t.Fatalf("topics = %v, want empty", topics)
	}
	if len(env.messageRepo.messages) != 1 || env.messageRepo.messages[0].Sender != entity.SenderSystem {
		t.Fatalf("expected a system notice in the log, got %+v", env.messageRepo.messages)
	}
}

func TestAttachFileStoresContext(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})

	stored, err := env.uc.AttachFile(context.Background(), "notes.md", []byte("# Notes\nrelease friday"))
	if err != nil {
		t.Fatalf("AttachFile() error = %v", err)
	}

	if stored.Type != entity.ContextTypeFile || stored.Name != "notes.md" || stored.FileCount != 1 {
		t.Fatalf("unexpected context: %+v", stored)
	}
	if stored.Truncated {
		t.Fatal("small file must not be truncated")
	}
	if env.contextRepo.stored == nil {
		t.Fatal("context not persisted")
	}
}

func TestAttachFileWhileContextAttached(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})
	env.contextRepo.stored = &entity.LocalContext{Type: entity.ContextTypeFile, Name: "old.md"}

	if _, err := env.uc.AttachFile(context.Background(), "new.md", []byte("text")); !errors.Is(err, entity.ErrContextAttached) {
		t.Fatalf("AttachFile() error = %v, want ErrContextAttached", err)
	}
}

func TestAttachFileUnsupportedType(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})

	if _, err := env.uc.AttachFile(context.Background(), "photo.png", []byte{0x89, 0x50}); !errors.Is(err, entity.ErrUnsupportedType) {
		t.Fatalf("AttachFile() error = %v, want ErrUnsupportedType", err)
	}
}

func TestAttachFolder(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})

	stored, result, err := env.uc.AttachFolder(context.Background(), "project", []extract.CandidateFile{
		{Path: "project/main.go.txt", Data: []byte("package main")},
		{Path: "project/readme.md", Data: []byte("# Project")},
		{Path: "project/logo.png", Data: []byte{0x89}},
	})
	if err != nil {
		t.Fatalf("AttachFolder() error = %v", err)
	}

	if stored.Type != entity.ContextTypeFolder || stored.Name != "project" {
		t.Fatalf("unexpected context: %+v", stored)
	}
	if stored.FileCount != 2 || result.EligibleCount != 2 {
		t.Fatalf("counts: stored=%d eligible=%d, want 2/2", stored.FileCount, result.EligibleCount)
	}
	if !strings.Contains(stored.Content, "package main") || !strings.Contains(stored.Content, "# Project") {
		t.Fatalf("merged content missing file text: %q", stored.Content)
	}
}

func TestAttachFolderWithoutSupportedFiles(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})

	_, _, err := env.uc.AttachFolder(context.Background(), "assets", []extract.CandidateFile{
		{Path: "assets/logo.png", Data: []byte{0x89}},
		{Path: "assets/icon.svg", Data: []byte("<svg/>")},
	})
	if !errors.Is(err, entity.ErrUnsupportedType) {
		t.Fatalf("AttachFolder() error = %v, want ErrUnsupportedType", err)
	}
}

func TestRemoveContext(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})
	env.contextRepo.stored = &entity.LocalContext{Type: entity.ContextTypeFile, Name: "notes.md"}

	if err := env.uc.RemoveContext(context.Background()); err != nil {
		t.Fatalf("RemoveContext() error = %v", err)
	}
	if env.contextRepo.stored != nil {
		t.Fatal("context should be cleared")
	}
}

func TestExportMarkdown(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})
	env.messageRepo.messages = []*entity.ChatMessage{
		{ID: "m1", Text: "What is Go?", Sender: entity.SenderUser},
		{ID: "m2", Text: "A language.", Sender: entity.SenderModel},
	}

	data, contentType, ext, err := env.uc.Export(context.Background(), formatter.FormatMarkdown)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if contentType != "text/markdown; charset=utf-8" || ext != ".md" {
		t.Fatalf("contentType=%q ext=%q", contentType, ext)
	}
	if !strings.Contains(string(data), "What is Go?") {
		t.Fatalf("transcript missing message text: %q", string(data))
	}
}

func TestExportUnknownFormat(t *testing.T) {
	env := newTestEnv(&fakeGenerator{configured: true})

	if _, _, _, err := env.uc.Export(context.Background(), formatter.ExportFormat("xlsx")); !errors.Is(err, entity.ErrInvalidParameter) {
		t.Fatalf("Export() error = %v, want ErrInvalidParameter", err)
	}
}
