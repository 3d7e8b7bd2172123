package bot

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/trainbot/core/bootstrap"
	coreconfig "github.com/m3rciful/trainbot/core/config"
	"github.com/m3rciful/trainbot/internal/affiliate"
	"github.com/m3rciful/trainbot/internal/dialogue"
	"github.com/m3rciful/trainbot/internal/render"
	"github.com/m3rciful/trainbot/internal/search"
	"github.com/m3rciful/trainbot/internal/session"
	"github.com/m3rciful/trainbot/internal/trip"
)

type sent struct {
	text string
	opts *tele.SendOptions
}

// fakeContext implements the subset of tele.Context used by the handlers.
type fakeContext struct {
	tele.Context
	user  *tele.User
	text  string
	mu    sync.Mutex
	store map[string]any
	out   *[]sent
}

func newFakeContext(userID int64, text string, out *[]sent) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID, FirstName: "Asha"},
		text:  text,
		store: map[string]any{},
		out:   out,
	}
}

func (f *fakeContext) Sender() *tele.User { return f.user }
func (f *fakeContext) Chat() *tele.Chat   { return &tele.Chat{ID: f.user.ID, Type: tele.ChatPrivate} }
func (f *fakeContext) Text() string       { return f.text }
func (f *fakeContext) Update() tele.Update {
	return tele.Update{ID: 42}
}

func (f *fakeContext) Get(key string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store[key]
}

func (f *fakeContext) Set(key string, val any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.store[key] = val
}

func (f *fakeContext) Send(what any, opts ...any) error {
	s := sent{text: what.(string)}
	if len(opts) > 0 {
		s.opts, _ = opts[0].(*tele.SendOptions)
	}
	*f.out = append(*f.out, s)
	return nil
}

func newTestApp(t *testing.T, searcher search.Searcher) *App {
	t.Helper()
	ctrl, err := dialogue.NewController(session.NewMemoryStore(time.Minute), searcher,
		affiliate.NewBuilder("", "partner-7"))
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return &App{controller: ctrl}
}

func TestInputFromText(t *testing.T) {
	cases := map[string]dialogue.InputKind{
		"Mumbai":        dialogue.InputText,
		"  ":            dialogue.InputText,
		"/book":         dialogue.InputUnknownCommand,
		" /start extra": dialogue.InputUnknownCommand,
		"15-01-2026":    dialogue.InputText,
	}
	for text, want := range cases {
		if got := inputFromText(text); got.Kind != want || got.Text != text {
			t.Fatalf("inputFromText(%q) = %+v, want %s", text, got, want)
		}
	}
}

func TestSendOptions(t *testing.T) {
	plain := sendOptions(render.Reply{Text: "hi"})
	if plain.ParseMode != "" || plain.ReplyMarkup != nil || plain.DisableWebPagePreview {
		t.Fatalf("plain = %+v", plain)
	}
	rich := sendOptions(render.Reply{Text: "*x*", Markdown: true, NoPreview: true, RemoveKeyboard: true})
	if rich.ParseMode != tele.ModeMarkdown || !rich.DisableWebPagePreview {
		t.Fatalf("rich = %+v", rich)
	}
	if rich.ReplyMarkup == nil || !rich.ReplyMarkup.RemoveKeyboard {
		t.Fatalf("markup = %+v", rich.ReplyMarkup)
	}
}

func TestConversationFlow(t *testing.T) {
	var gotQuery trip.BookingQuery
	app := newTestApp(t, search.SearcherFunc(func(_ context.Context, q trip.BookingQuery) ([]trip.TrainRecord, error) {
		gotQuery = q
		return []trip.TrainRecord{{Name: "Rajdhani Express", Number: "12951", Departure: "16:35", Arrival: "08:35", Duration: "16h"}}, nil
	}))
	conv := conversation{app: app}
	ctx := context.Background()
	var out []sent

	if err := app.inputHandler(dialogue.InputStart)(newFakeContext(7, "/start", &out)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(out[0].text, "Hello Asha") {
		t.Fatalf("greeting = %q", out[0].text)
	}
	if !conv.InProgress(ctx, 7) {
		t.Fatal("conversation should be in progress")
	}

	for _, text := range []string{"Mumbai", "Delhi", "15-01-2026"} {
		if err := conv.ManagerHandler(newFakeContext(7, text, &out)); err != nil {
			t.Fatalf("%s: %v", text, err)
		}
	}

	if gotQuery.Origin != "Mumbai" || gotQuery.Destination != "Delhi" || gotQuery.Date.String() != "15-01-2026" {
		t.Fatalf("query = %+v", gotQuery)
	}
	last := out[len(out)-1]
	if !strings.Contains(last.text, "12951") || !strings.Contains(last.text, "affiliateId=partner-7") {
		t.Fatalf("results = %q", last.text)
	}
	if last.opts == nil || last.opts.ParseMode != tele.ModeMarkdown || !last.opts.DisableWebPagePreview {
		t.Fatalf("results opts = %+v", last.opts)
	}
	if conv.InProgress(ctx, 7) {
		t.Fatal("session should be evicted after results")
	}
}

func TestCancelRemovesKeyboard(t *testing.T) {
	app := newTestApp(t, search.SearcherFunc(func(context.Context, trip.BookingQuery) ([]trip.TrainRecord, error) {
		return nil, errors.New("unused")
	}))
	var out []sent
	_ = app.inputHandler(dialogue.InputStart)(newFakeContext(9, "/start", &out))
	if err := app.inputHandler(dialogue.InputCancel)(newFakeContext(9, "/cancel", &out)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	last := out[len(out)-1]
	if last.opts == nil || last.opts.ReplyMarkup == nil || !last.opts.ReplyMarkup.RemoveKeyboard {
		t.Fatalf("cancel opts = %+v", last.opts)
	}
	if (conversation{app: app}).InProgress(context.Background(), 9) {
		t.Fatal("session should be gone after cancel")
	}
}

func TestIdleTextGetsHint(t *testing.T) {
	app := newTestApp(t, search.SearcherFunc(func(context.Context, trip.BookingQuery) ([]trip.TrainRecord, error) {
		return nil, nil
	}))
	var out []sent
	if err := app.handleText(newFakeContext(11, "hello", &out)); err != nil {
		t.Fatalf("text: %v", err)
	}
	if len(out) != 1 || out[0].text != render.Idle().Text {
		t.Fatalf("out = %+v", out)
	}
}

func TestAssembleMemoryHTTP(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Telegram.Token = "123:abc"
	cfg.Search.BaseURL = "http://127.0.0.1:8081"
	if err := coreconfig.Normalize(cfg); err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	app, err := assemble(context.Background(), cfg, &bootstrap.Result{})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	defer app.Close()

	visible := app.registry.ListCommands(true)
	if len(visible) != 3 {
		t.Fatalf("commands = %+v", visible)
	}
	if app.ops != nil {
		t.Fatal("ops server should be disabled without a listen address")
	}
	opts, err := app.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	if len(opts.Routes) != 4 || len(opts.Middlewares) != 3 {
		t.Fatalf("routes=%d middlewares=%d", len(opts.Routes), len(opts.Middlewares))
	}
}

func TestAssemblePostgresWithoutDB(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Search.Backend = coreconfig.SearchBackendPostgres
	cfg.Session.Backend = coreconfig.SessionBackendMemory
	if _, err := assemble(context.Background(), cfg, &bootstrap.Result{}); err == nil {
		t.Fatal("expected error")
	}
}
