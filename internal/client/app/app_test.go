package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/FlashVocab/internal/client/enrich"
	"github.com/atinyakov/FlashVocab/internal/client/reminder"
	"github.com/atinyakov/FlashVocab/internal/client/remote"
	"github.com/atinyakov/FlashVocab/internal/client/storage"
	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

type fakeLocal struct {
	mu       sync.Mutex
	words    []vocab.Record
	saves    int
	reminder reminder.Config
	session  *storage.Session
	voice    string
}

func (f *fakeLocal) SaveWords(records []vocab.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words = append([]vocab.Record(nil), records...)
	f.saves++
	return nil
}

func (f *fakeLocal) LoadWords() ([]vocab.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vocab.Record(nil), f.words...), nil
}

func (f *fakeLocal) LoadReminder() (reminder.Config, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reminder, nil
}

func (f *fakeLocal) SaveReminder(cfg reminder.Config) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminder = cfg
	return nil
}

func (f *fakeLocal) Session() (storage.Session, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return storage.Session{}, false
	}
	return *f.session, true
}

func (f *fakeLocal) SetSession(token, email string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = &storage.Session{Token: token, Email: email, ExpiresAt: time.Now().Add(ttl)}
	return nil
}

func (f *fakeLocal) ClearSession() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = nil
	return nil
}

func (f *fakeLocal) Voice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.voice
}

func (f *fakeLocal) SetVoice(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.voice = id
	return nil
}

func (f *fakeLocal) Token() string {
	s, ok := f.Session()
	if !ok {
		return ""
	}
	return s.Token
}

type fakeRemote struct {
	local *fakeLocal

	mu        sync.Mutex
	docs      []vocab.Record
	created   []vocab.Record
	serverCfg *reminder.Config
	pushed    []reminder.Config
	sent      []string
	loggedOut bool
	loginErr  error
}

func (f *fakeRemote) Connected() bool { return f.local.Token() != "" }

func (f *fakeRemote) Create(_ context.Context, rec vocab.Record) *vocab.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, rec)
	rec.RemoteID = "srv-" + rec.Word
	return &rec
}

func (f *fakeRemote) Patch(context.Context, string, map[string]any) *vocab.Record { return nil }
func (f *fakeRemote) Delete(context.Context, string) bool                        { return true }

func (f *fakeRemote) SendMessage(_ context.Context, _, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeRemote) FetchAll(context.Context) []vocab.Record {
	if !f.Connected() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vocab.Record{}, f.docs...)
}

func (f *fakeRemote) Register(ctx context.Context, email, password string) (remote.AuthResult, error) {
	return f.Login(ctx, email, password)
}

func (f *fakeRemote) Login(_ context.Context, email, _ string) (remote.AuthResult, error) {
	if f.loginErr != nil {
		return remote.AuthResult{}, f.loginErr
	}
	var res remote.AuthResult
	res.Token = "tok"
	res.User.Email = email
	return res, nil
}

func (f *fakeRemote) Logout(context.Context) {
	f.mu.Lock()
	f.loggedOut = true
	f.mu.Unlock()
}

func (f *fakeRemote) LoadReminderConfig(context.Context) (*reminder.Config, error) {
	if !f.Connected() {
		return nil, remote.ErrNotConnected
	}
	return f.serverCfg, nil
}

func (f *fakeRemote) SaveReminderConfig(_ context.Context, cfg reminder.Config) (*reminder.Config, error) {
	if !f.Connected() {
		return nil, remote.ErrNotConnected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, cfg)
	return &cfg, nil
}

func (f *fakeRemote) Status(context.Context) remote.Status {
	if !f.Connected() {
		return remote.Status{}
	}
	return remote.Status{Connected: true, ChatID: "42"}
}

func (f *fakeRemote) TestSend(_ context.Context, text string) (bool, error) {
	if !f.Connected() {
		return false, remote.ErrNotConnected
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return true, nil
}

func (f *fakeRemote) DetectChat(context.Context, string) (string, error) { return "777", nil }

type fakeEnricher struct {
	mu        sync.Mutex
	info      map[string]vocab.Enrichment
	translate string
	example   string
	calls     int
	gate      chan struct{}
	decks     map[string][]vocab.Record
}

func (f *fakeEnricher) Analyze(_ context.Context, word string) (vocab.Enrichment, error) {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	info, ok := f.info[word]
	if !ok {
		return vocab.Enrichment{}, enrich.ErrNotFound
	}
	return info, nil
}

func (f *fakeEnricher) Translate(context.Context, string) string { return f.translate }
func (f *fakeEnricher) Example(context.Context, string) string   { return f.example }

func (f *fakeEnricher) ListDecks() []string {
	var names []string
	for n := range f.decks {
		names = append(names, n)
	}
	return names
}

func (f *fakeEnricher) LoadDeck(name string) []vocab.Record { return f.decks[name] }

func (f *fakeEnricher) DeckPreview(string) (string, bool) { return "", false }

type fixture struct {
	app    *App
	local  *fakeLocal
	remote *fakeRemote
	enrich *fakeEnricher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local := &fakeLocal{reminder: reminder.DefaultConfig()}
	rem := &fakeRemote{local: local}
	en := &fakeEnricher{info: map[string]vocab.Enrichment{
		"run": {Phonetics: "/rʌn/", PartOfSpeech: "verb", Definition: "to move fast", Example: "I run daily."},
	}}
	a := New(Options{Local: local, Remote: rem, Enrich: en})
	t.Cleanup(a.Close)
	return &fixture{app: a, local: local, remote: rem, enrich: en}
}

func TestAddWord_NoAnalysisNoLookups(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.Bootstrap(context.Background()))

	res, err := f.app.AddWord(context.Background(), Form{Word: " run "})
	require.NoError(t, err)
	assert.Equal(t, "run", res.Record.Word)
	assert.Empty(t, res.Record.Meaning)
	assert.Empty(t, res.Record.Example)
	assert.Equal(t, vocab.StatusNew, res.Record.Status)

	first, ok := f.app.Store().First()
	require.True(t, ok)
	assert.Equal(t, res.Record.ID, first.ID)
	assert.Len(t, f.local.words, 1)
	assert.Zero(t, f.enrich.calls)
}

func TestAddWord_WithAnalysis(t *testing.T) {
	f := newFixture(t)
	f.enrich.translate = "chạy"

	res, err := f.app.AddWord(context.Background(), Form{Word: "run", AutoAnalyze: true})
	require.NoError(t, err)
	assert.NoError(t, res.AnalyzeErr)
	assert.Equal(t, "chạy", res.Record.Meaning)
	assert.Equal(t, "I run daily.", res.Record.Example)
	assert.Equal(t, "/rʌn/", res.Record.Phonetics)
	assert.Equal(t, "to move fast", res.Record.Definition)
}

func TestAddWord_AnalysisFailureStillSaves(t *testing.T) {
	f := newFixture(t)
	f.enrich.example = "Zyx is rare."

	res, err := f.app.AddWord(context.Background(), Form{Word: "zyx", Meaning: "mine", AutoAnalyze: true})
	require.NoError(t, err)
	assert.ErrorIs(t, res.AnalyzeErr, enrich.ErrNotFound)
	assert.Equal(t, "mine", res.Record.Meaning)
	assert.Equal(t, "Zyx is rare.", res.Record.Example)
	assert.Equal(t, 1, f.app.Store().Len())
}

func TestAddWord_Blank(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.AddWord(context.Background(), Form{Word: "  "})
	assert.ErrorIs(t, err, ErrEmptyWord)
	assert.Zero(t, f.app.Store().Len())
}

func TestAddWord_SyncsWhenSignedIn(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.Login(context.Background(), "a@b.c", "pw"))

	res, err := f.app.AddWord(context.Background(), Form{Word: "run"})
	require.NoError(t, err)
	f.app.Wait()

	got, ok := f.app.Store().Get(res.Record.ID)
	require.True(t, ok)
	assert.Equal(t, "srv-run", got.RemoteID)
}

func TestBootstrap_ServerReplacesLocal(t *testing.T) {
	f := newFixture(t)
	f.local.words = []vocab.Record{{ID: "l1", Word: "local"}}
	f.local.session = &storage.Session{Token: "tok"}
	f.remote.docs = []vocab.Record{
		{RemoteID: "s1", Word: "alpha", CreatedAt: 1},
		{RemoteID: "s1", Word: "dup", CreatedAt: 2},
		{Word: "beta", CreatedAt: 3, Status: "weird"},
	}

	require.NoError(t, f.app.Bootstrap(context.Background()))

	all := f.app.Store().All()
	require.Len(t, all, 3)
	assert.Equal(t, "s1", all[0].ID)
	assert.Equal(t, "s1#1", all[1].ID)
	assert.Equal(t, "beta_3", all[2].ID)
	assert.Equal(t, vocab.StatusNew, all[2].Status)
	assert.Len(t, f.local.words, 3)
}

func TestBootstrap_OfflineKeepsLocal(t *testing.T) {
	f := newFixture(t)
	f.local.words = []vocab.Record{{ID: "l1", Word: "local"}}
	f.remote.docs = []vocab.Record{{RemoteID: "s1", Word: "server"}}

	require.NoError(t, f.app.Bootstrap(context.Background()))
	all := f.app.Store().All()
	require.Len(t, all, 1)
	assert.Equal(t, "local", all[0].Word)
}

func TestSyncFromServer_NotConnected(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.SyncFromServer(context.Background())
	assert.ErrorIs(t, err, remote.ErrNotConnected)
}

func TestDisplay_LazyEnrichment(t *testing.T) {
	f := newFixture(t)
	f.local.words = []vocab.Record{{ID: "1", Word: "run", Meaning: "chạy"}}
	require.NoError(t, f.app.Bootstrap(context.Background()))

	updates := make(chan Card, 1)
	f.app.OnUpdate(func(c Card) { updates <- c })

	card := f.app.Display(context.Background())
	assert.True(t, card.Enriching)
	assert.Equal(t, "chạy", card.Meaning)

	select {
	case c := <-updates:
		assert.Equal(t, "/rʌn/", c.Phonetics)
		assert.Equal(t, "I run daily.", c.Example)
		assert.Equal(t, "chạy", c.Meaning, "meaning is never overwritten")
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
	}
	f.app.Wait()

	stored, _ := f.app.Store().Get("1")
	assert.Equal(t, "to move fast", stored.Definition)
	assert.Equal(t, "/rʌn/", f.local.words[0].Phonetics)
}

func TestDisplay_StaleUpdateDropped(t *testing.T) {
	f := newFixture(t)
	f.enrich.gate = make(chan struct{})
	f.local.words = []vocab.Record{
		{ID: "1", Word: "run"},
		{ID: "2", Word: "walk", Phonetics: "/wɔːk/", Definition: "d", Example: "e"},
	}
	require.NoError(t, f.app.Bootstrap(context.Background()))

	var updates []Card
	var mu sync.Mutex
	f.app.OnUpdate(func(c Card) {
		mu.Lock()
		updates = append(updates, c)
		mu.Unlock()
	})

	first := f.app.Display(context.Background())
	require.Equal(t, "1", first.ID)
	require.True(t, first.Enriching)

	f.app.Store().Next()
	second := f.app.Display(context.Background())
	require.Equal(t, "2", second.ID)
	assert.False(t, second.Enriching)

	close(f.enrich.gate)
	f.app.Wait()

	mu.Lock()
	assert.Empty(t, updates)
	mu.Unlock()
	stored, _ := f.app.Store().Get("1")
	assert.Equal(t, "/rʌn/", stored.Phonetics, "store still gets the merge")
}

func TestDisplay_Empty(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.Bootstrap(context.Background()))
	card := f.app.Display(context.Background())
	assert.True(t, card.Empty())
}

func TestAnalyzeWord(t *testing.T) {
	f := newFixture(t)
	info, err := f.app.AnalyzeWord(context.Background(), "run")
	require.NoError(t, err)
	assert.Equal(t, "verb", info.PartOfSpeech)

	_, err = f.app.AnalyzeWord(context.Background(), "nope")
	assert.ErrorIs(t, err, enrich.ErrNotFound)
	_, err = f.app.AnalyzeWord(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyWord)
}

func TestImportDeck(t *testing.T) {
	f := newFixture(t)
	f.local.words = []vocab.Record{{ID: "x", Word: "Ability"}}
	require.NoError(t, f.app.Bootstrap(context.Background()))
	f.enrich.decks = map[string][]vocab.Record{
		"ielts.json": {
			{ID: "ielts.json#0", Word: "abandon", Meaning: "từ bỏ"},
			{ID: "ielts.json#1", Word: "ability"},
			{ID: "ielts.json#2", Word: "absorb"},
		},
	}

	n, err := f.app.ImportDeck("ielts.json")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all := f.app.Store().All()
	require.Len(t, all, 3)
	assert.Equal(t, "abandon", all[0].Word)
	assert.Equal(t, "absorb", all[1].Word)
	assert.NotEqual(t, "ielts.json#0", all[0].ID)

	_, err = f.app.ImportDeck("missing.json")
	assert.Error(t, err)
}

func TestLoginLogout(t *testing.T) {
	f := newFixture(t)
	f.remote.serverCfg = &reminder.Config{Enabled: true, Hour: 7, Minute: 30}
	f.local.reminder = reminder.Config{Hour: 8, Token: "bot", ChatID: "1"}

	require.NoError(t, f.app.Login(context.Background(), "a@b.c", "pw"))
	email, ok := f.app.Account()
	assert.True(t, ok)
	assert.Equal(t, "a@b.c", email)
	assert.Equal(t, reminder.Config{Enabled: true, Hour: 7, Minute: 30, Token: "bot", ChatID: "1"}, f.local.reminder)

	require.NoError(t, f.app.Logout(context.Background()))
	assert.True(t, f.remote.loggedOut)
	_, ok = f.app.Account()
	assert.False(t, ok)
}

func TestVoice(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.app.Voice())
	assert.Error(t, f.app.SetVoice("  "))
	require.NoError(t, f.app.SetVoice(" Samantha "))
	assert.Equal(t, "Samantha", f.app.Voice())
}

func TestLogin_Errors(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.app.Login(context.Background(), "", "pw"), ErrCredentials)

	f.remote.loginErr = errors.New("bad credentials")
	assert.Error(t, f.app.Login(context.Background(), "a@b.c", "pw"))
	_, ok := f.app.Account()
	assert.False(t, ok)
}

func TestSaveReminder(t *testing.T) {
	f := newFixture(t)
	cfg := reminder.Config{Enabled: true, Hour: 21, Minute: 5, Token: "bot", ChatID: "1"}

	require.NoError(t, f.app.SaveReminder(context.Background(), cfg))
	assert.Equal(t, cfg, f.local.reminder)
	assert.Empty(t, f.remote.pushed, "offline save stays local")

	f.local.session = &storage.Session{Token: "tok"}
	require.NoError(t, f.app.SaveReminder(context.Background(), cfg))
	assert.Equal(t, []reminder.Config{cfg}, f.remote.pushed)

	assert.Error(t, f.app.SaveReminder(context.Background(), reminder.Config{Hour: 24}))
}

func TestDetectChat(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.DetectChat(context.Background(), "")
	assert.Error(t, err)

	id, err := f.app.DetectChat(context.Background(), "bot")
	require.NoError(t, err)
	assert.Equal(t, "777", id)
	assert.Equal(t, "777", f.local.reminder.ChatID)
	assert.Equal(t, "bot", f.local.reminder.Token)
	assert.True(t, f.local.reminder.Enabled)
	assert.Empty(t, f.remote.pushed, "offline detect stays local")

	f.local.session = &storage.Session{Token: "tok"}
	_, err = f.app.DetectChat(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, f.remote.pushed, 1)
	want := reminder.DefaultConfig()
	want.Enabled, want.Token, want.ChatID = true, "bot", "777"
	assert.Equal(t, want, f.remote.pushed[0])
}

func TestTestSend(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.Bootstrap(context.Background()))

	assert.Error(t, f.app.TestSend(context.Background()), "no bot configured")

	f.local.reminder = reminder.Config{Token: "bot", ChatID: "1"}
	require.NoError(t, f.app.TestSend(context.Background()))

	f.local.session = &storage.Session{Token: "tok"}
	_, err := f.app.AddWord(context.Background(), Form{Word: "run"})
	require.NoError(t, err)
	require.NoError(t, f.app.TestSend(context.Background()))

	assert.Equal(t, []string{
		"Nhắc học từ vựng hôm nay: Học từ vựng nhé!",
		"Nhắc học từ vựng hôm nay: run",
	}, f.remote.sent)

	assert.Equal(t, remote.Status{Connected: true, ChatID: "42"}, f.app.ReminderStatus(context.Background()))
}

func TestDecks(t *testing.T) {
	f := newFixture(t)
	f.enrich.decks = map[string][]vocab.Record{"a.json": nil}
	assert.Equal(t, []Deck{{Name: "a.json"}}, f.app.Decks())
}
