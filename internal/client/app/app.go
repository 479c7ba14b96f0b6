// Package app ties the vocabulary store to local storage, the sync
// server and the enrichment client. It is what the CLI drives.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/reminder"
	"github.com/atinyakov/FlashVocab/internal/client/remote"
	"github.com/atinyakov/FlashVocab/internal/client/storage"
	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

// ErrEmptyWord is returned when a word is required but blank.
var ErrEmptyWord = errors.New("word is required")

// Local is the durable client state.
type Local interface {
	vocab.Persister
	reminder.ConfigSource
	LoadWords() ([]vocab.Record, error)
	SaveReminder(cfg reminder.Config) error
	Session() (storage.Session, bool)
	SetSession(token, email string, ttl time.Duration) error
	ClearSession() error
	Voice() string
	SetVoice(id string) error
}

// Remote is the sync server.
type Remote interface {
	vocab.Syncer
	reminder.Sender
	FetchAll(ctx context.Context) []vocab.Record
	Register(ctx context.Context, email, password string) (remote.AuthResult, error)
	Login(ctx context.Context, email, password string) (remote.AuthResult, error)
	Logout(ctx context.Context)
	LoadReminderConfig(ctx context.Context) (*reminder.Config, error)
	SaveReminderConfig(ctx context.Context, cfg reminder.Config) (*reminder.Config, error)
	Status(ctx context.Context) remote.Status
	TestSend(ctx context.Context, text string) (bool, error)
	DetectChat(ctx context.Context, botToken string) (string, error)
}

// Enricher looks words up and reads decks.
type Enricher interface {
	Analyze(ctx context.Context, word string) (vocab.Enrichment, error)
	Translate(ctx context.Context, text string) string
	Example(ctx context.Context, word string) string
	ListDecks() []string
	LoadDeck(filename string) []vocab.Record
	DeckPreview(filename string) (string, bool)
}

// Options wires an App. Marks and Log may be nil.
type Options struct {
	Local  Local
	Remote Remote
	Enrich Enricher
	Marks  reminder.Marks
	Log    *zap.Logger
}

// App is one client session.
type App struct {
	local  Local
	remote Remote
	enrich Enricher
	store  *vocab.Store
	sched  *reminder.Scheduler
	log    *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	displayed string
	onUpdate  func(Card)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an App. Call Bootstrap before using it.
func New(opts Options) *App {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	marks := opts.Marks
	if marks == nil {
		marks = storage.NewSessionMarks()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		local:  opts.Local,
		remote: opts.Remote,
		enrich: opts.Enrich,
		store:  vocab.NewStore(opts.Local, opts.Remote, log.Named("store")),
		log:    log,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	a.sched = reminder.NewScheduler(opts.Local, a.store, opts.Remote, marks, log.Named("reminder"))
	return a
}

// Store exposes the vocabulary store for navigation and filtering.
func (a *App) Store() *vocab.Store {
	return a.store
}

// Scheduler returns the daily reminder scheduler.
func (a *App) Scheduler() *reminder.Scheduler {
	return a.sched
}

// Bootstrap loads the local list and, when logged in, replaces it with
// the server copy and pulls the reminder config. Server failures leave
// the local state as it was.
func (a *App) Bootstrap(ctx context.Context) error {
	words, err := a.local.LoadWords()
	if err != nil {
		return fmt.Errorf("load words: %w", err)
	}
	a.store.Load(words)

	if a.remote.Connected() {
		if _, err := a.SyncFromServer(ctx); err != nil {
			a.log.Warn("initial sync", zap.Error(err))
		}
		if _, err := a.RefreshReminder(ctx); err != nil {
			a.log.Debug("refresh reminder", zap.Error(err))
		}
	}
	a.store.ApplyFilter(vocab.FilterAll, "")
	return nil
}

// SyncFromServer replaces the local list with the server copy and
// returns the number of records received.
func (a *App) SyncFromServer(ctx context.Context) (int, error) {
	if !a.remote.Connected() {
		return 0, remote.ErrNotConnected
	}
	docs := a.remote.FetchAll(ctx)
	if docs == nil {
		return 0, errors.New("fetch words failed")
	}
	if err := a.store.ReplaceAll(vocab.Reconcile(docs, a.now())); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// Close stops background enrichment and waits for in-flight sync calls.
func (a *App) Close() {
	a.cancel()
	a.wg.Wait()
	a.store.Close()
}

// Wait blocks until background enrichment and sync calls are done.
func (a *App) Wait() {
	a.wg.Wait()
	a.store.Wait()
}

// Form is the add-word input.
type Form struct {
	Word        string
	Meaning     string
	Example     string
	AutoAnalyze bool
}

// AddResult is the outcome of AddWord. AnalyzeErr is set when the
// dictionary lookup failed and the word was saved without it.
type AddResult struct {
	Record     vocab.Record
	AnalyzeErr error
}

// AddWord saves a new word at the front of the list. A blank meaning is
// filled by translating the definition (or the word); a blank example by
// the dictionary example or the example service.
func (a *App) AddWord(ctx context.Context, form Form) (AddResult, error) {
	var res AddResult
	word := strings.TrimSpace(form.Word)
	if word == "" {
		return res, ErrEmptyWord
	}
	meaning := strings.TrimSpace(form.Meaning)
	example := strings.TrimSpace(form.Example)

	var info vocab.Enrichment
	if form.AutoAnalyze {
		got, err := a.enrich.Analyze(ctx, word)
		if err != nil {
			res.AnalyzeErr = err
		} else {
			info = got
		}
	}
	if meaning == "" {
		source := info.Definition
		if source == "" {
			source = word
		}
		meaning = a.enrich.Translate(ctx, source)
	}
	if example == "" {
		example = info.Example
		if example == "" {
			example = a.enrich.Example(ctx, word)
		}
	}
	if meaning == "" {
		meaning = info.Definition
	}

	rec, err := a.store.AddRecord(vocab.Record{
		Word:         word,
		Meaning:      meaning,
		Example:      example,
		Phonetics:    info.Phonetics,
		PartOfSpeech: info.PartOfSpeech,
		Definition:   info.Definition,
		AudioURL:     info.AudioURL,
	})
	res.Record = rec
	return res, err
}

// AnalyzeWord looks word up without saving anything.
func (a *App) AnalyzeWord(ctx context.Context, word string) (vocab.Enrichment, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return vocab.Enrichment{}, ErrEmptyWord
	}
	return a.enrich.Analyze(ctx, word)
}

// ImportDeck appends every word of a deck that is not already in the
// list and returns how many were added.
func (a *App) ImportDeck(filename string) (int, error) {
	recs := a.enrich.LoadDeck(filename)
	if recs == nil {
		return 0, fmt.Errorf("deck %s not available", filename)
	}
	have := make(map[string]bool, a.store.Len())
	for _, r := range a.store.All() {
		have[strings.ToLower(r.Word)] = true
	}
	added := 0
	// Oldest first so the deck keeps its order at the front of the list.
	for i := len(recs) - 1; i >= 0; i-- {
		r := recs[i]
		key := strings.ToLower(r.Word)
		if have[key] {
			continue
		}
		r.CreatedAt = 0
		if _, err := a.store.AddRecord(r); err != nil {
			return added, err
		}
		have[key] = true
		added++
	}
	return added, nil
}

// Decks lists the available deck files with their preview image.
func (a *App) Decks() []Deck {
	names := a.enrich.ListDecks()
	out := make([]Deck, 0, len(names))
	for _, n := range names {
		img, _ := a.enrich.DeckPreview(n)
		out = append(out, Deck{Name: n, Preview: img})
	}
	return out
}

// Deck is a deck file and its preview image, empty when it has none.
type Deck struct {
	Name    string
	Preview string
}
