package enrich

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

const runEntry = `[{
	"word": "run",
	"phonetics": [{"text": "", "audio": ""}, {"text": "/rʌn/", "audio": ""}, {"audio": "https://audio/run.mp3"}],
	"meanings": [
		{"partOfSpeech": "verb", "definitions": [{"definition": "To move swiftly.", "example": "Run to the store."}, {"definition": "second"}]},
		{"partOfSpeech": "noun", "definitions": [{"definition": "An act of running."}]}
	]
}, {"word": "run", "phonetic": "/ignored/"}]`

func dictionaryServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "run":
			_, _ = w.Write([]byte(runEntry))
		case "empty":
			_, _ = w.Write([]byte(`[]`))
		case "broken":
			_, _ = w.Write([]byte(`{`))
		case "flaky":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"title":"No Definitions Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, hits *int32) *Client {
	srv := dictionaryServer(t, hits)
	return New(Config{DictionaryURL: srv.URL, HTTPClient: srv.Client(), RateLimit: rate.Inf})
}

func TestAnalyze_FirstEntry(t *testing.T) {
	var hits int32
	c := newTestClient(t, &hits)

	info, err := c.Analyze(context.Background(), "run")
	require.NoError(t, err)
	assert.Equal(t, vocab.Enrichment{
		Phonetics:    "/rʌn/",
		AudioURL:     "https://audio/run.mp3",
		PartOfSpeech: "verb",
		Definition:   "To move swiftly.",
		Example:      "Run to the store.",
	}, info)
}

func TestAnalyze_CachedCaseInsensitive(t *testing.T) {
	var hits int32
	c := newTestClient(t, &hits)

	_, err := c.Analyze(context.Background(), "run")
	require.NoError(t, err)
	_, err = c.Analyze(context.Background(), "RUN")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	_, ok := c.Cached("Run")
	assert.True(t, ok)
}

func TestAnalyze_ConcurrentCallsShareLookup(t *testing.T) {
	var hits int32
	c := newTestClient(t, &hits)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Analyze(context.Background(), "Run")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		word     string
		notFound bool
	}{
		{"zzzz", true},
		{"empty", true},
		{"", true},
		{"broken", false},
		{"flaky", false},
	}
	for _, tc := range tests {
		t.Run(tc.word, func(t *testing.T) {
			var hits int32
			c := newTestClient(t, &hits)
			_, err := c.Analyze(context.Background(), tc.word)
			require.Error(t, err)
			assert.Equal(t, tc.notFound, errors.Is(err, ErrNotFound))
		})
	}
}

func TestAnalyze_ErrorsNotCached(t *testing.T) {
	var hits int32
	c := newTestClient(t, &hits)
	_, _ = c.Analyze(context.Background(), "flaky")
	_, _ = c.Analyze(context.Background(), "flaky")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestAnalyze_TransportError(t *testing.T) {
	c := New(Config{DictionaryURL: "http://127.0.0.1:1", RateLimit: rate.Inf})
	_, err := c.Analyze(context.Background(), "run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dictionary unreachable")
}

type fakeLookup struct{ translated, example string }

func (f fakeLookup) Translate(context.Context, string) string { return f.translated }
func (f fakeLookup) Example(context.Context, string) string   { return f.example }

func TestTranslateAndExample(t *testing.T) {
	c := New(Config{Lookup: fakeLookup{translated: "chạy", example: "I run."}})
	assert.Equal(t, "chạy", c.Translate(context.Background(), "run"))
	assert.Equal(t, "I run.", c.Example(context.Background(), "run"))
	assert.Empty(t, c.Translate(context.Background(), "  "))

	offline := New(Config{})
	assert.Empty(t, offline.Translate(context.Background(), "run"))
	assert.Empty(t, offline.Example(context.Background(), "run"))
}

func deckFS() *countingFS {
	return &countingFS{files: fstest.MapFS{
		"ielts.json": {Data: []byte(`[
			{"word": "abandon", "ipa": "/əˈbændən/", "part_of_speech": "verb", "definition_vi": "từ bỏ",
			 "examples_vi": ["", "He abandoned the plan."], "image_url": "", "audio_url": "https://a/abandon.mp3"},
			{"word": "", "ipa": "skip"},
			{"word": "ability", "definition_vi": "khả năng", "image_url": "https://img/ability.png"}
		]`)},
		"plain.json":  {Data: []byte(`[{"word": "cat"}]`)},
		"broken.json": {Data: []byte(`nope`)},
		"notes.txt":   {Data: []byte(`ignored`)},
	}}
}

// countingFS counts file opens so memoization can be observed.
type countingFS struct {
	files fstest.MapFS
	opens int32
}

func (c *countingFS) Open(name string) (fs.File, error) {
	atomic.AddInt32(&c.opens, 1)
	return c.files.Open(name)
}

func TestListDecks(t *testing.T) {
	c := New(Config{Decks: deckFS()})
	assert.Equal(t, []string{"broken.json", "ielts.json", "plain.json"}, c.ListDecks())
	assert.Nil(t, New(Config{}).ListDecks())
}

func TestLoadDeck(t *testing.T) {
	c := New(Config{Decks: deckFS()})

	recs := c.LoadDeck("ielts.json")
	require.Len(t, recs, 2)
	assert.Equal(t, vocab.Record{
		ID:           "ielts.json#0",
		Word:         "abandon",
		Meaning:      "từ bỏ",
		Example:      "He abandoned the plan.",
		Phonetics:    "/əˈbændən/",
		PartOfSpeech: "verb",
		AudioURL:     "https://a/abandon.mp3",
		Status:       vocab.StatusNew,
	}, recs[0])
	assert.Equal(t, "ability", recs[1].Word)
}

func TestLoadDeck_MemoizesFailures(t *testing.T) {
	decks := deckFS()
	c := New(Config{Decks: decks})

	assert.Nil(t, c.LoadDeck("broken.json"))
	assert.Nil(t, c.LoadDeck("broken.json"))
	assert.Nil(t, c.LoadDeck("missing.json"))
	assert.Nil(t, c.LoadDeck("missing.json"))
	assert.Nil(t, c.LoadDeck("../escape.json"))

	assert.Equal(t, int32(2), atomic.LoadInt32(&decks.opens))
}

func TestDeckPreview(t *testing.T) {
	decks := deckFS()
	c := New(Config{Decks: decks})

	img, ok := c.DeckPreview("ielts.json")
	assert.True(t, ok)
	assert.Equal(t, "https://img/ability.png", img)

	_, ok = c.DeckPreview("plain.json")
	assert.False(t, ok)
	_, ok = c.DeckPreview("plain.json")
	assert.False(t, ok)

	assert.Equal(t, int32(2), atomic.LoadInt32(&decks.opens), "each deck is read once")
}
