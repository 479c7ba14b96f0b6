// Package enrich looks up linguistic metadata for words and loads the
// bundled deck files.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

// DefaultDictionaryURL is the Free Dictionary API entry endpoint.
const DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

const (
	defaultRateLimit = 2
	defaultBurst     = 4
)

// ErrNotFound means the dictionary has no entry for the word.
var ErrNotFound = errors.New("word not found")

// Lookup is the server-side translation and example service.
type Lookup interface {
	Translate(ctx context.Context, text string) string
	Example(ctx context.Context, word string) string
}

// Config configures a Client. Zero values pick sensible defaults.
type Config struct {
	DictionaryURL string
	HTTPClient    *http.Client
	Lookup        Lookup
	// Decks is the directory holding deck JSON files; nil disables decks.
	Decks fs.FS
	// RateLimit caps dictionary requests per second.
	RateLimit rate.Limit
	Burst     int
	Log       *zap.Logger
}

// Client enriches words. Dictionary results are cached per lower-cased
// word for the lifetime of the Client, and concurrent lookups of the
// same word share one request.
type Client struct {
	dictURL string
	http    *http.Client
	lookup  Lookup
	decks   fs.FS
	limiter *rate.Limiter
	log     *zap.Logger

	group singleflight.Group

	mu       sync.Mutex
	cache    map[string]vocab.Enrichment
	deckMemo map[string][]vocab.Record
	previews map[string]string
}

// New creates a Client.
func New(cfg Config) *Client {
	if cfg.DictionaryURL == "" {
		cfg.DictionaryURL = DefaultDictionaryURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.Burst == 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Client{
		dictURL:  strings.TrimRight(cfg.DictionaryURL, "/"),
		http:     cfg.HTTPClient,
		lookup:   cfg.Lookup,
		decks:    cfg.Decks,
		limiter:  rate.NewLimiter(cfg.RateLimit, cfg.Burst),
		log:      cfg.Log,
		cache:    make(map[string]vocab.Enrichment),
		deckMemo: make(map[string][]vocab.Record),
		previews: make(map[string]string),
	}
}

// Cached returns the cached enrichment for word, if any.
func (c *Client) Cached(word string) (vocab.Enrichment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.cache[strings.ToLower(word)]
	return info, ok
}

// Analyze returns the first dictionary entry for word. Errors wrap
// ErrNotFound when the dictionary has no match; any other error is a
// transport or decoding failure.
func (c *Client) Analyze(ctx context.Context, word string) (vocab.Enrichment, error) {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return vocab.Enrichment{}, fmt.Errorf("analyze: empty word: %w", ErrNotFound)
	}
	if info, ok := c.Cached(key); ok {
		return info, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if info, ok := c.Cached(key); ok {
			return info, nil
		}
		info, err := c.fetch(ctx, key)
		if err != nil {
			return vocab.Enrichment{}, err
		}
		c.mu.Lock()
		c.cache[key] = info
		c.mu.Unlock()
		return info, nil
	})
	if err != nil {
		return vocab.Enrichment{}, err
	}
	return v.(vocab.Enrichment), nil
}

type dictEntry struct {
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text  string `json:"text"`
		Audio string `json:"audio"`
	} `json:"phonetics"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

func (c *Client) fetch(ctx context.Context, word string) (vocab.Enrichment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: %w", word, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.dictURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: %w", word, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: dictionary unreachable: %w", word, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: %w", word, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: dictionary returned %s", word, resp.Status)
	}

	var entries []dictEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: malformed response: %w", word, err)
	}
	if len(entries) == 0 {
		return vocab.Enrichment{}, fmt.Errorf("analyze %q: %w", word, ErrNotFound)
	}
	return entries[0].enrichment(), nil
}

func (e dictEntry) enrichment() vocab.Enrichment {
	var info vocab.Enrichment
	info.Phonetics = e.Phonetic
	for _, p := range e.Phonetics {
		if info.Phonetics == "" && p.Text != "" {
			info.Phonetics = p.Text
		}
		if info.AudioURL == "" && p.Audio != "" {
			info.AudioURL = p.Audio
		}
	}
	if len(e.Meanings) > 0 {
		m := e.Meanings[0]
		info.PartOfSpeech = m.PartOfSpeech
		if len(m.Definitions) > 0 {
			info.Definition = m.Definitions[0].Definition
			info.Example = m.Definitions[0].Example
		}
	}
	return info
}

// Translate returns a best-effort translation of text, empty on failure.
func (c *Client) Translate(ctx context.Context, text string) string {
	if c.lookup == nil || strings.TrimSpace(text) == "" {
		return ""
	}
	return c.lookup.Translate(ctx, text)
}

// Example returns a best-effort example sentence, empty on failure.
func (c *Client) Example(ctx context.Context, word string) string {
	if c.lookup == nil || strings.TrimSpace(word) == "" {
		return ""
	}
	return c.lookup.Example(ctx, word)
}
