package enrich

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

// deckEntry is one pre-enriched card in a deck file.
type deckEntry struct {
	Word         string   `json:"word"`
	IPA          string   `json:"ipa"`
	PartOfSpeech string   `json:"part_of_speech"`
	DefinitionVI string   `json:"definition_vi"`
	ExamplesVI   []string `json:"examples_vi"`
	ImageURL     string   `json:"image_url"`
	AudioURL     string   `json:"audio_url"`
}

func (e deckEntry) record(deck string, i int) vocab.Record {
	r := vocab.Record{
		ID:           fmt.Sprintf("%s#%d", deck, i),
		Word:         strings.TrimSpace(e.Word),
		Meaning:      e.DefinitionVI,
		Phonetics:    e.IPA,
		PartOfSpeech: e.PartOfSpeech,
		AudioURL:     e.AudioURL,
		Status:       vocab.StatusNew,
	}
	for _, ex := range e.ExamplesVI {
		if ex = strings.TrimSpace(ex); ex != "" {
			r.Example = ex
			break
		}
	}
	return r
}

// ListDecks returns the deck files available, sorted by name.
func (c *Client) ListDecks() []string {
	if c.decks == nil {
		return nil
	}
	names, err := fs.Glob(c.decks, "*.json")
	if err != nil {
		return nil
	}
	sort.Strings(names)
	return names
}

// LoadDeck returns the records of a deck file, or nil when it cannot be
// read. Results, including failures, are memoized per filename.
func (c *Client) LoadDeck(filename string) []vocab.Record {
	c.mu.Lock()
	if recs, ok := c.deckMemo[filename]; ok {
		c.mu.Unlock()
		return recs
	}
	c.mu.Unlock()

	entries, err := c.readDeck(filename)
	var recs []vocab.Record
	if err != nil {
		c.log.Warn("load deck", zap.String("deck", filename), zap.Error(err))
	} else {
		recs = make([]vocab.Record, 0, len(entries))
		for i, e := range entries {
			if e.Word == "" {
				continue
			}
			recs = append(recs, e.record(filename, i))
		}
	}

	c.mu.Lock()
	c.deckMemo[filename] = recs
	c.mu.Unlock()
	return recs
}

// DeckPreview returns the first image reference in a deck. The lookup,
// including a deck without images, runs at most once per deck.
func (c *Client) DeckPreview(filename string) (string, bool) {
	c.mu.Lock()
	if img, ok := c.previews[filename]; ok {
		c.mu.Unlock()
		return img, img != ""
	}
	c.mu.Unlock()

	img := ""
	if entries, err := c.readDeck(filename); err == nil {
		for _, e := range entries {
			if e.ImageURL != "" {
				img = e.ImageURL
				break
			}
		}
	}

	c.mu.Lock()
	c.previews[filename] = img
	c.mu.Unlock()
	return img, img != ""
}

func (c *Client) readDeck(filename string) ([]deckEntry, error) {
	if c.decks == nil {
		return nil, fmt.Errorf("no deck directory configured")
	}
	if !fs.ValidPath(filename) || path.Ext(filename) != ".json" {
		return nil, fmt.Errorf("invalid deck name %q", filename)
	}
	data, err := fs.ReadFile(c.decks, filename)
	if err != nil {
		return nil, fmt.Errorf("read deck: %w", err)
	}
	var entries []deckEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", filename, err)
	}
	return entries, nil
}
