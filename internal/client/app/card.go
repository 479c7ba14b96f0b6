package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

// Card is what the flashcard view shows for the current record.
type Card struct {
	ID           string
	Word         string
	Phonetics    string
	PartOfSpeech string
	// Meaning is the translated meaning, falling back to the definition.
	Meaning  string
	Example  string
	AudioURL string
	Status   vocab.Status
	// Index is zero-based within the filtered view.
	Index   int
	Total   int
	Flipped bool
	// Enriching is set when a dictionary lookup was started for the card.
	Enriching bool
}

// Empty reports whether the filtered view has no cards.
func (c Card) Empty() bool {
	return c.Total == 0
}

func cardFor(r vocab.Record, index, total int, flipped bool) Card {
	meaning := r.Meaning
	if meaning == "" {
		meaning = r.Definition
	}
	return Card{
		ID:           r.ID,
		Word:         r.Word,
		Phonetics:    r.Phonetics,
		PartOfSpeech: r.PartOfSpeech,
		Meaning:      meaning,
		Example:      r.Example,
		AudioURL:     r.AudioURL,
		Status:       r.Status,
		Index:        index,
		Total:        total,
		Flipped:      flipped,
	}
}

// OnUpdate registers fn to receive a refreshed card when background
// enrichment of the displayed card finishes. fn runs on the enrichment
// goroutine.
func (a *App) OnUpdate(fn func(Card)) {
	a.mu.Lock()
	a.onUpdate = fn
	a.mu.Unlock()
}

// Display returns the current card and marks it as displayed. When the
// record lacks looked-up fields, enrichment starts in the background;
// its result is merged into the store and reported through OnUpdate only
// if the same record is still displayed by then.
func (a *App) Display(ctx context.Context) Card {
	rec, ok := a.store.Current()
	index, total := a.store.Position()
	if !ok {
		a.mu.Lock()
		a.displayed = ""
		a.mu.Unlock()
		return Card{}
	}
	card := cardFor(rec, index, total, a.store.Flipped())

	a.mu.Lock()
	a.displayed = rec.ID
	a.mu.Unlock()

	if rec.NeedsEnrichment() {
		card.Enriching = true
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.enrichDisplayed(ctx, rec)
		}()
	}
	return card
}

func (a *App) enrichDisplayed(ctx context.Context, rec vocab.Record) {
	select {
	case <-a.ctx.Done():
		return
	default:
	}
	info, err := a.enrich.Analyze(ctx, rec.Word)
	if err != nil {
		a.log.Debug("lazy enrichment", zap.String("word", rec.Word), zap.Error(err))
		return
	}
	merged, found, err := a.store.MergeEnrichment(rec.ID, info)
	if err != nil {
		a.log.Warn("save enrichment", zap.String("id", rec.ID), zap.Error(err))
	}
	if !found {
		return
	}

	a.mu.Lock()
	stale := a.displayed != rec.ID
	fn := a.onUpdate
	a.mu.Unlock()
	if stale || fn == nil {
		return
	}
	index, total := a.store.Position()
	fn(cardFor(merged, index, total, a.store.Flipped()))
}
