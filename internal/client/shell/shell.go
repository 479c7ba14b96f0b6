// Package shell is the interactive flashcard session and the text
// rendering shared with the one-shot CLI commands.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/atinyakov/FlashVocab/internal/client/app"
	"github.com/atinyakov/FlashVocab/internal/client/enrich"
	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

const helpText = `Commands:
  show                 show the current card
  next, prev           move through the deck
  flip                 turn the card over
  shuffle              shuffle the filtered deck
  known                toggle known / learning
  delete               delete the current card
  add [word]           add a word
  analyze <word>       look a word up without saving it
  filter <status> [q]  status is all, new, learning or known
  search [q]           search word, meaning and definition
  list                 list the filtered deck
  decks                list deck files
  import <deck>        add a deck to your words
  sync                 replace local words with the server copy
  voice [id]           show or set the pronunciation voice
  exit`

var errNoCard = errors.New("no card selected")

// Shell runs the read-eval-print loop over an App.
type Shell struct {
	app    *app.App
	prompt *Prompter
	out    io.Writer
}

// syncWriter serializes writes from the loop and from card refreshes.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (sw *syncWriter) Write(p []byte) (int, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.w.Write(p)
}

// New creates a shell reading commands from in.
func New(a *app.App, in io.Reader, out io.Writer) *Shell {
	w := &syncWriter{w: out}
	s := &Shell{app: a, prompt: NewPrompter(in, w), out: w}
	a.OnUpdate(func(c app.Card) {
		var buf bytes.Buffer
		fmt.Fprintln(&buf)
		RenderCard(&buf, c)
		_, _ = w.Write(buf.Bytes())
	})
	return s
}

// Run processes commands until exit, end of input or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	for ctx.Err() == nil {
		line, ok := s.prompt.Ask("flashvocab> ")
		if !ok {
			return
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(s.out, "Bye")
			return
		}
		if err := s.exec(ctx, args[0], args[1:]); err != nil {
			fmt.Fprintln(s.out, "Error:", Describe(err))
		}
	}
}

func (s *Shell) exec(ctx context.Context, cmd string, args []string) error {
	store := s.app.Store()
	switch cmd {
	case "help":
		fmt.Fprintln(s.out, helpText)
	case "show":
		s.show(ctx)
	case "next":
		store.Next()
		s.show(ctx)
	case "prev":
		store.Prev()
		s.show(ctx)
	case "flip":
		store.Flip()
		s.show(ctx)
	case "shuffle":
		store.Shuffle()
		s.show(ctx)
	case "known":
		rec, err := store.ToggleKnown()
		if err != nil {
			return err
		}
		if rec.ID == "" {
			return errNoCard
		}
		fmt.Fprintf(s.out, "%s is now %s\n", rec.Word, rec.Status)
	case "delete":
		rec, err := store.DeleteCurrent()
		if err != nil {
			return err
		}
		if rec.ID == "" {
			return errNoCard
		}
		fmt.Fprintf(s.out, "Deleted %s\n", rec.Word)
	case "add":
		form := s.prompt.PromptForWord(strings.Join(args, " "))
		res, err := s.app.AddWord(ctx, form)
		if err != nil {
			return err
		}
		if res.AnalyzeErr != nil {
			fmt.Fprintln(s.out, "Could not analyze, saved as entered.")
		}
		fmt.Fprintf(s.out, "Saved %s\n", res.Record.Word)
	case "analyze":
		if len(args) == 0 {
			return errors.New("usage: analyze <word>")
		}
		word := strings.Join(args, " ")
		info, err := s.app.AnalyzeWord(ctx, word)
		if err != nil {
			return err
		}
		RenderAnalysis(s.out, word, info)
	case "filter":
		if len(args) == 0 {
			return errors.New("usage: filter <all|new|learning|known> [search]")
		}
		store.ApplyFilter(args[0], strings.Join(args[1:], " "))
		s.show(ctx)
	case "search":
		status, _ := store.Filter()
		store.ApplyFilter(status, strings.Join(args, " "))
		s.show(ctx)
	case "list":
		RenderList(s.out, store.View())
	case "decks":
		RenderDecks(s.out, s.app.Decks())
	case "import":
		if len(args) != 1 {
			return errors.New("usage: import <deck>")
		}
		n, err := s.app.ImportDeck(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Imported %d words\n", n)
	case "sync":
		n, err := s.app.SyncFromServer(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Synced %d words\n", n)
	case "voice":
		if len(args) == 0 {
			fmt.Fprintf(s.out, "Voice: %s\n", orDash(s.app.Voice()))
			return nil
		}
		if err := s.app.SetVoice(strings.Join(args, " ")); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "Voice set to %s\n", s.app.Voice())
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help' for a list of commands.")
	}
	return nil
}

func (s *Shell) show(ctx context.Context) {
	card := s.app.Display(ctx)
	var buf bytes.Buffer
	RenderCard(&buf, card)
	if card.Enriching {
		fmt.Fprintln(&buf, "  (analyzing...)")
	}
	_, _ = s.out.Write(buf.Bytes())
}

// RenderCard prints a card. The back face shows meaning and example.
func RenderCard(w io.Writer, c app.Card) {
	if c.Empty() {
		fmt.Fprintln(w, "No words yet. Add one with 'add'.")
		fmt.Fprintln(w, "0 / 0")
		return
	}
	fmt.Fprintf(w, "[%d / %d] %s", c.Index+1, c.Total, c.Word)
	if c.Phonetics != "" {
		fmt.Fprintf(w, "  %s", c.Phonetics)
	}
	if c.PartOfSpeech != "" {
		fmt.Fprintf(w, "  (%s)", c.PartOfSpeech)
	}
	fmt.Fprintf(w, "  [%s]\n", c.Status)
	if !c.Flipped {
		return
	}
	fmt.Fprintf(w, "  Meaning: %s\n", orDash(c.Meaning))
	fmt.Fprintf(w, "  Example: %s\n", orDash(c.Example))
	if c.AudioURL != "" {
		fmt.Fprintf(w, "  Audio:   %s\n", c.AudioURL)
	}
}

// RenderAnalysis prints a dictionary lookup.
func RenderAnalysis(w io.Writer, word string, info vocab.Enrichment) {
	fmt.Fprintf(w, "Word:       %s\n", word)
	fmt.Fprintf(w, "Phonetics:  %s\n", info.Phonetics)
	fmt.Fprintf(w, "Part:       %s\n", info.PartOfSpeech)
	fmt.Fprintf(w, "Definition: %s\n", info.Definition)
	fmt.Fprintf(w, "Example:    %s\n", info.Example)
}

// RenderList prints records as a table.
func RenderList(w io.Writer, recs []vocab.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No words.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORD\tSTATUS\tMEANING")
	for _, r := range recs {
		meaning := r.Meaning
		if meaning == "" {
			meaning = r.Definition
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Word, r.Status, meaning)
	}
	_ = tw.Flush()
}

// RenderDecks prints the deck files.
func RenderDecks(w io.Writer, decks []app.Deck) {
	if len(decks) == 0 {
		fmt.Fprintln(w, "No decks found.")
		return
	}
	for _, d := range decks {
		if d.Preview != "" {
			fmt.Fprintf(w, "%s  %s\n", d.Name, d.Preview)
		} else {
			fmt.Fprintln(w, d.Name)
		}
	}
}

// Describe turns known errors into short user messages.
func Describe(err error) string {
	switch {
	case errors.Is(err, enrich.ErrNotFound):
		return "word not found in the dictionary"
	case errors.Is(err, app.ErrEmptyWord):
		return "please enter a word"
	default:
		return err.Error()
	}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
