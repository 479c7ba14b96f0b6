package shell

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/FlashVocab/internal/client/app"
	"github.com/atinyakov/FlashVocab/internal/client/reminder"
)

// Prompter asks questions line by line.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads answers from in and writes questions to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer. ok is false at
// end of input.
func (p *Prompter) Ask(question string) (answer string, ok bool) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.in.Text()), true
}

// AskDefault is Ask with a value used when the answer is empty.
func (p *Prompter) AskDefault(question, def string) string {
	answer, _ := p.Ask(fmt.Sprintf("%s [%s]: ", question, def))
	if answer == "" {
		return def
	}
	return answer
}

// Confirm asks a yes/no question.
func (p *Prompter) Confirm(question string, def bool) bool {
	d := "y/N"
	if def {
		d = "Y/n"
	}
	answer, _ := p.Ask(fmt.Sprintf("%s (%s): ", question, d))
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	case "n", "no":
		return false
	default:
		return def
	}
}

// PromptForWord collects the add-word form. word pre-fills the word
// when non-empty.
func (p *Prompter) PromptForWord(word string) app.Form {
	var form app.Form
	if word == "" {
		word, _ = p.Ask("Word: ")
	}
	form.Word = word
	form.Meaning, _ = p.Ask("Meaning (empty to translate): ")
	form.Example, _ = p.Ask("Example (empty to look up): ")
	form.AutoAnalyze = p.Confirm("Analyze with the dictionary?", true)
	return form
}

// PromptCredentials asks for whatever of email and password is missing.
func (p *Prompter) PromptCredentials(email, password string) (string, string) {
	if email == "" {
		email, _ = p.Ask("Email: ")
	}
	if password == "" {
		password, _ = p.Ask("Password: ")
	}
	return email, password
}

// PromptReminder edits cfg field by field; empty answers keep values.
func (p *Prompter) PromptReminder(cfg reminder.Config) (reminder.Config, error) {
	cfg.Enabled = p.Confirm("Enable daily reminder?", cfg.Enabled)

	hour, err := strconv.Atoi(p.AskDefault("Hour (0-23)", strconv.Itoa(cfg.Hour)))
	if err != nil {
		return cfg, fmt.Errorf("hour: %w", err)
	}
	minute, err := strconv.Atoi(p.AskDefault("Minute (0-59)", strconv.Itoa(cfg.Minute)))
	if err != nil {
		return cfg, fmt.Errorf("minute: %w", err)
	}
	cfg.Hour, cfg.Minute = hour, minute
	cfg.Token = p.AskDefault("Bot token", cfg.Token)
	cfg.ChatID = p.AskDefault("Chat ID", cfg.ChatID)
	return cfg, cfg.Validate()
}
