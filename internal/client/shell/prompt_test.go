package shell

import (
	"io"
	"strings"
	"testing"

	"github.com/atinyakov/FlashVocab/internal/client/reminder"
)

func TestPromptForWord(t *testing.T) {
	p := NewPrompter(strings.NewReader("run\nchạy\n\nn\n"), io.Discard)

	form := p.PromptForWord("")

	if form.Word != "run" {
		t.Errorf("Word = %q; want %q", form.Word, "run")
	}
	if form.Meaning != "chạy" {
		t.Errorf("Meaning = %q; want %q", form.Meaning, "chạy")
	}
	if form.Example != "" {
		t.Errorf("Example = %q; want empty", form.Example)
	}
	if form.AutoAnalyze {
		t.Error("AutoAnalyze must be false after answering n")
	}
}

func TestPromptForWord_Prefilled(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader("\n\n\n"), &out)

	form := p.PromptForWord("walk")

	if form.Word != "walk" {
		t.Errorf("Word = %q; want %q", form.Word, "walk")
	}
	if !form.AutoAnalyze {
		t.Error("AutoAnalyze defaults to true")
	}
	if strings.Contains(out.String(), "Word:") {
		t.Error("word must not be asked when given")
	}
}

func TestPromptCredentials(t *testing.T) {
	p := NewPrompter(strings.NewReader("secret\n"), io.Discard)
	email, password := p.PromptCredentials("a@b.c", "")
	if email != "a@b.c" || password != "secret" {
		t.Errorf("got (%q, %q)", email, password)
	}
}

func TestPromptReminder(t *testing.T) {
	p := NewPrompter(strings.NewReader("y\n21\n\nbot-token\n\n"), io.Discard)

	cfg, err := p.PromptReminder(reminder.Config{Hour: 8, Minute: 15, ChatID: "42"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := reminder.Config{Enabled: true, Hour: 21, Minute: 15, Token: "bot-token", ChatID: "42"}
	if cfg != want {
		t.Errorf("cfg = %+v; want %+v", cfg, want)
	}
}

func TestPromptReminder_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not a number", "y\nseven\n"},
		{"out of range", "y\n25\n0\n\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPrompter(strings.NewReader(tt.input), io.Discard)
			if _, err := p.PromptReminder(reminder.DefaultConfig()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
