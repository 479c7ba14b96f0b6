// Package models defines the core data structures for users, sessions,
// words and reminder settings.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// Email is the login name chosen by the user.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
}

// Session is a bearer token issued at login.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// Word is a vocabulary record as stored for a user. ID is the server
// id; ClientID is the id the client assigned.
type Word struct {
	ID        string `json:"_id"`
	ClientID  string `json:"id,omitempty"`
	Word      string `json:"word"`
	Meaning   string `json:"meaning"`
	Example   string `json:"example"`
	Phonetics string `json:"phonetics"`
	POS       string `json:"pos"`
	// Definition is the dictionary definition in English.
	Definition string `json:"definition"`
	Audio      string `json:"audio"`
	Status     string `json:"status"`
	// CreatedAt is Unix milliseconds.
	CreatedAt int64 `json:"createdAt"`
	Deleted   bool  `json:"-"`
}

// Word statuses.
const (
	StatusNew      = "new"
	StatusLearning = "learning"
	StatusKnown    = "known"
)

// ValidStatus reports whether s is one of the word statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusLearning, StatusKnown:
		return true
	}
	return false
}

// WordPatch is a partial update; nil fields are left unchanged.
type WordPatch struct {
	Word       *string `json:"word"`
	Meaning    *string `json:"meaning"`
	Example    *string `json:"example"`
	Phonetics  *string `json:"phonetics"`
	POS        *string `json:"pos"`
	Definition *string `json:"definition"`
	Audio      *string `json:"audio"`
	Status     *string `json:"status"`
}

// Empty reports whether the patch changes nothing.
func (p WordPatch) Empty() bool {
	return p.Word == nil && p.Meaning == nil && p.Example == nil && p.Phonetics == nil &&
		p.POS == nil && p.Definition == nil && p.Audio == nil && p.Status == nil
}

// Apply returns w with the patch applied.
func (p WordPatch) Apply(w Word) Word {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&w.Word, p.Word)
	set(&w.Meaning, p.Meaning)
	set(&w.Example, p.Example)
	set(&w.Phonetics, p.Phonetics)
	set(&w.POS, p.POS)
	set(&w.Definition, p.Definition)
	set(&w.Audio, p.Audio)
	set(&w.Status, p.Status)
	return w
}

// TelegramConfig is a user's reminder setup.
type TelegramConfig struct {
	Enabled bool   `json:"enabled"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Token   string `json:"token,omitempty"`
	ChatID  string `json:"chatId,omitempty"`
}
