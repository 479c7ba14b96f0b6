// Package storage is the client's durable key-value store. It keeps the
// vocabulary list, the reminder config, the voice choice and the auth
// session in a single SQLite table.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/atinyakov/FlashVocab/internal/client/reminder"
	"github.com/atinyakov/FlashVocab/internal/client/vocab"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// LocalStorage is the SQLite-backed key-value store.
type LocalStorage struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
	log *zap.Logger
}

// Open opens (creating if needed) the store at path. log may be nil.
func Open(path string, log *zap.Logger) (*LocalStorage, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open local storage: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local storage: %w", err)
	}
	return &LocalStorage{db: db, now: time.Now, log: log}, nil
}

// Close closes the underlying database.
func (ls *LocalStorage) Close() error {
	return ls.db.Close()
}

func (ls *LocalStorage) get(key string) (string, bool, error) {
	var v string
	err := ls.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return v, true, nil
}

func (ls *LocalStorage) set(key, value string) error {
	_, err := ls.db.Exec(`
		INSERT INTO kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (ls *LocalStorage) del(keys ...string) error {
	for _, k := range keys {
		if _, err := ls.db.Exec(`DELETE FROM kv WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// LoadWords returns the persisted list. A missing or unreadable value
// yields an empty list.
func (ls *LocalStorage) LoadWords() ([]vocab.Record, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	raw, ok, err := ls.get(keyWords)
	if err != nil {
		return nil, err
	}
	records := []vocab.Record{}
	if !ok {
		return records, nil
	}
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return []vocab.Record{}, nil
	}
	for i := range records {
		records[i].Status = records[i].Status.Normalize()
	}
	return records, nil
}

// SaveWords replaces the persisted list.
func (ls *LocalStorage) SaveWords(records []vocab.Record) error {
	if records == nil {
		records = []vocab.Record{}
	}
	b, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode words: %w", err)
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.set(keyWords, string(b))
}

// LoadReminder returns the stored reminder config, or the defaults.
func (ls *LocalStorage) LoadReminder() (reminder.Config, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	cfg := reminder.DefaultConfig()
	raw, ok, err := ls.get(keyReminder)
	if err != nil || !ok {
		return cfg, err
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return reminder.DefaultConfig(), nil
	}
	return cfg, nil
}

// SaveReminder stores the reminder config.
func (ls *LocalStorage) SaveReminder(cfg reminder.Config) error {
	b, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode reminder config: %w", err)
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.set(keyReminder, string(b))
}

// Voice returns the selected voice identifier, empty when unset.
func (ls *LocalStorage) Voice() string {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	v, _, _ := ls.get(keyVoice)
	return v
}

// SetVoice stores the voice identifier.
func (ls *LocalStorage) SetVoice(id string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.set(keyVoice, id)
}

// Session returns the stored auth session. An expired session is removed
// and reported as absent.
func (ls *LocalStorage) Session() (Session, bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	raw, ok, err := ls.get(keyToken)
	if err != nil || !ok {
		return Session{}, false
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Token == "" {
		return Session{}, false
	}
	if s.Expired(ls.now()) {
		if err := ls.del(keyToken); err != nil {
			ls.log.Warn("purge expired session", zap.Error(err))
		}
		return Session{}, false
	}
	s.Email, _, _ = ls.get(keyEmail)
	return s, true
}

// SetSession stores a token valid for ttl together with its email label.
func (ls *LocalStorage) SetSession(token, email string, ttl time.Duration) error {
	b, err := json.Marshal(Session{Token: token, ExpiresAt: ls.now().Add(ttl)})
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if err := ls.set(keyToken, string(b)); err != nil {
		return err
	}
	return ls.set(keyEmail, email)
}

// ClearSession forgets the token and the email label.
func (ls *LocalStorage) ClearSession() error {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.del(keyToken, keyEmail)
}

// Token returns the current bearer token, empty when logged out.
func (ls *LocalStorage) Token() string {
	s, ok := ls.Session()
	if !ok {
		return ""
	}
	return s.Token
}
