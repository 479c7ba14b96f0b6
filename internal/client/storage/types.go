package storage

import "time"

// Keys of the local key-value table. Values are JSON documents, except
// for the voice identifier and the email label which are plain strings.
const (
	keyWords    = "fv_words_v1"
	keyReminder = "fv_tg_cfg_v1"
	keyVoice    = "fv_tts_voice_v1"
	keyToken    = "fv_auth_token"
	keyEmail    = "fv_auth_email"
)

// SessionTTL is how long a login stays valid locally.
const SessionTTL = 30 * 24 * time.Hour

// Session is the locally stored bearer token and the email it belongs to.
type Session struct {
	Token     string    `json:"token"`
	Email     string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the token has passed its expiry at now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
