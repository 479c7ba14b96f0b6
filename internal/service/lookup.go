package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// LookupService proxies translation and example-sentence lookups so
// clients need only the server's address.
type LookupService struct {
	translateURL  string
	dictionaryURL string
	http          *http.Client
	log           *zap.Logger
	group         singleflight.Group
}

// NewLookupService creates a LookupService. translateURL takes q and
// langpair query parameters; dictionaryURL is suffixed with the word.
func NewLookupService(translateURL, dictionaryURL string, httpClient *http.Client, log *zap.Logger) *LookupService {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LookupService{
		translateURL:  translateURL,
		dictionaryURL: strings.TrimRight(dictionaryURL, "/"),
		http:          httpClient,
		log:           log,
	}
}

func (s *LookupService) getJSON(ctx context.Context, endpoint string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upstream unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("invalid upstream response: %w", err)
	}
	return resp.StatusCode, nil
}

// Translate returns the Vietnamese translation of English text.
func (s *LookupService) Translate(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidInput
	}
	v, err, _ := s.group.Do("t:"+text, func() (any, error) {
		q := url.Values{}
		q.Set("q", text)
		q.Set("langpair", "en|vi")
		sep := "?"
		if strings.Contains(s.translateURL, "?") {
			sep = "&"
		}
		var out struct {
			ResponseData struct {
				TranslatedText string `json:"translatedText"`
			} `json:"responseData"`
		}
		code, err := s.getJSON(ctx, s.translateURL+sep+q.Encode(), &out)
		if err != nil {
			return "", err
		}
		if code != http.StatusOK {
			return "", fmt.Errorf("translate: upstream status %d", code)
		}
		return strings.TrimSpace(out.ResponseData.TranslatedText), nil
	})
	if err != nil {
		s.log.Warn("translate failed", zap.Error(err))
		return "", err
	}
	return v.(string), nil
}

type dictEntry struct {
	Meanings []struct {
		Definitions []struct {
			Example string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Example returns the first example sentence found across every meaning
// of word, empty when the dictionary has none or does not know the word.
func (s *LookupService) Example(ctx context.Context, word string) (string, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return "", ErrInvalidInput
	}
	v, err, _ := s.group.Do("e:"+word, func() (any, error) {
		var entries []dictEntry
		code, err := s.getJSON(ctx, s.dictionaryURL+"/"+url.PathEscape(word), &entries)
		if err != nil {
			return "", err
		}
		switch {
		case code == http.StatusNotFound:
			return "", nil
		case code != http.StatusOK:
			return "", fmt.Errorf("example: upstream status %d", code)
		}
		for _, e := range entries {
			for _, m := range e.Meanings {
				for _, d := range m.Definitions {
					if ex := strings.TrimSpace(d.Example); ex != "" {
						return ex, nil
					}
				}
			}
		}
		return "", nil
	})
	if err != nil {
		s.log.Warn("example lookup failed", zap.String("word", word), zap.Error(err))
		return "", err
	}
	return v.(string), nil
}
