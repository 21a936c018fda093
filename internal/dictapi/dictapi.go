// Package dictapi looks up word definitions from the external dictionary
// API. Lookups are a soft dependency: absent or malformed responses are
// reported as ErrNoDefinition and the caller substitutes a placeholder. A
// circuit breaker keeps a dead upstream from stalling every dictionary
// request on its timeout.
package dictapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/subarna-sahoo/portcast-project-assignment/pkg/config"
	"github.com/subarna-sahoo/portcast-project-assignment/pkg/resilience"
)

// ErrNoDefinition means the upstream answered but carried no usable
// definition for the word.
var ErrNoDefinition = errors.New("no definition found")

// Client queries the dictionary API, one word per call.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// New creates a Client with a bounded request timeout.
func New(cfg config.DictionaryConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: cfg.APIURL,
		http:    &http.Client{Timeout: timeout},
		breaker: resilience.NewCircuitBreaker("dictionary-api", resilience.CircuitBreakerConfig{}),
		logger:  slog.Default().With("component", "dictionary-api"),
	}
}

// apiEntry mirrors the slice of the dictionaryapi.dev response we read.
type apiEntry struct {
	Meanings []struct {
		Definitions []struct {
			Definition string `json:"definition"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// Lookup returns the first definition for word. ErrNoDefinition covers
// both "word unknown" and malformed payloads; transport errors are
// returned as-is and count against the circuit breaker.
func (c *Client) Lookup(ctx context.Context, word string) (string, error) {
	var definition string
	err := c.breaker.Execute(func() error {
		var lookupErr error
		definition, lookupErr = c.lookup(ctx, word)
		if errors.Is(lookupErr, ErrNoDefinition) {
			// An answered "not found" is upstream health, not failure.
			return nil
		}
		return lookupErr
	})
	if err != nil {
		return "", err
	}
	if definition == "" {
		return "", ErrNoDefinition
	}
	return definition, nil
}

func (c *Client) lookup(ctx context.Context, word string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(word))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("building lookup request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("looking up %q: %w", word, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNoDefinition
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("looking up %q: status %d", word, resp.StatusCode)
	}

	var entries []apiEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		c.logger.Warn("malformed definition payload", "word", word, "error", err)
		return "", ErrNoDefinition
	}
	for _, entry := range entries {
		for _, meaning := range entry.Meanings {
			for _, def := range meaning.Definitions {
				if def.Definition != "" {
					return def.Definition, nil
				}
			}
		}
	}
	return "", ErrNoDefinition
}
