// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm provides a client for an OpenAI-compatible chat completion
// API with credential rotation and retry.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pdiddy/deep-research/pkg/types"
)

// Completer is the language-model collaborator consumed by query
// generation, analysis, and evaluation. Tests supply a mock.
type Completer interface {
	// Complete sends one prompt and returns the raw response text.
	// highCapacity selects the summary model when one is configured.
	Complete(ctx context.Context, prompt string, temperature float64, highCapacity bool) (string, error)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Client calls an OpenAI-compatible chat completions endpoint. Safe for
// concurrent use: the key rotation cursor is mutex-guarded.
type Client struct {
	cfg    types.LLMConfig
	http   *http.Client
	logw   io.Writer
	mu     sync.Mutex
	keyIdx int
}

// NewClient builds a Client from cfg. Progress and warning lines are
// written to w.
func NewClient(cfg types.LLMConfig, w io.Writer) (*Client, error) {
	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("no API keys configured")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		logw: w,
	}, nil
}

// KeyCount returns the size of the credential pool, used to bound the
// analysis worker pool.
func (c *Client) KeyCount() int {
	return len(c.cfg.APIKeys)
}

// currentKey returns the key at the rotation cursor.
func (c *Client) currentKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.APIKeys[c.keyIdx%len(c.cfg.APIKeys)]
}

// rotateKey advances the cursor past the given key. If another goroutine
// already rotated, the cursor is left alone so concurrent rate-limit hits
// do not skip keys.
func (c *Client) rotateKey(failed string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cfg.APIKeys[c.keyIdx%len(c.cfg.APIKeys)] == failed {
		c.keyIdx++
	}
}

// chatRequest is the wire request for the chat completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the wire response for the chat completions endpoint.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// truncatePrompt enforces the character budget without splitting a
// multi-byte rune. When a sentence end falls in the second half of the
// kept text the cut moves there, so the model never sees a half
// sentence.
func truncatePrompt(prompt string, max int) string {
	if max <= 0 || len(prompt) <= max {
		return prompt
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(prompt[cut]) {
		cut--
	}
	head := prompt[:cut]
	if i := strings.LastIndexAny(head, ".!?\n"); i >= cut/2 {
		head = head[:i+1]
	}
	return head
}

// Complete sends the prompt, retrying with exponential backoff up to the
// configured retry count and rotating to the next credential on
// rate-limit responses. Prompts beyond the configured character budget
// are truncated before sending.
func (c *Client) Complete(ctx context.Context, prompt string, temperature float64, highCapacity bool) (string, error) {
	prompt = truncatePrompt(prompt, c.cfg.MaxPromptChars)

	model := c.cfg.Model
	if highCapacity && c.cfg.SummaryModel != "" {
		model = c.cfg.SummaryModel
	}

	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		key := c.currentKey()
		text, rateLimited, err := c.call(ctx, model, prompt, temperature, key)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if rateLimited {
			fmt.Fprintf(c.logw, "rate limited, rotating API key\n")
			c.rotateKey(key)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// call performs one HTTP round trip. The second return value reports a
// rate-limit response.
func (c *Client) call(ctx context.Context, model, prompt string, temperature float64, key string) (string, bool, error) {
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", false, fmt.Errorf("marshaling request: %w", err)
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return "", true, fmt.Errorf("rate limited (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("empty response: no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}
