// Package describe generates short symbol descriptions for a theme via an
// OpenAI-compatible chat-completions API. One call yields the full set of
// descriptions for a deck; there is no per-symbol recovery, a bad response
// fails the whole request with a typed error.
package describe

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/httputil"
)

const (
	// DefaultBaseURL points at OpenRouter's OpenAI-compatible endpoint.
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultModel is a cheap model good enough for one-line descriptions.
	DefaultModel = "openai/gpt-4o-mini"

	// maxDescriptionWords keeps descriptions usable as image prompts.
	maxDescriptionWords = 12
)

// Config holds the provider endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string // defaults to DefaultBaseURL
	Model   string // defaults to DefaultModel
}

// Client talks to a chat-completions endpoint and turns theme prompts into
// symbol description lists.
type Client struct {
	api    *httputil.Client
	cache  *httputil.Cache
	config Config
	logger *log.Logger
}

// NewClient creates a description client. cache may be nil to disable
// response caching; logger may be nil.
func NewClient(httpClient *http.Client, cache *httputil.Cache, config Config, logger *log.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if logger == nil {
		logger = log.Default()
	}
	if cache != nil {
		cache = cache.Namespace("describe")
	}
	return &Client{
		api: httputil.NewClient(httpClient, nil, map[string]string{
			"Authorization": "Bearer " + config.APIKey,
		}),
		cache:  cache,
		config: config,
		logger: logger,
	}
}

// chatRequest / chatResponse mirror the OpenAI-compatible API shapes.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Descriptions returns exactly count one-line symbol descriptions for the
// theme. Results are cached per (model, theme, count). Any shortfall or
// surplus in the provider's answer is a MALFORMED_RESPONSE; the caller gets
// either the full list or a single error.
func (c *Client) Descriptions(ctx context.Context, theme string, count int) ([]string, error) {
	if count <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "description count must be positive, got %d", count)
	}
	if theme != "" {
		if err := errors.ValidateTheme(theme); err != nil {
			return nil, err
		}
	}

	key := fmt.Sprintf("%s|%s|%d", c.config.Model, theme, count)
	if c.cache != nil {
		var cached []string
		if ok, _ := c.cache.Get(key, &cached); ok && len(cached) == count {
			return cached, nil
		}
	}

	var descriptions []string
	fetch := func() error {
		var err error
		descriptions, err = c.request(ctx, theme, count)
		return err
	}
	if err := httputil.RetryWithBackoff(ctx, fetch); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(key, descriptions); err != nil {
			c.logger.Debug("description cache write failed", "err", err)
		}
	}
	return descriptions, nil
}

func (c *Client) request(ctx context.Context, theme string, count int) ([]string, error) {
	req := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt()},
			{Role: "user", Content: userPrompt(theme, count)},
		},
	}

	var resp chatResponse
	url := c.config.BaseURL + "/chat/completions"
	if err := c.api.PostJSON(ctx, url, req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedResponse, "no choices in completion response")
	}

	descriptions, err := parseDescriptions(resp.Choices[0].Message.Content, count)
	if err != nil {
		c.logger.Warn("provider returned an unusable description list",
			"theme", theme, "want", count, "err", err)
		return nil, err
	}
	return descriptions, nil
}

func systemPrompt() string {
	return `You generate image prompts for symbols on matching-game cards.

Rules:
- Each description names one concrete, visually distinct object.
- Keep each description under ten words.
- No two descriptions may describe similar objects.
- Respond with one description per line, no numbering, no extra text.`
}

func userPrompt(theme string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d symbol descriptions", count)
	if theme != "" {
		fmt.Fprintf(&b, " for the theme %q", theme)
	}
	b.WriteString(". One per line.")
	return b.String()
}

// parseDescriptions splits the completion into lines, tolerating the list
// decorations models add despite instructions (numbering, bullets, blank
// lines). Anything other than exactly count usable lines is malformed.
func parseDescriptions(content string, count int) ([]string, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	descriptions := make([]string, 0, count)
	for _, line := range lines {
		line = cleanLine(line)
		if line == "" {
			continue
		}
		descriptions = append(descriptions, line)
	}

	if len(descriptions) != count {
		return nil, errors.New(errors.ErrCodeMalformedResponse,
			"provider returned %d descriptions, want %d", len(descriptions), count)
	}
	for i, d := range descriptions {
		if len(strings.Fields(d)) > maxDescriptionWords {
			return nil, errors.New(errors.ErrCodeMalformedResponse,
				"description %d exceeds %d words: %q", i, maxDescriptionWords, d)
		}
	}
	return descriptions, nil
}

// cleanLine strips list numbering and bullet prefixes from one line.
func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• \t")
	// "3." or "3)" numbering
	if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 {
		if isDigits(line[:i]) {
			line = strings.TrimSpace(line[i+1:])
		}
	}
	return strings.TrimSpace(line)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
