// Package image is the HTTP client for an asynchronous image-generation
// API with a submit / poll / fetch job lifecycle. It implements
// [artwork.Provider]; polling cadence and retry policy live in the
// orchestrator, this client only classifies each response.
package image

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/errors"
	"github.com/spotdeck/spotdeck/pkg/httputil"
)

// DefaultSize is the pixel size requested for generated artwork.
const DefaultSize = 512

// Config holds the provider endpoint settings.
type Config struct {
	APIKey  string
	BaseURL string
	Size    int    // generated image size in pixels, defaults to DefaultSize
	Style   string // optional style hint passed through to the provider
}

// Client implements artwork.Provider against a job-based generation API.
type Client struct {
	api    *httputil.Client
	config Config
}

var _ artwork.Provider = (*Client)(nil)

// NewClient creates an image generation client.
func NewClient(httpClient *http.Client, config Config) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Size <= 0 {
		config.Size = DefaultSize
	}
	return &Client{
		api: httputil.NewClient(httpClient, nil, map[string]string{
			"Authorization": "Bearer " + config.APIKey,
		}),
		config: config,
	}
}

type submitRequest struct {
	Prompt    string `json:"prompt"`
	Size      int    `json:"size"`
	Style     string `json:"style,omitempty"`
	RequestID string `json:"request_id"`
}

type jobResponse struct {
	ID       string `json:"id"`
	Status   string `json:"status"`
	ImageURL string `json:"image_url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Submit starts a generation job for one description. The request carries a
// client-generated correlation ID so duplicate submissions after a network
// error can be deduplicated server-side.
func (c *Client) Submit(ctx context.Context, description string) (string, error) {
	req := submitRequest{
		Prompt:    description,
		Size:      c.config.Size,
		Style:     c.config.Style,
		RequestID: uuid.NewString(),
	}

	var resp jobResponse
	if err := c.api.PostJSON(ctx, c.config.BaseURL+"/jobs", req, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.New(errors.ErrCodeMalformedResponse, "job submission returned no job ID")
	}
	return resp.ID, nil
}

// Poll reports the state of a submitted job.
func (c *Client) Poll(ctx context.Context, jobID string) (artwork.Poll, error) {
	var resp jobResponse
	if err := c.api.GetJSON(ctx, c.config.BaseURL+"/jobs/"+jobID, &resp); err != nil {
		return artwork.Poll{}, err
	}

	switch resp.Status {
	case "queued", "processing":
		return artwork.Poll{State: artwork.JobPending}, nil
	case "succeeded":
		if resp.ImageURL == "" {
			return artwork.Poll{}, errors.New(errors.ErrCodeMalformedResponse,
				"job %s succeeded without an image URL", jobID)
		}
		return artwork.Poll{State: artwork.JobReady, ImageURL: resp.ImageURL}, nil
	case "failed":
		return artwork.Poll{State: artwork.JobFailed, Reason: resp.Error}, nil
	default:
		return artwork.Poll{}, errors.New(errors.ErrCodeMalformedResponse,
			"job %s reported unknown status %q", jobID, resp.Status)
	}
}

// Fetch downloads a ready image.
func (c *Client) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	if err := errors.ValidateURL(imageURL); err != nil {
		return nil, err
	}
	data, err := c.api.GetBytes(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeMalformedResponse, "image fetch returned an empty body")
	}
	return data, nil
}
