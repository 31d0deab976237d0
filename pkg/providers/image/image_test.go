package image

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spotdeck/spotdeck/pkg/artwork"
	"github.com/spotdeck/spotdeck/pkg/errors"
)

// jobServer simulates the submit/poll/fetch API: a job turns succeeded
// after pollsUntilReady status checks.
func jobServer(t *testing.T, pollsUntilReady int) *httptest.Server {
	t.Helper()
	polls := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/jobs":
			var req submitRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode submit: %v", err)
			}
			if req.Prompt == "" || req.RequestID == "" {
				t.Errorf("submit missing prompt or request_id: %+v", req)
			}
			json.NewEncoder(w).Encode(jobResponse{ID: "job-1", Status: "queued"})
		case r.Method == http.MethodGet && r.URL.Path == "/jobs/job-1":
			polls++
			if polls < pollsUntilReady {
				json.NewEncoder(w).Encode(jobResponse{ID: "job-1", Status: "processing"})
				return
			}
			json.NewEncoder(w).Encode(jobResponse{
				ID: "job-1", Status: "succeeded", ImageURL: srv.URL + "/images/job-1.png",
			})
		case r.Method == http.MethodGet && r.URL.Path == "/images/job-1.png":
			w.Write([]byte("png-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func TestJobLifecycle(t *testing.T) {
	srv := jobServer(t, 3)
	defer srv.Close()

	client := NewClient(nil, Config{APIKey: "k", BaseURL: srv.URL})
	ctx := context.Background()

	jobID, err := client.Submit(ctx, "a red fox")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if jobID != "job-1" {
		t.Fatalf("jobID = %q", jobID)
	}

	var poll artwork.Poll
	for i := 0; i < 5; i++ {
		poll, err = client.Poll(ctx, jobID)
		if err != nil {
			t.Fatalf("Poll: %v", err)
		}
		if poll.State == artwork.JobReady {
			break
		}
		if poll.State != artwork.JobPending {
			t.Fatalf("unexpected state %v", poll.State)
		}
	}
	if poll.State != artwork.JobReady {
		t.Fatal("job never became ready")
	}

	data, err := client.Fetch(ctx, poll.ImageURL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Errorf("Fetch = %q", data)
	}
}

func TestPollFailedJob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobResponse{ID: "job-1", Status: "failed", Error: "nsfw filter"})
	}))
	defer srv.Close()

	poll, err := NewClient(nil, Config{BaseURL: srv.URL}).Poll(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if poll.State != artwork.JobFailed || poll.Reason != "nsfw filter" {
		t.Errorf("poll = %+v, want failed with reason", poll)
	}
}

func TestPollUnknownStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobResponse{ID: "job-1", Status: "exploded"})
	}))
	defer srv.Close()

	_, err := NewClient(nil, Config{BaseURL: srv.URL}).Poll(context.Background(), "job-1")
	if !errors.Is(err, errors.ErrCodeMalformedResponse) {
		t.Fatalf("err = %v, want MALFORMED_RESPONSE", err)
	}
}

func TestSubmitRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(nil, Config{BaseURL: srv.URL}).Submit(context.Background(), "a red fox")
	if !errors.IsRateLimited(err) {
		t.Fatalf("err = %v, want rate-limit signal", err)
	}
}

func TestSubmitMissingJobID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(jobResponse{Status: "queued"})
	}))
	defer srv.Close()

	_, err := NewClient(nil, Config{BaseURL: srv.URL}).Submit(context.Background(), "a red fox")
	if !errors.Is(err, errors.ErrCodeMalformedResponse) {
		t.Fatalf("err = %v, want MALFORMED_RESPONSE", err)
	}
}

func TestFetchRejectsBadURL(t *testing.T) {
	_, err := NewClient(nil, Config{BaseURL: "http://unused"}).Fetch(context.Background(), "not a url")
	if err == nil {
		t.Fatal("expected error for malformed URL")
	}
}
