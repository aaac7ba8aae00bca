package jobclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreateJobDecodesResponse(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["query"] != "black holes" || body["persona"] != "p1" {
			t.Errorf("body = %#v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"job_id":"j1","status":"pending","query":"black holes","persona_id":"p1","created_at":"2026-08-31T12:00:00Z"}`))
	}))
	defer srv.Close()

	job, err := NewClient(srv.URL).CreateJob(context.Background(), "black holes", "p1")
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if job.JobID != "j1" || job.Status != StatusPending {
		t.Fatalf("job = %#v", job)
	}
}

func TestCreateJobValidationError(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"query required"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateJob(context.Background(), "", "p1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if !apiErr.ValidationError() {
		t.Fatalf("ValidationError() = false for %v", apiErr)
	}
	if apiErr.Message != "query required" {
		t.Fatalf("Message = %q", apiErr.Message)
	}
}

func TestGetJobNotFound(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"job not found"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).GetJob(context.Background(), "nope")
	if !errors.Is(err, ErrJobNotFound) {
		t.Fatalf("err = %v, want ErrJobNotFound", err)
	}
}

func TestGetJobWithUpdates(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs/j1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"job_id":"j1","status":"completed","result_url":"https://cdn.example.com/j1.mp4","updates":[{"id":1,"job_id":"j1","status":"pending","message":"created","created_at":"2026-08-31T12:00:00Z"}]}`))
	}))
	defer srv.Close()

	job, err := NewClient(srv.URL).GetJob(context.Background(), "j1")
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if !job.Terminal() {
		t.Fatal("completed job should be terminal")
	}
	if len(job.Updates) != 1 || job.Updates[0].Message != "created" {
		t.Fatalf("updates = %#v", job.Updates)
	}
}

func TestPersonas(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/personas" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Morgan Freeman","icon_url":"https://cdn.example.com/p1.png"}]`))
	}))
	defer srv.Close()

	personas, err := NewClient(srv.URL).Personas(context.Background())
	if err != nil {
		t.Fatalf("Personas returned error: %v", err)
	}
	if len(personas) != 1 || personas[0].Name != "Morgan Freeman" {
		t.Fatalf("personas = %#v", personas)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status string
		want   bool
	}{
		{StatusPending, false},
		{StatusProcessing, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusError, true},
		{"unknown", false},
	}
	for _, tc := range cases {
		if got := IsTerminalStatus(tc.status); got != tc.want {
			t.Errorf("IsTerminalStatus(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestVideoURL(t *testing.T) {
	t.Parallel()
	c := NewClient("http://localhost:8080/")
	if got := c.VideoURL("j1"); got != "http://localhost:8080/api/jobs/j1/video" {
		t.Fatalf("VideoURL = %q", got)
	}
}
