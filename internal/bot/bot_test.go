package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/JetJadeja/celebxplain/pkg/jobclient"
)

type fakeReply struct {
	tweetID string
	text    string
}

type fakeTwitter struct {
	mu       sync.Mutex
	batches  [][]Mention
	sinceIDs []string
	replies  []fakeReply
}

func (f *fakeTwitter) Mentions(ctx context.Context, sinceID string) ([]Mention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinceIDs = append(f.sinceIDs, sinceID)
	if len(f.batches) == 0 {
		return nil, nil
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	return batch, nil
}

func (f *fakeTwitter) Reply(ctx context.Context, tweetID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, fakeReply{tweetID: tweetID, text: text})
	return nil
}

func (f *fakeTwitter) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

func (f *fakeTwitter) replyAt(i int) fakeReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replies[i]
}

type fakeParser struct {
	req *Request
	err error
}

func (f *fakeParser) Parse(ctx context.Context, text string) (*Request, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.req, nil
}

// apiBackend emulates the job API: one persona, one job whose state is fixed
// per test.
type apiBackend struct {
	mu      sync.Mutex
	created []map[string]string
	jobJSON string
}

func (a *apiBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/personas", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"p1","name":"Morgan Freeman","icon_url":""}]`))
	})
	mux.HandleFunc("POST /api/jobs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		a.mu.Lock()
		a.created = append(a.created, body)
		a.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"job_id":"j1","status":"pending","query":"` + body["query"] + `","persona_id":"` + body["persona"] + `"}`))
	})
	mux.HandleFunc("GET /api/jobs/j1", func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		job := a.jobJSON
		a.mu.Unlock()
		_, _ = w.Write([]byte(job))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func (a *apiBackend) createdJob(i int) map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.created[i]
}

func waitForBot(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func newTestBot(t *testing.T, backend *apiBackend, tw *fakeTwitter, parser Parser) *Bot {
	t.Helper()
	srv := backend.server(t)
	b := New(Options{
		Twitter:         tw,
		Parser:          parser,
		Client:          jobclient.NewClient(srv.URL),
		JobPollInterval: 5 * time.Millisecond,
		SinceIDPath:     filepath.Join(t.TempDir(), "since_id.txt"),
		Logger:          zerolog.Nop(),
	})
	t.Cleanup(b.poller.Close)
	if err := b.loadPersonas(context.Background()); err != nil {
		t.Fatalf("loadPersonas returned error: %v", err)
	}
	return b
}

func TestBotSubmitsJobAndRepliesWithVideo(t *testing.T) {
	t.Parallel()
	backend := &apiBackend{jobJSON: `{"job_id":"j1","status":"completed","result_url":"https://cdn.example.com/j1.mp4"}`}
	tw := &fakeTwitter{}
	b := newTestBot(t, backend, tw, &fakeParser{req: &Request{Topic: "black holes", Celebrity: "morgan freeman"}})

	b.handleMention(context.Background(), Mention{ID: "101", Text: "explain black holes by Morgan Freeman"})

	created := backend.createdJob(0)
	if created["query"] != "black holes" || created["persona"] != "p1" {
		t.Fatalf("created job = %#v", created)
	}
	waitForBot(t, time.Second, func() bool { return tw.replyCount() == 2 })
	first := tw.replyAt(0)
	if first.tweetID != "101" || !strings.Contains(first.text, "Got it!") {
		t.Fatalf("first reply = %#v", first)
	}
	second := tw.replyAt(1)
	if second.tweetID != "101" || !strings.Contains(second.text, "https://cdn.example.com/j1.mp4") {
		t.Fatalf("second reply = %#v", second)
	}
	if !strings.Contains(second.text, "Morgan Freeman") {
		t.Fatalf("second reply should name the persona: %q", second.text)
	}
}

func TestBotRepliesWithErrorOnFailedJob(t *testing.T) {
	t.Parallel()
	backend := &apiBackend{jobJSON: `{"job_id":"j1","status":"error","error":"render avatar: face not detected"}`}
	tw := &fakeTwitter{}
	b := newTestBot(t, backend, tw, &fakeParser{req: &Request{Topic: "black holes", Celebrity: "Morgan Freeman"}})

	b.handleMention(context.Background(), Mention{ID: "101", Text: "explain black holes by Morgan Freeman"})

	waitForBot(t, time.Second, func() bool { return tw.replyCount() == 2 })
	second := tw.replyAt(1)
	if !strings.Contains(second.text, "face not detected") {
		t.Fatalf("second reply = %q, want the failure reason", second.text)
	}
}

func TestBotRejectsUnknownCelebrity(t *testing.T) {
	t.Parallel()
	backend := &apiBackend{jobJSON: `{}`}
	tw := &fakeTwitter{}
	b := newTestBot(t, backend, tw, &fakeParser{req: &Request{Topic: "the meaning of life", Celebrity: "The Rock"}})

	b.handleMention(context.Background(), Mention{ID: "101", Text: "explain the meaning of life by The Rock"})

	if tw.replyCount() != 1 {
		t.Fatalf("got %d replies, want 1", tw.replyCount())
	}
	if !strings.Contains(tw.replyAt(0).text, "The Rock") {
		t.Fatalf("reply = %q, want the unmatched name", tw.replyAt(0).text)
	}
	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.created) != 0 {
		t.Fatal("no job should be created for an unknown celebrity")
	}
}

func TestBotRepliesOnUnparsableMention(t *testing.T) {
	t.Parallel()
	backend := &apiBackend{jobJSON: `{}`}
	tw := &fakeTwitter{}
	b := newTestBot(t, backend, tw, &fakeParser{err: ErrNoCelebrity})

	b.handleMention(context.Background(), Mention{ID: "101", Text: "why is the sky blue?"})

	if tw.replyCount() != 1 {
		t.Fatalf("got %d replies, want 1", tw.replyCount())
	}
	if !strings.Contains(tw.replyAt(0).text, "topic and a celebrity") {
		t.Fatalf("reply = %q", tw.replyAt(0).text)
	}
}

func TestBotAdvancesSinceID(t *testing.T) {
	t.Parallel()
	backend := &apiBackend{jobJSON: `{}`}
	tw := &fakeTwitter{batches: [][]Mention{{
		{ID: "101", Text: "first"},
		{ID: "102", Text: "second"},
	}}}
	b := newTestBot(t, backend, tw, &fakeParser{err: errors.New("noise")})

	b.checkMentions(context.Background())
	if b.sinceID != "102" {
		t.Fatalf("sinceID = %q, want 102", b.sinceID)
	}
	raw, err := os.ReadFile(b.sinceIDPath)
	if err != nil {
		t.Fatalf("read since id file: %v", err)
	}
	if got := strings.TrimSpace(string(raw)); got != "102" {
		t.Fatalf("persisted since id = %q, want 102", got)
	}

	b.checkMentions(context.Background())
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.sinceIDs[len(tw.sinceIDs)-1] != "102" {
		t.Fatalf("later polls should pass the high-water mark, got %q", tw.sinceIDs[len(tw.sinceIDs)-1])
	}
}
