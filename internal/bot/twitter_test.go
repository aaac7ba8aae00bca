package bot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTwitterTestServer(t *testing.T, replies *[]twitterReplyRequest) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/me", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q", got)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"42","username":"celebxplain"}}`))
	})
	mux.HandleFunc("/users/42/mentions", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("since_id"); got != "100" {
			t.Errorf("since_id = %q", got)
		}
		// Newest first, as the API delivers them.
		_, _ = w.Write([]byte(`{"data":[
			{"id":"102","author_id":"7","text":"explain gravity by Morgan Freeman"},
			{"id":"101","author_id":"8","text":"explain tides by David Attenborough"}
		]}`))
	})
	mux.HandleFunc("/tweets", func(w http.ResponseWriter, r *http.Request) {
		var req twitterReplyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode reply: %v", err)
		}
		*replies = append(*replies, req)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"200"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTwitterMentionsChronologicalOrder(t *testing.T) {
	t.Parallel()
	var replies []twitterReplyRequest
	srv := newTwitterTestServer(t, &replies)
	c, err := NewTwitterClient(TwitterOptions{BaseURL: srv.URL, BearerToken: "token-1"})
	if err != nil {
		t.Fatalf("NewTwitterClient returned error: %v", err)
	}

	mentions, err := c.Mentions(context.Background(), "100")
	if err != nil {
		t.Fatalf("Mentions returned error: %v", err)
	}
	if len(mentions) != 2 {
		t.Fatalf("got %d mentions, want 2", len(mentions))
	}
	if mentions[0].ID != "101" || mentions[1].ID != "102" {
		t.Fatalf("mentions out of order: %#v", mentions)
	}
	if mentions[1].Text != "explain gravity by Morgan Freeman" {
		t.Fatalf("text = %q", mentions[1].Text)
	}
}

func TestTwitterReply(t *testing.T) {
	t.Parallel()
	var replies []twitterReplyRequest
	srv := newTwitterTestServer(t, &replies)
	c, err := NewTwitterClient(TwitterOptions{BaseURL: srv.URL, BearerToken: "token-1"})
	if err != nil {
		t.Fatalf("NewTwitterClient returned error: %v", err)
	}

	if err := c.Reply(context.Background(), "101", "Got it!"); err != nil {
		t.Fatalf("Reply returned error: %v", err)
	}
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	if replies[0].Reply.InReplyToTweetID != "101" || replies[0].Text != "Got it!" {
		t.Fatalf("reply = %#v", replies[0])
	}
}

func TestNewTwitterClientRequiresToken(t *testing.T) {
	t.Parallel()
	if _, err := NewTwitterClient(TwitterOptions{}); err == nil {
		t.Fatal("expected an error for a missing bearer token")
	}
}
