package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Mention is one tweet that mentioned the bot.
type Mention struct {
	ID       string
	AuthorID string
	Text     string
}

// Twitter is the slice of the social API the bot needs: reading mentions
// and posting replies.
type Twitter interface {
	Mentions(ctx context.Context, sinceID string) ([]Mention, error)
	Reply(ctx context.Context, tweetID, text string) error
}

const twitterDefaultBaseURL = "https://api.twitter.com/2"

const twitterDefaultTimeout = 30 * time.Second

// TwitterOptions configures the v2 API client.
type TwitterOptions struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
}

// TwitterClient talks to the Twitter v2 REST API for the authenticated bot
// account.
type TwitterClient struct {
	baseURL string
	token   string
	client  *http.Client

	mu     sync.Mutex
	userID string
}

func NewTwitterClient(opts TwitterOptions) (*TwitterClient, error) {
	if strings.TrimSpace(opts.BearerToken) == "" {
		return nil, errors.New("twitter bearer token is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = twitterDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: twitterDefaultTimeout}
	}
	return &TwitterClient{
		baseURL: baseURL,
		token:   strings.TrimSpace(opts.BearerToken),
		client:  client,
	}, nil
}

type twitterUserResponse struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

type twitterMentionsResponse struct {
	Data []struct {
		ID       string `json:"id"`
		AuthorID string `json:"author_id"`
		Text     string `json:"text"`
	} `json:"data"`
}

type twitterReplyRequest struct {
	Text  string       `json:"text"`
	Reply twitterReply `json:"reply"`
}

type twitterReply struct {
	InReplyToTweetID string `json:"in_reply_to_tweet_id"`
}

// Mentions returns mentions newer than sinceID in chronological order. An
// empty sinceID returns the most recent batch.
func (c *TwitterClient) Mentions(ctx context.Context, sinceID string) ([]Mention, error) {
	userID, err := c.resolveUserID(ctx)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("max_results", "25")
	q.Set("tweet.fields", "author_id")
	if sinceID != "" {
		q.Set("since_id", sinceID)
	}
	endpoint := fmt.Sprintf("%s/users/%s/mentions?%s", c.baseURL, userID, q.Encode())
	var out twitterMentionsResponse
	if err := c.get(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("fetch mentions: %w", err)
	}
	// The API returns newest first; the bot wants to answer in arrival order.
	mentions := make([]Mention, 0, len(out.Data))
	for i := len(out.Data) - 1; i >= 0; i-- {
		m := out.Data[i]
		mentions = append(mentions, Mention{ID: m.ID, AuthorID: m.AuthorID, Text: m.Text})
	}
	return mentions, nil
}

// Reply posts text as a reply to the given tweet.
func (c *TwitterClient) Reply(ctx context.Context, tweetID, text string) error {
	payload := twitterReplyRequest{Text: text, Reply: twitterReply{InReplyToTweetID: tweetID}}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("post reply: status %d", resp.StatusCode)
	}
	return nil
}

// resolveUserID looks up the authenticated account once and caches it.
func (c *TwitterClient) resolveUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" {
		return c.userID, nil
	}
	var out twitterUserResponse
	if err := c.get(ctx, c.baseURL+"/users/me", &out); err != nil {
		return "", fmt.Errorf("resolve bot user: %w", err)
	}
	if out.Data.ID == "" {
		return "", errors.New("resolve bot user: empty id")
	}
	c.userID = out.Data.ID
	return c.userID, nil
}

func (c *TwitterClient) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var _ Twitter = (*TwitterClient)(nil)
