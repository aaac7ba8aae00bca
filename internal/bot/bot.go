package bot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/JetJadeja/celebxplain/pkg/jobclient"
)

// DefaultMentionInterval is the gap between mention polling cycles.
const DefaultMentionInterval = 30 * time.Second

// Options wires the bot's collaborators.
type Options struct {
	Twitter         Twitter
	Parser          Parser
	Client          *jobclient.Client
	MentionInterval time.Duration
	JobPollInterval time.Duration
	SinceIDPath     string
	Logger          zerolog.Logger
}

// Bot reads mentions, turns them into generation jobs through the job API,
// and replies with the finished video. It is the conversational counterpart
// of the web frontend: same API, same job lifecycle, but driven by tweets.
type Bot struct {
	twitter     Twitter
	parser      Parser
	client      *jobclient.Client
	store       *jobclient.Store
	poller      *jobclient.Poller
	interval    time.Duration
	sinceIDPath string
	logger      zerolog.Logger

	mu       sync.Mutex
	personas map[string]jobclient.Persona
	tracked  map[string]request
	sinceID  string
}

// request ties a submitted job back to the mention that asked for it.
type request struct {
	tweetID     string
	topic       string
	personaName string
}

func New(opts Options) *Bot {
	interval := opts.MentionInterval
	if interval <= 0 {
		interval = DefaultMentionInterval
	}
	jobInterval := opts.JobPollInterval
	if jobInterval <= 0 {
		jobInterval = jobclient.DefaultPollInterval
	}
	b := &Bot{
		twitter:     opts.Twitter,
		parser:      opts.Parser,
		client:      opts.Client,
		interval:    interval,
		sinceIDPath: opts.SinceIDPath,
		logger:      opts.Logger,
		personas:    make(map[string]jobclient.Persona),
		tracked:     make(map[string]request),
	}
	b.store = jobclient.NewStore(opts.Client)
	b.poller = jobclient.NewPoller(b.store,
		jobclient.WithInterval(jobInterval),
		jobclient.WithLogger(opts.Logger),
		jobclient.WithOnUpdate(b.onJobUpdate),
	)
	return b
}

// Run polls for mentions until the context is canceled. Jobs created along
// the way keep being polled between mention cycles.
func (b *Bot) Run(ctx context.Context) error {
	defer b.poller.Close()

	if err := b.loadPersonas(ctx); err != nil {
		return fmt.Errorf("load personas: %w", err)
	}
	b.sinceID = b.readSinceID()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.checkMentions(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			b.checkMentions(ctx)
		}
	}
}

func (b *Bot) loadPersonas(ctx context.Context) error {
	personas, err := b.client.Personas(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range personas {
		b.personas[strings.ToLower(strings.TrimSpace(p.Name))] = p
	}
	return nil
}

func (b *Bot) checkMentions(ctx context.Context) {
	mentions, err := b.twitter.Mentions(ctx, b.sinceID)
	if err != nil {
		b.logger.Warn().Err(err).Msg("bot: fetch mentions failed")
		return
	}
	for _, m := range mentions {
		b.handleMention(ctx, m)
		b.sinceID = m.ID
	}
	if len(mentions) > 0 {
		b.writeSinceID(b.sinceID)
	}
}

// handleMention turns one mention into a job, replying on every outcome so
// the author is never left without an answer.
func (b *Bot) handleMention(ctx context.Context, m Mention) {
	b.logger.Info().Str("tweet_id", m.ID).Str("text", m.Text).Msg("bot: mention received")

	req, err := b.parser.Parse(ctx, m.Text)
	switch {
	case errors.Is(err, ErrNoTopic), errors.Is(err, ErrNoCelebrity):
		b.reply(m.ID, "Sorry, I couldn't identify both a topic and a celebrity. Try: explain TOPIC by CELEBRITY.")
		return
	case err != nil:
		b.logger.Warn().Err(err).Str("tweet_id", m.ID).Msg("bot: parse failed")
		b.reply(m.ID, "Sorry, I couldn't quite understand that. Try: explain TOPIC by CELEBRITY.")
		return
	}

	persona, ok := b.lookupPersona(req.Celebrity)
	if !ok {
		b.reply(m.ID, fmt.Sprintf("Sorry, %s is not a persona I can do yet.", req.Celebrity))
		return
	}

	job, err := b.client.CreateJob(ctx, req.Topic, persona.ID)
	if err != nil {
		b.logger.Error().Err(err).Str("tweet_id", m.ID).Msg("bot: create job failed")
		b.reply(m.ID, fmt.Sprintf("Sorry, I had an issue setting up your request for '%s' by %s. Please try again.", req.Topic, persona.Name))
		return
	}

	b.mu.Lock()
	b.tracked[job.JobID] = request{tweetID: m.ID, topic: req.Topic, personaName: persona.Name}
	b.mu.Unlock()

	b.logger.Info().Str("tweet_id", m.ID).Str("job_id", job.JobID).Msg("bot: job submitted")
	// Confirm before the first poll so the acknowledgement always precedes
	// the result.
	b.reply(m.ID, fmt.Sprintf("Got it! I'll have %s explain '%s'. This might take a few minutes.", persona.Name, req.Topic))
	b.poller.Start(job.JobID)
}

// onJobUpdate runs on every successful poll; only terminal states matter.
func (b *Bot) onJobUpdate(job *jobclient.Job) {
	if !job.Terminal() {
		return
	}
	b.mu.Lock()
	req, ok := b.tracked[job.JobID]
	delete(b.tracked, job.JobID)
	b.mu.Unlock()
	if !ok {
		return
	}

	if job.Status == jobclient.StatusCompleted {
		url := job.ResultURL
		if url == "" {
			url = b.client.VideoURL(job.JobID)
		}
		b.reply(req.tweetID, fmt.Sprintf("Here's %s explaining '%s'! Watch it here: %s", req.personaName, req.topic, url))
		return
	}
	msg := job.Error
	if msg == "" {
		msg = "an unknown error occurred during processing"
	}
	b.reply(req.tweetID, fmt.Sprintf("Sorry, I couldn't generate the explanation for '%s' by %s. Error: %s", req.topic, req.personaName, msg))
}

func (b *Bot) lookupPersona(name string) (jobclient.Persona, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.personas[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

func (b *Bot) reply(tweetID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.twitter.Reply(ctx, tweetID, text); err != nil {
		b.logger.Error().Err(err).Str("tweet_id", tweetID).Msg("bot: reply failed")
	}
}

// readSinceID restores the mention high-water mark from disk so a restart
// does not re-answer old mentions.
func (b *Bot) readSinceID() string {
	if b.sinceIDPath == "" {
		return ""
	}
	raw, err := os.ReadFile(b.sinceIDPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

func (b *Bot) writeSinceID(id string) {
	if b.sinceIDPath == "" || id == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(b.sinceIDPath), 0o755); err != nil {
		b.logger.Warn().Err(err).Msg("bot: persist since id failed")
		return
	}
	if err := os.WriteFile(b.sinceIDPath, []byte(id), 0o644); err != nil {
		b.logger.Warn().Err(err).Msg("bot: persist since id failed")
	}
}
