package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/JetJadeja/celebxplain/pkg/jobclient"
)

const usage = `celebctl - drive the explanation video API from the terminal

Usage:
  celebctl personas
  celebctl create -persona <id> <query...>
  celebctl watch <job_id>

Flags:
  -api     API base URL (default $API_BASE_URL or http://localhost:8080)
  -timeout how long watch waits for a terminal state (default 15m)
`

func main() {
	_ = godotenv.Load()

	apiFlag := flag.String("api", "", "API base URL")
	personaFlag := flag.String("persona", "", "persona id for create")
	timeoutFlag := flag.Duration("timeout", 15*time.Minute, "watch timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	baseURL := *apiFlag
	if baseURL == "" {
		baseURL = os.Getenv("API_BASE_URL")
	}
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := jobclient.NewClient(baseURL)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "personas":
		err = listPersonas(client)
	case "create":
		query := strings.TrimSpace(strings.Join(args[1:], " "))
		err = createAndWatch(client, logger, *personaFlag, query, *timeoutFlag)
	case "watch":
		if len(args) < 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = watch(client, logger, args[1], *timeoutFlag)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func listPersonas(client *jobclient.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	personas, err := client.Personas(ctx)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Icon"})
	for _, p := range personas {
		t.AppendRow(table.Row{p.ID, p.Name, p.IconURL})
	}
	t.Render()
	return nil
}

func createAndWatch(client *jobclient.Client, logger zerolog.Logger, personaID, query string, timeout time.Duration) error {
	if personaID == "" {
		return errors.New("create requires -persona")
	}
	if query == "" {
		return errors.New("create requires a query")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	job, err := client.CreateJob(ctx, query, personaID)
	if err != nil {
		var apiErr *jobclient.APIError
		if errors.As(err, &apiErr) && apiErr.ValidationError() {
			return fmt.Errorf("rejected: %s", apiErr.Message)
		}
		return err
	}
	logger.Info().Str("job_id", job.JobID).Msg("job created")
	return watch(client, logger, job.JobID, timeout)
}

func watch(client *jobclient.Client, logger zerolog.Logger, jobID string, timeout time.Duration) error {
	store := jobclient.NewStore(client)
	done := make(chan *jobclient.Job, 1)
	var lastUpdate int64

	poller := jobclient.NewPoller(store,
		jobclient.WithLogger(logger),
		jobclient.WithOnUpdate(func(job *jobclient.Job) {
			for _, u := range job.Updates {
				if u.ID > lastUpdate {
					lastUpdate = u.ID
					logger.Info().Str("status", u.Status).Msg(u.Message)
				}
			}
			if job.Terminal() {
				select {
				case done <- job:
				default:
				}
			}
		}),
	)
	defer poller.Close()
	poller.Start(jobID)

	select {
	case job := <-done:
		return report(job)
	case <-time.After(timeout):
		return fmt.Errorf("timed out waiting for job %s", jobID)
	}
}

func report(job *jobclient.Job) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Job", "Status", "Result"})
	result := job.ResultURL
	if result == "" {
		result = job.Error
	}
	t.AppendRow(table.Row{job.JobID, job.Status, result})
	t.Render()
	if job.Status != jobclient.StatusCompleted {
		return fmt.Errorf("job finished as %s: %s", job.Status, job.Error)
	}
	return nil
}
