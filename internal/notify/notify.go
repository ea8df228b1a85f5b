// Package notify publishes build-completed events to NATS so downstream
// automation (deploy hooks, chat notifications) can react to new output.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/docsmith/internal/config"
	"git.home.luguber.info/inful/docsmith/internal/site"
)

// BuildEvent is the JSON payload published after each build.
type BuildEvent struct {
	BuildID       string    `json:"build_id"`
	Project       string    `json:"project"`
	Outcome       string    `json:"outcome"`
	Modules       int       `json:"modules"`
	Pages         int       `json:"pages"`
	RenderedPages int       `json:"rendered_pages"`
	BrokenLinks   int       `json:"broken_links"`
	Errors        int       `json:"errors"`
	Warnings      int       `json:"warnings"`
	DurationMS    int64     `json:"duration_ms"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventFromReport converts a finished build report into a publishable event.
func EventFromReport(rep *site.BuildReport) *BuildEvent {
	return &BuildEvent{
		BuildID:       rep.BuildID,
		Project:       rep.Project,
		Outcome:       rep.Outcome,
		Modules:       rep.Modules,
		Pages:         rep.Pages,
		RenderedPages: rep.RenderedPages,
		BrokenLinks:   rep.BrokenLinks,
		Errors:        len(rep.Errors),
		Warnings:      len(rep.Warnings),
		DurationMS:    rep.End.Sub(rep.Start).Milliseconds(),
	}
}

// Notifier publishes build events to a NATS subject.
type Notifier struct {
	conn    *nats.Conn
	subject string
}

// NewNotifier connects to NATS using the notify configuration.
func NewNotifier(cfg *config.NotifyConfig) (*Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("notify config is required")
	}

	if !cfg.Enabled {
		return nil, fmt.Errorf("notifications are disabled")
	}

	url := cfg.NATSURL
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url, nats.Name("docsmith"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("NATS notifier initialized", "url", url, "subject", cfg.Subject)

	return &Notifier{conn: conn, subject: cfg.Subject}, nil
}

// PublishBuildCompleted publishes one event for the given report.
func (n *Notifier) PublishBuildCompleted(rep *site.BuildReport) error {
	event := EventFromReport(rep)
	event.Timestamp = time.Now()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	if err := n.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("failed to flush event: %w", err)
	}

	slog.Debug("Published build event",
		"build_id", event.BuildID,
		"outcome", event.Outcome,
		"subject", n.subject)

	return nil
}

// Close closes the NATS connection.
func (n *Notifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
