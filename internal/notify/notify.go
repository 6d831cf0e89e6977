// Package notify publishes build events to NATS for CI and chat-ops
// consumers. Publishing is best effort: a missing broker degrades to a
// warning, never a build failure.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/provbook/bookbuilder/internal/config"
	"github.com/provbook/bookbuilder/internal/linkcheck"
	"github.com/provbook/bookbuilder/internal/logfields"
	"github.com/provbook/bookbuilder/internal/site"
)

// BuildEvent is the wire form of a completed build.
type BuildEvent struct {
	BuildID   string              `json:"build_id"`
	Outcome   site.Outcome        `json:"outcome"`
	Pages     int                 `json:"pages"`
	Warnings  []linkcheck.Warning `json:"warnings,omitempty"`
	Duration  time.Duration       `json:"duration"`
	Timestamp time.Time           `json:"timestamp"`
}

// Publisher emits build events to a NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// New connects to the configured NATS server. It returns (nil, nil) when
// notification is disabled.
func New(cfg config.NotifyConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("bookbuilder"),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}

	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// PublishBuild emits one event for a finished build.
func (p *Publisher) PublishBuild(report *site.BuildReport) error {
	if p == nil {
		return nil
	}

	event := BuildEvent{
		BuildID:   report.BuildID,
		Outcome:   report.Outcome,
		Pages:     report.Pages,
		Warnings:  report.References,
		Duration:  report.Duration,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}

	slog.Debug("build event published",
		logfields.BuildID(report.BuildID),
		slog.String("subject", p.subject))
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
