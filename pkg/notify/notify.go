// Package notify delivers job status events to the outside world. Delivery
// is best effort and never feeds back into the state transition that caused
// it.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/arnavshah/alterations-api/pkg/config"
	"github.com/arnavshah/alterations-api/pkg/models"
	"golang.org/x/sync/errgroup"
)

type Notifier interface {
	Notify(ctx context.Context, event models.JobStatusEvent) error
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, event models.JobStatusEvent) error

func (f NotifierFunc) Notify(ctx context.Context, event models.JobStatusEvent) error {
	return f(ctx, event)
}

// LogNotifier writes every event to the structured log.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, event models.JobStatusEvent) error {
	n.log.Info("job status changed",
		slog.Uint64("job_id", uint64(event.JobID)),
		slog.String("job", event.JobNumber),
		slog.String("status", string(event.Status)))
	return nil
}

// WebhookNotifier POSTs the event as JSON to a fixed URL.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(url string, client *http.Client) *WebhookNotifier {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookNotifier{url: url, client: client}
}

func (n *WebhookNotifier) Notify(ctx context.Context, event models.JobStatusEvent) error {
	const op = "notify.WebhookNotifier"

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s: webhook answered %s", op, resp.Status)
	}
	return nil
}

// Dispatcher fans an event out to every notifier in the background.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	log       *slog.Logger
	wg        sync.WaitGroup
}

func NewDispatcher(log *slog.Logger, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{notifiers: notifiers, timeout: timeout, log: log}
}

// Dispatch returns immediately. Failures are logged and dropped.
func (d *Dispatcher) Dispatch(event models.JobStatusEvent) {
	if len(d.notifiers) == 0 {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		var g errgroup.Group
		for _, n := range d.notifiers {
			n := n
			g.Go(func() error {
				return n.Notify(ctx, event)
			})
		}
		if err := g.Wait(); err != nil {
			d.log.Warn("notification failed",
				slog.Uint64("job_id", uint64(event.JobID)),
				slog.String("status", string(event.Status)),
				slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until every in-flight dispatch has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// NewFromConfig builds a dispatcher that always logs and, when configured,
// also calls the webhook and posts to Telegram.
func NewFromConfig(cfg config.Notify, log *slog.Logger) (*Dispatcher, error) {
	notifiers := []Notifier{NewLogNotifier(log)}

	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, NewWebhookNotifier(cfg.WebhookURL, &http.Client{Timeout: cfg.Timeout}))
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		tg, err := DialTelegram(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			return nil, fmt.Errorf("notify.NewFromConfig: %w", err)
		}
		notifiers = append(notifiers, tg)
	}

	return NewDispatcher(log, cfg.Timeout, notifiers...), nil
}
