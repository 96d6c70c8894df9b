package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/apod/backend/data"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/nats-io/nats.go"
	log "gopkg.in/inconshreveable/log15.v2"
)

// LoadedMessage is published once for every record a run inserts.
type LoadedMessage struct {
	RunID       string      `json:"run_id"`
	ID          int32       `json:"id"`
	Title       pgtype.Text `json:"title"`
	Date        pgtype.Text `json:"date"`
	MediaType   pgtype.Text `json:"media_type"`
	URL         pgtype.Text `json:"url"`
	PublishedAt time.Time   `json:"published_at"`
}

func newLoadedMessages(runID string, rows []data.APODRow, ids []int32, now time.Time) ([]LoadedMessage, error) {
	if len(rows) != len(ids) {
		return nil, fmt.Errorf("have %d rows but %d ids", len(rows), len(ids))
	}

	messages := make([]LoadedMessage, len(rows))
	for i, row := range rows {
		messages[i] = LoadedMessage{
			RunID:       runID,
			ID:          ids[i],
			Title:       row.Title,
			Date:        row.Date,
			MediaType:   row.MediaType,
			URL:         row.URL,
			PublishedAt: now,
		}
	}

	return messages, nil
}

type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	logger  log.Logger
}

func NewNATSNotifier(conf NATSConfig, logger log.Logger) (*NATSNotifier, error) {
	nc, err := nats.Connect(conf.URL, nats.Name("apod"))
	if err != nil {
		return nil, fmt.Errorf("Unable to connect to NATS: %w", err)
	}

	return &NATSNotifier{conn: nc, subject: conf.Subject, logger: logger}, nil
}

func (n *NATSNotifier) NotifyLoaded(ctx context.Context, runID string, rows []data.APODRow, ids []int32) error {
	messages, err := newLoadedMessages(runID, rows, ids, time.Now())
	if err != nil {
		return err
	}

	for _, m := range messages {
		buf, err := json.Marshal(m)
		if err != nil {
			return err
		}

		err = n.conn.Publish(n.subject, buf)
		if err != nil {
			natsMessagesPublishedTotal.WithLabelValues(n.subject, "failure").Inc()
			return err
		}
		natsMessagesPublishedTotal.WithLabelValues(n.subject, "success").Inc()
	}

	if err := n.conn.FlushWithContext(ctx); err != nil {
		return err
	}

	n.logger.Info("published loaded records", "subject", n.subject, "n", len(messages))
	return nil
}

func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
