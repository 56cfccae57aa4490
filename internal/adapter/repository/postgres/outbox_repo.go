package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/pocketledger/internal/domain"
	"github.com/iho/pocketledger/internal/usecase"
)

const outboxColumns = `id, user_id, aggregate_id, aggregate_type, event_type, payload, created_at, published_at, published`

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db querier
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return newOutboxRepository(pool)
}

func newOutboxRepository(db querier) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO outbox_events (` + outboxColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = conn(r.db, tx).Exec(ctx, query,
		event.ID.String(),
		event.UserID.String(),
		event.AggregateID.String(),
		event.AggregateType,
		event.EventType,
		payload,
		event.CreatedAt,
		event.PublishedAt,
		event.Published,
	)

	return mapError(err, domain.ErrNotFound)
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	query := `
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE NOT published
		ORDER BY created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.OutboxEvent
	for rows.Next() {
		event, err := scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id domain.ID, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE outbox_events SET published = TRUE, published_at = $2 WHERE id = $1`,
		id.String(), publishedAt,
	)
	return err
}

func scanOutboxEvent(s rowScanner) (*domain.OutboxEvent, error) {
	var (
		event                   domain.OutboxEvent
		id, userID, aggregateID string
		payload                 []byte
	)
	err := s.Scan(
		&id,
		&userID,
		&aggregateID,
		&event.AggregateType,
		&event.EventType,
		&payload,
		&event.CreatedAt,
		&event.PublishedAt,
		&event.Published,
	)
	if err != nil {
		return nil, err
	}

	ids, err := parseIDs(id, userID, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("scan outbox event: %w", err)
	}
	event.ID, event.UserID, event.AggregateID = ids[0], ids[1], ids[2]

	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, fmt.Errorf("decode outbox payload: %w", err)
		}
	}
	return &event, nil
}
