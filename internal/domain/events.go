package domain

import "time"

// Event types
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeTransactionUpdated = "transaction.updated"
	EventTypeTransactionDeleted = "transaction.deleted"
	EventTypeAccountCreated     = "account.created"
	EventTypeAccountArchived    = "account.archived"
)

// Aggregate types
const (
	AggregateTypeTransaction = "transaction"
	AggregateTypeAccount     = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            ID
	UserID        ID
	AggregateID   ID
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewOutboxEvent stamps an event for aggregateID.
func NewOutboxEvent(userID, aggregateID ID, aggregateType, eventType string, payload map[string]any) *OutboxEvent {
	return &OutboxEvent{
		ID:            NewID(),
		UserID:        userID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

// TransactionChangedEvent payload
type TransactionChangedEvent struct {
	TransactionID  string `json:"transaction_id"`
	EntriesCreated int    `json:"entries_created"`
	EntriesUpdated int    `json:"entries_updated"`
	EntriesDeleted int    `json:"entries_deleted"`
}

// ToPayload flattens the event for the outbox.
func (e TransactionChangedEvent) ToPayload() map[string]any {
	return map[string]any{
		"transaction_id":  e.TransactionID,
		"entries_created": e.EntriesCreated,
		"entries_updated": e.EntriesUpdated,
		"entries_deleted": e.EntriesDeleted,
	}
}

// AccountCreatedEvent payload
type AccountCreatedEvent struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	Type      string `json:"type"`
}

func (e AccountCreatedEvent) ToPayload() map[string]any {
	return map[string]any{
		"account_id": e.AccountID,
		"name":       e.Name,
		"currency":   e.Currency,
		"type":       e.Type,
	}
}
