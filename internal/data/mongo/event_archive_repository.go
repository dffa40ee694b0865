package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pooled-savings-ledger/internal/domain/ledger"
)

const (
	// EventArchiveCollectionName is the collection holding archived ledger events
	EventArchiveCollectionName = "ledger_events"
)

type postingDocument struct {
	ID        string `bson:"id"`
	AccountID string `bson:"account_id"`
	MemberID  *int64 `bson:"member_id,omitempty"`
	GroupID   *int64 `bson:"group_id,omitempty"`
	Amount    string `bson:"amount"`
}

// eventDocument is the archived shape of an event. Amounts stay decimal strings.
type eventDocument struct {
	EventID        string            `bson:"event_id"`
	Timestamp      time.Time         `bson:"ts"`
	Type           string            `bson:"event_type"`
	Ref            string            `bson:"ref"`
	Meta           map[string]any    `bson:"meta"`
	GroupID        *int64            `bson:"group_id,omitempty"`
	GroupIDs       []int64           `bson:"group_ids"`
	CreatedBy      *int64            `bson:"created_by,omitempty"`
	IdempotencyKey string            `bson:"idempotency_key,omitempty"`
	Postings       []postingDocument `bson:"postings"`
	ArchivedAt     time.Time         `bson:"archived_at"`
}

func toDocument(e *ledger.Event, archivedAt time.Time) eventDocument {
	doc := eventDocument{
		EventID:        e.ID,
		Timestamp:      e.Timestamp,
		Type:           string(e.Type),
		Ref:            e.Ref,
		Meta:           map[string]any(e.Meta),
		GroupID:        e.GroupID,
		CreatedBy:      e.CreatedBy,
		IdempotencyKey: e.IdempotencyKey,
		Postings:       make([]postingDocument, 0, len(e.Postings)),
		ArchivedAt:     archivedAt,
	}

	seen := make(map[int64]bool)
	addGroup := func(id *int64) {
		if id != nil && !seen[*id] {
			seen[*id] = true
			doc.GroupIDs = append(doc.GroupIDs, *id)
		}
	}
	addGroup(e.GroupID)
	for _, p := range e.Postings {
		addGroup(p.GroupID)
		doc.Postings = append(doc.Postings, postingDocument{
			ID:        p.ID,
			AccountID: string(p.AccountID),
			MemberID:  p.MemberID,
			GroupID:   p.GroupID,
			Amount:    p.Amount.String(),
		})
	}
	if doc.GroupIDs == nil {
		doc.GroupIDs = []int64{}
	}
	return doc
}

func (d eventDocument) toEvent() (*ledger.Event, error) {
	e := &ledger.Event{
		ID:             d.EventID,
		Timestamp:      d.Timestamp.UTC(),
		Type:           ledger.EventType(d.Type),
		Ref:            d.Ref,
		Meta:           ledger.Metadata(d.Meta),
		GroupID:        d.GroupID,
		CreatedBy:      d.CreatedBy,
		IdempotencyKey: d.IdempotencyKey,
		Postings:       make([]ledger.Posting, 0, len(d.Postings)),
	}
	if e.Meta == nil {
		e.Meta = ledger.Metadata{}
	}
	for _, p := range d.Postings {
		amount, err := decimal.NewFromString(p.Amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse archived amount for posting %s: %w", p.ID, err)
		}
		e.Postings = append(e.Postings, ledger.Posting{
			ID:        p.ID,
			EventID:   d.EventID,
			AccountID: ledger.AccountID(p.AccountID),
			MemberID:  p.MemberID,
			GroupID:   p.GroupID,
			Amount:    amount,
		})
	}
	return e, nil
}

// EventArchiveRepository implements ledger.ArchiveRepository on MongoDB.
// It is a read model fed by the outbox; the SQL store stays authoritative.
type EventArchiveRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEventArchiveRepository creates a new MongoDB event archive
func NewEventArchiveRepository(logger *slog.Logger, db *mongo.Database) *EventArchiveRepository {
	return &EventArchiveRepository{
		db:     db,
		logger: logger,
	}
}

var _ ledger.ArchiveRepository = (*EventArchiveRepository)(nil)

// EnsureIndexes creates the unique event index and the group history index
func (r *EventArchiveRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(EventArchiveCollectionName)
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "group_ids", Value: 1}, {Key: "ts", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create archive indexes: %w", err)
	}
	return nil
}

// Save upserts by event id, so redelivered outbox messages are harmless.
func (r *EventArchiveRepository) Save(ctx context.Context, event *ledger.Event) error {
	collection := r.db.Collection(EventArchiveCollectionName)

	filter := bson.M{"event_id": event.ID}
	opts := options.Replace().SetUpsert(true)
	_, err := collection.ReplaceOne(ctx, filter, toDocument(event, time.Now().UTC()), opts)
	if err != nil {
		r.logger.Error("Failed to archive ledger event",
			"event_id", event.ID,
			"error", err)
		return fmt.Errorf("failed to archive ledger event: %w", err)
	}

	return nil
}

// GetByEventID returns ErrEventNotFound when the event has not been archived yet
func (r *EventArchiveRepository) GetByEventID(ctx context.Context, id string) (*ledger.Event, error) {
	collection := r.db.Collection(EventArchiveCollectionName)

	var doc eventDocument
	err := collection.FindOne(ctx, bson.M{"event_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ledger.ErrEventNotFound{ID: id}
		}
		r.logger.Error("Failed to get archived event",
			"event_id", id,
			"error", err)
		return nil, fmt.Errorf("failed to get archived event: %w", err)
	}

	return doc.toEvent()
}

// ListByGroup pages through a group's events newest first
func (r *EventArchiveRepository) ListByGroup(ctx context.Context, groupID int64, limit, offset int) ([]*ledger.Event, error) {
	collection := r.db.Collection(EventArchiveCollectionName)

	filter := bson.M{"group_ids": groupID}
	opts := options.Find().
		SetSort(bson.D{{Key: "ts", Value: -1}, {Key: "event_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list archived events",
			"group_id", groupID,
			"error", err)
		return nil, fmt.Errorf("failed to list archived events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode archived events",
			"group_id", groupID,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived events: %w", err)
	}

	events := make([]*ledger.Event, 0, len(docs))
	for _, doc := range docs {
		e, err := doc.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (r *EventArchiveRepository) CountByGroup(ctx context.Context, groupID int64) (int64, error) {
	collection := r.db.Collection(EventArchiveCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"group_ids": groupID})
	if err != nil {
		r.logger.Error("Failed to count archived events",
			"group_id", groupID,
			"error", err)
		return 0, fmt.Errorf("failed to count archived events: %w", err)
	}

	return count, nil
}
