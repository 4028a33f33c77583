package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	sharedDomain "github.com/davicafu/hexatask/internal/shared/domain"
)

// OutboxCollection es la colección compartida de eventos pendientes.
const OutboxCollection = "outbox"

// OutboxRepoMongoDB implementa sharedDomain.OutboxRepository.
type OutboxRepoMongoDB struct {
	coll *mongo.Collection
}

func NewOutboxRepoMongoDB(db *mongo.Database) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{coll: db.Collection(OutboxCollection)}
}

// outboxDocument guarda el payload como texto JSON, igual que las tablas SQL.
type outboxDocument struct {
	ID            string    `bson:"_id"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	EventType     string    `bson:"eventType"`
	Payload       string    `bson:"payload"`
	CreatedAt     time.Time `bson:"createdAt"`
	Processed     bool      `bson:"processed"`
}

// InsertOutbox escribe el evento; pásale el SessionContext de la transacción del agregado.
func InsertOutbox(ctx context.Context, coll *mongo.Collection, evt sharedDomain.OutboxEvent) error {
	payloadBytes, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	doc := outboxDocument{
		ID:            evt.ID.String(),
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		EventType:     evt.EventType,
		Payload:       string(payloadBytes),
		CreatedAt:     evt.CreatedAt,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// EnsureOutboxIndexes crea el índice usado por el polling.
func EnsureOutboxIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(OutboxCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "processed", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.M{"processed": false}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var doc outboxDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		evt, err := fromOutboxDocument(doc)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, cursor.Err()
}

func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

func fromOutboxDocument(doc outboxDocument) (sharedDomain.OutboxEvent, error) {
	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return sharedDomain.OutboxEvent{}, fmt.Errorf("invalid UUID in outbox document: %w", err)
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(doc.Payload), &payload); err != nil {
		return sharedDomain.OutboxEvent{}, fmt.Errorf("invalid JSON payload in outbox document %s: %w", id, err)
	}
	return sharedDomain.OutboxEvent{
		ID:            id,
		AggregateType: doc.AggregateType,
		AggregateID:   doc.AggregateID,
		EventType:     doc.EventType,
		Payload:       payload,
		CreatedAt:     doc.CreatedAt.UTC(),
		Processed:     doc.Processed,
	}, nil
}

var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
