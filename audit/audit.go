// Package audit records how each checkout's client total compared with the
// total the backend charged.
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"kiosk/globals"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Reconciliation struct {
	ID           string          `json:"id"`
	Terminal     string          `json:"terminal"`
	UserID       int             `json:"userId"`
	OrderID      int             `json:"orderId"`
	Delivery     string          `json:"delivery"`
	ClientTotal  decimal.Decimal `json:"clientTotal"`
	BackendTotal decimal.Decimal `json:"backendTotal"`
	Mismatch     bool            `json:"mismatch"`
	At           time.Time       `json:"at"`
}

// NewReconciliation compares the two totals. A difference above one cent is
// a mismatch.
func NewReconciliation(terminal string, userID, orderID int, delivery string, client, backend decimal.Decimal) Reconciliation {
	return Reconciliation{
		ID:           uuid.New().String(),
		Terminal:     terminal,
		UserID:       userID,
		OrderID:      orderID,
		Delivery:     delivery,
		ClientTotal:  client,
		BackendTotal: backend,
		Mismatch:     Mismatch(client, backend),
		At:           time.Now().UTC(),
	}
}

func Mismatch(client, backend decimal.Decimal) bool {
	return client.Sub(backend).Abs().GreaterThan(globals.TotalTolerance)
}

// Recorder stores reconciliation records.
type Recorder interface {
	Record(ctx context.Context, r Reconciliation) error
}

// LogRecorder writes records to the process log.
type LogRecorder struct{}

func (LogRecorder) Record(_ context.Context, r Reconciliation) error {
	level := "INFO"
	if r.Mismatch {
		level = "WARN"
	}
	log.Printf("[audit] %s order=%d user=%d terminal=%s delivery=%s client=%s backend=%s",
		level, r.OrderID, r.UserID, r.Terminal, r.Delivery, r.ClientTotal.StringFixed(2), r.BackendTotal.StringFixed(2))
	return nil
}

// MongoRecorder inserts records into a collection.
type MongoRecorder struct {
	coll *mongo.Collection
}

func NewMongoRecorder(coll *mongo.Collection) *MongoRecorder {
	return &MongoRecorder{coll: coll}
}

// EnsureIndexes indexes records by order and by mismatch for review queries.
func (m *MongoRecorder) EnsureIndexes(ctx context.Context) error {
	idxs := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_id", Value: 1}},
			Options: options.Index().SetName("order_id"),
		},
		{
			Keys:    bson.D{{Key: "mismatch", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("mismatch_at"),
		},
	}
	_, err := m.coll.Indexes().CreateMany(ctx, idxs)
	return err
}

type document struct {
	ID           string               `bson:"_id"`
	Terminal     string               `bson:"terminal"`
	UserID       int                  `bson:"user_id"`
	OrderID      int                  `bson:"order_id"`
	Delivery     string               `bson:"delivery"`
	ClientTotal  primitive.Decimal128 `bson:"client_total"`
	BackendTotal primitive.Decimal128 `bson:"backend_total"`
	Mismatch     bool                 `bson:"mismatch"`
	At           time.Time            `bson:"at"`
}

func toDocument(r Reconciliation) (document, error) {
	client, err := primitive.ParseDecimal128(r.ClientTotal.String())
	if err != nil {
		return document{}, fmt.Errorf("client total: %w", err)
	}
	backend, err := primitive.ParseDecimal128(r.BackendTotal.String())
	if err != nil {
		return document{}, fmt.Errorf("backend total: %w", err)
	}
	return document{
		ID:           r.ID,
		Terminal:     r.Terminal,
		UserID:       r.UserID,
		OrderID:      r.OrderID,
		Delivery:     r.Delivery,
		ClientTotal:  client,
		BackendTotal: backend,
		Mismatch:     r.Mismatch,
		At:           r.At,
	}, nil
}

func (m *MongoRecorder) Record(ctx context.Context, r Reconciliation) error {
	doc, err := toDocument(r)
	if err != nil {
		return err
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert reconciliation: %w", err)
	}
	return nil
}

// Multi fans a record out to several recorders and returns the first error.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, r Reconciliation) error {
	var first error
	for _, rec := range m {
		if err := rec.Record(ctx, r); err != nil && first == nil {
			first = err
		}
	}
	return first
}
