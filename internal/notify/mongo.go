package notify

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"tfashion-storefront/internal/config"
)

const mongoWriteTimeout = 2 * time.Second

var _ History = (*MongoSink)(nil)

// auditDoc is the stored form of a notice.
type auditDoc struct {
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	Scope     string    `bson:"scope"`
	Level     string    `bson:"level"`
	Message   string    `bson:"message"`
	CreatedAt time.Time `bson:"created_at"`
}

// MongoSink keeps an audit trail of notices in a MongoDB collection.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *zap.Logger
}

func NewMongoSink(ctx context.Context, cfg config.MongoDBConfig, logger *zap.Logger) (*MongoSink, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		logger:     logger,
	}, nil
}

// Emit inserts the record. The request context is not used so a client disconnect
// does not lose the audit entry.
func (s *MongoSink) Emit(_ context.Context, rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoWriteTimeout)
	defer cancel()
	doc := auditDoc{
		Service:   rec.Service,
		Action:    rec.Action,
		Scope:     rec.Scope,
		Level:     string(rec.Notice.Level),
		Message:   rec.Notice.Message,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		s.logger.Warn("audit insert failed", zap.String("scope", rec.Scope), zap.Error(err))
	}
}

// Recent returns the newest notices recorded for scope.
func (s *MongoSink) Recent(ctx context.Context, scope string, limit int64) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := s.collection.Find(ctx, bson.M{"scope": scope}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []auditDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, Record{
			Scope:     d.Scope,
			Service:   d.Service,
			Action:    d.Action,
			Notice:    Notice{Level: Level(d.Level), Message: d.Message},
			CreatedAt: d.CreatedAt,
		})
	}
	return out, nil
}

func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
