package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/souenergy/cotacao-backend/internal/domain/models"
)

// ErrNotFound is returned when no quotation exists for the requested id.
var ErrNotFound = errors.New("quotation not found")

// Repository defines the interface for quotation storage. Records are
// append-only: there is no update or delete operation.
type Repository interface {
	Append(ctx context.Context, q models.Quotation) (string, error)
	ListAll(ctx context.Context) ([]models.Quotation, error)
	GetByID(ctx context.Context, id string) (*models.Quotation, error)
}

// QuotationRepository implements Repository on top of MongoDB. Each
// operation is a single round trip; ordering for display is the caller's
// concern.
type QuotationRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewQuotationRepository connects to MongoDB and verifies the connection.
func NewQuotationRepository(ctx context.Context, uri string, dbName string) (*QuotationRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &QuotationRepository{
		client:   client,
		dbName:   dbName,
		collName: "quotations",
	}, nil
}

// Append stores the quotation under a fresh server-assigned id and
// returns its hex form. Existing records are never overwritten.
func (r *QuotationRepository) Append(ctx context.Context, q models.Quotation) (string, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	res, err := collection.InsertOne(ctx, q)
	if err != nil {
		return "", fmt.Errorf("failed to insert quotation: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// ListAll returns every stored quotation in storage order.
func (r *QuotationRepository) ListAll(ctx context.Context) ([]models.Quotation, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	cursor, err := collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list quotations: %w", err)
	}

	var quotations []models.Quotation
	if err := cursor.All(ctx, &quotations); err != nil {
		return nil, fmt.Errorf("failed to decode quotations: %w", err)
	}
	return quotations, nil
}

// GetByID fetches a single quotation. A malformed id is treated the same
// as an unknown one.
func (r *QuotationRepository) GetByID(ctx context.Context, id string) (*models.Quotation, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	collection := r.client.Database(r.dbName).Collection(r.collName)

	var q models.Quotation
	if err := collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&q); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch quotation %s: %w", id, err)
	}
	return &q, nil
}

// Close closes the MongoDB connection.
func (r *QuotationRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
