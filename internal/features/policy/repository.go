package policy

import (
	"context"
	"errors"
	"time"

	"go-taskhub/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound indicates that the requested policy does not exist.
var ErrNotFound = errors.New("policy: not found")

type PolicyRepository interface {
	Create(ctx context.Context, p *Policy) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Policy, error)
	List(ctx context.Context, workspaceID *primitive.ObjectID) ([]Policy, error)
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Policy, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type PolicyRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewPolicyRepository(mongodb *database.MongodbDB) PolicyRepository {
	return &PolicyRepositoryImpl{
		Collection: mongodb.DB.Collection("policies"),
	}
}

func (r *PolicyRepositoryImpl) Create(ctx context.Context, p *Policy) error {
	_, err := r.Collection.InsertOne(ctx, p)
	return err
}

func (r *PolicyRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Policy, error) {
	var p Policy
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns workspace-scoped policies plus global ones when workspaceID is
// given, or only global policies when it is nil.
func (r *PolicyRepositoryImpl) List(ctx context.Context, workspaceID *primitive.ObjectID) ([]Policy, error) {
	filter := bson.M{"workspace_id": nil}
	if workspaceID != nil {
		filter = bson.M{"$or": []bson.M{
			{"workspace_id": *workspaceID},
			{"workspace_id": nil},
		}}
	}

	cursor, err := r.Collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var policies []Policy
	if err := cursor.All(ctx, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// Update applies the given field set and bumps the version atomically.
func (r *PolicyRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Policy, error) {
	fields["updated_at"] = time.Now()

	update := bson.M{
		"$set": fields,
		"$inc": bson.M{"version": 1},
	}

	res := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var p Policy
	if err := res.Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PolicyRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
