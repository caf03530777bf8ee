package role

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

// ErrNotFound indicates that the requested role does not exist.
var ErrNotFound = errors.New("role: not found")

type RoleRepository interface {
	Create(ctx context.Context, role *Role) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Role, error)
	FindByName(ctx context.Context, workspaceID *primitive.ObjectID, name string) (*Role, error)
	List(ctx context.Context, workspaceID *primitive.ObjectID) ([]Role, error)
	// Update applies the field set and bumps the version atomically.
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Role, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error)
}

type RoleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewRoleRepository(mongodb *database.MongodbDB) RoleRepository {
	return &RoleRepositoryImpl{
		Collection: mongodb.DB.Collection("roles"),
	}
}

func (r *RoleRepositoryImpl) Create(ctx context.Context, role *Role) error {
	_, err := r.Collection.InsertOne(ctx, role)
	return err
}

func (r *RoleRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*Role, error) {
	var role Role
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&role)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepositoryImpl) FindByName(ctx context.Context, workspaceID *primitive.ObjectID, name string) (*Role, error) {
	filter := bson.M{"name": name}
	if workspaceID != nil {
		filter["workspace_id"] = *workspaceID
	} else {
		filter["workspace_id"] = nil
	}

	var role Role
	err := r.Collection.FindOne(ctx, filter).Decode(&role)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepositoryImpl) List(ctx context.Context, workspaceID *primitive.ObjectID) ([]Role, error) {
	filter := bson.M{"workspace_id": nil}
	if workspaceID != nil {
		filter = bson.M{"$or": []bson.M{
			{"workspace_id": *workspaceID},
			{"workspace_id": nil},
		}}
	}

	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var roles []Role
	if err := cursor.All(ctx, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RoleRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*Role, error) {
	fields["updated_at"] = time.Now()

	update := bson.M{
		"$set": fields,
		"$inc": bson.M{"version": 1},
	}

	res := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var role Role
	if err := res.Decode(&role); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &role, nil
}

func (r *RoleRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoleRepositoryImpl) CountChildren(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"parent_role_id": id})
}
