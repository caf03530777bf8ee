package permgroup

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

// ErrNotFound indicates that the requested permission group does not exist.
var ErrNotFound = errors.New("permgroup: not found")

type GroupRepository interface {
	Create(ctx context.Context, group *PermissionGroup) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*PermissionGroup, error)
	List(ctx context.Context) ([]PermissionGroup, error)
	// UpdatePermissions replaces the permission set and bumps the version in
	// a single atomic write.
	UpdatePermissions(ctx context.Context, id primitive.ObjectID, permissions []string) (*PermissionGroup, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type GroupRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewGroupRepository(mongodb *database.MongodbDB) GroupRepository {
	return &GroupRepositoryImpl{
		Collection: mongodb.DB.Collection("permission_groups"),
	}
}

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *PermissionGroup) error {
	_, err := r.Collection.InsertOne(ctx, group)
	return err
}

func (r *GroupRepositoryImpl) FindByID(ctx context.Context, id primitive.ObjectID) (*PermissionGroup, error) {
	var group PermissionGroup
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepositoryImpl) List(ctx context.Context) ([]PermissionGroup, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []PermissionGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepositoryImpl) UpdatePermissions(ctx context.Context, id primitive.ObjectID, permissions []string) (*PermissionGroup, error) {
	update := bson.M{
		"$set": bson.M{
			"permissions": permissions,
			"updated_at":  time.Now(),
		},
		"$inc": bson.M{"version": 1},
	}

	res := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var group PermissionGroup
	if err := res.Decode(&group); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
