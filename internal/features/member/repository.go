package member

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

// ErrNotFound indicates that the requested membership does not exist.
var ErrNotFound = errors.New("member: not found")

// ErrDuplicate indicates the user is already a member of the workspace.
var ErrDuplicate = errors.New("member: user already invited to workspace")

type MemberRepository interface {
	Create(ctx context.Context, m *WorkspaceMember) error
	FindByUserAndWorkspace(ctx context.Context, userID, workspaceID primitive.ObjectID) (*WorkspaceMember, error)
	ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]WorkspaceMember, error)
	// Update applies the field set and bumps the version atomically.
	Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*WorkspaceMember, error)
	CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error)
	// SweepExpiredAssignments removes assignments whose expiry passed before
	// the cutoff, bumping the version of every touched document.
	SweepExpiredAssignments(ctx context.Context, cutoff time.Time) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type MemberRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMemberRepository(mongodb *database.MongodbDB) MemberRepository {
	return &MemberRepositoryImpl{
		Collection: mongodb.DB.Collection("workspace_members"),
	}
}

func (r *MemberRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	// A user may be invited to a workspace at most once.
	_, err := r.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "workspace_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *MemberRepositoryImpl) Create(ctx context.Context, m *WorkspaceMember) error {
	_, err := r.Collection.InsertOne(ctx, m)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *MemberRepositoryImpl) FindByUserAndWorkspace(ctx context.Context, userID, workspaceID primitive.ObjectID) (*WorkspaceMember, error) {
	var m WorkspaceMember
	err := r.Collection.FindOne(ctx, bson.M{
		"user_id":      userID,
		"workspace_id": workspaceID,
	}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepositoryImpl) ListByWorkspace(ctx context.Context, workspaceID primitive.ObjectID) ([]WorkspaceMember, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var members []WorkspaceMember
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepositoryImpl) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (*WorkspaceMember, error) {
	fields["updated_at"] = time.Now()

	update := bson.M{
		"$set": fields,
		"$inc": bson.M{"version": 1},
	}

	res := r.Collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var m WorkspaceMember
	if err := res.Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepositoryImpl) CountByRole(ctx context.Context, roleID primitive.ObjectID) (int64, error) {
	return r.Collection.CountDocuments(ctx, bson.M{"assignments.role_id": roleID})
}

func (r *MemberRepositoryImpl) SweepExpiredAssignments(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.Collection.UpdateMany(ctx,
		bson.M{"assignments.expires_at": bson.M{"$lt": cutoff}},
		bson.M{
			"$pull": bson.M{"assignments": bson.M{"expires_at": bson.M{"$lt": cutoff}}},
			"$inc":  bson.M{"version": 1},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
