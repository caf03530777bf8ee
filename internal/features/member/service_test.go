package member

import (
	"context"
	"testing"
	"time"

	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/versionfeed"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stretchr/testify/require"
)

type fakeMemberRepo struct {
	members map[primitive.ObjectID]*WorkspaceMember
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[primitive.ObjectID]*WorkspaceMember)}
}

func (f *fakeMemberRepo) Create(_ context.Context, m *WorkspaceMember) error {
	for _, existing := range f.members {
		if existing.WorkspaceID == m.WorkspaceID && existing.UserID == m.UserID {
			return ErrDuplicate
		}
	}
	cp := *m
	f.members[m.ID] = &cp
	return nil
}

func (f *fakeMemberRepo) FindByUserAndWorkspace(_ context.Context, userID, workspaceID primitive.ObjectID) (*WorkspaceMember, error) {
	for _, m := range f.members {
		if m.UserID == userID && m.WorkspaceID == workspaceID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeMemberRepo) ListByWorkspace(_ context.Context, workspaceID primitive.ObjectID) ([]WorkspaceMember, error) {
	var out []WorkspaceMember
	for _, m := range f.members {
		if m.WorkspaceID == workspaceID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMemberRepo) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*WorkspaceMember, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "assignments":
			m.Assignments = v.([]RoleAssignment)
		case "is_active":
			m.IsActive = v.(bool)
		case "metadata":
			m.Metadata, _ = v.(map[string]interface{})
		}
	}
	m.Version++
	cp := *m
	return &cp, nil
}

func (f *fakeMemberRepo) CountByRole(_ context.Context, roleID primitive.ObjectID) (int64, error) {
	var n int64
	for _, m := range f.members {
		for _, a := range m.Assignments {
			if a.RoleID == roleID {
				n++
				break
			}
		}
	}
	return n, nil
}

func (f *fakeMemberRepo) SweepExpiredAssignments(_ context.Context, cutoff time.Time) (int64, error) {
	var touched int64
	for _, m := range f.members {
		kept := m.Assignments[:0]
		removed := false
		for _, a := range m.Assignments {
			if a.ExpiresAt != nil && a.ExpiresAt.Before(cutoff) {
				removed = true
				continue
			}
			kept = append(kept, a)
		}
		if removed {
			m.Assignments = kept
			m.Version++
			touched++
		}
	}
	return touched, nil
}

func (f *fakeMemberRepo) EnsureIndexes(context.Context) error { return nil }

type nopAudit struct{}

func (nopAudit) LogChange(context.Context, common_models.AuditAction, string, string, map[string]common_models.Change) error {
	return nil
}

func (nopAudit) ListLogs(context.Context, map[string]interface{}, int64, int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

type recordingFeed struct {
	events []versionfeed.Event
}

func (f *recordingFeed) VersionBumped(_ context.Context, ev versionfeed.Event) {
	f.events = append(f.events, ev)
}

func TestInviteMemberUniquePerWorkspace(t *testing.T) {
	svc := NewMemberService(newFakeMemberRepo(), nopAudit{}, &recordingFeed{})
	ws := primitive.NewObjectID().Hex()
	user := primitive.NewObjectID().Hex()

	m, err := svc.InviteMember(context.Background(), ws, user, map[string]interface{}{"department": "design"})
	require.NoError(t, err)
	require.True(t, m.IsActive)
	require.Empty(t, m.Assignments)
	require.Equal(t, int64(1), m.Version)

	_, err = svc.InviteMember(context.Background(), ws, user, nil)
	require.ErrorIs(t, err, ErrDuplicate)

	// Same user in another workspace is a separate membership.
	_, err = svc.InviteMember(context.Background(), primitive.NewObjectID().Hex(), user, nil)
	require.NoError(t, err)
}

func TestAssignRoleReplacesExistingAssignment(t *testing.T) {
	feed := &recordingFeed{}
	svc := NewMemberService(newFakeMemberRepo(), nopAudit{}, feed)
	ws := primitive.NewObjectID().Hex()
	user := primitive.NewObjectID().Hex()
	roleID := primitive.NewObjectID().Hex()

	_, err := svc.InviteMember(context.Background(), ws, user, nil)
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)
	m, err := svc.AssignRole(context.Background(), ws, user, roleID, &expiry)
	require.NoError(t, err)
	require.Len(t, m.Assignments, 1)
	require.NotNil(t, m.Assignments[0].ExpiresAt)

	// Re-assigning the same role permanently clears the expiry instead of
	// stacking a second assignment.
	m, err = svc.AssignRole(context.Background(), ws, user, roleID, nil)
	require.NoError(t, err)
	require.Len(t, m.Assignments, 1)
	require.Nil(t, m.Assignments[0].ExpiresAt)

	require.Len(t, feed.events, 2)
	require.Equal(t, "member", feed.events[0].Kind)
}

func TestRevokeRole(t *testing.T) {
	svc := NewMemberService(newFakeMemberRepo(), nopAudit{}, &recordingFeed{})
	ws := primitive.NewObjectID().Hex()
	user := primitive.NewObjectID().Hex()
	keep := primitive.NewObjectID().Hex()
	drop := primitive.NewObjectID().Hex()

	_, err := svc.InviteMember(context.Background(), ws, user, nil)
	require.NoError(t, err)
	_, err = svc.AssignRole(context.Background(), ws, user, keep, nil)
	require.NoError(t, err)
	_, err = svc.AssignRole(context.Background(), ws, user, drop, nil)
	require.NoError(t, err)

	m, err := svc.RevokeRole(context.Background(), ws, user, drop)
	require.NoError(t, err)
	require.Len(t, m.Assignments, 1)
	require.Equal(t, keep, m.Assignments[0].RoleID.Hex())
}

func TestSetActiveAndMetadataBumpVersions(t *testing.T) {
	feed := &recordingFeed{}
	svc := NewMemberService(newFakeMemberRepo(), nopAudit{}, feed)
	ws := primitive.NewObjectID().Hex()
	user := primitive.NewObjectID().Hex()

	_, err := svc.InviteMember(context.Background(), ws, user, nil)
	require.NoError(t, err)

	m, err := svc.SetActive(context.Background(), ws, user, false)
	require.NoError(t, err)
	require.False(t, m.IsActive)
	require.Equal(t, int64(2), m.Version)

	m, err = svc.SetMetadata(context.Background(), ws, user, map[string]interface{}{"department": "sales"})
	require.NoError(t, err)
	require.Equal(t, "sales", m.Metadata["department"])
	require.Equal(t, int64(3), m.Version)

	require.Len(t, feed.events, 2)
}

func TestSweepExpiredAssignments(t *testing.T) {
	repo := newFakeMemberRepo()
	svc := NewMemberService(repo, nopAudit{}, &recordingFeed{})
	ws := primitive.NewObjectID().Hex()
	user := primitive.NewObjectID().Hex()

	_, err := svc.InviteMember(context.Background(), ws, user, nil)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour)
	_, err = svc.AssignRole(context.Background(), ws, user, primitive.NewObjectID().Hex(), &past)
	require.NoError(t, err)

	touched, err := repo.SweepExpiredAssignments(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), touched)

	m, err := svc.GetMember(context.Background(), ws, user)
	require.NoError(t, err)
	require.Empty(t, m.Assignments)
}
