package role

import (
	"context"
	"testing"

	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/config"
	"go-taskhub/internal/versionfeed"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/stretchr/testify/require"
)

type fakeRoleRepo struct {
	roles map[primitive.ObjectID]*Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[primitive.ObjectID]*Role)}
}

func (f *fakeRoleRepo) Create(_ context.Context, role *Role) error {
	cp := *role
	f.roles[role.ID] = &cp
	return nil
}

func (f *fakeRoleRepo) FindByID(_ context.Context, id primitive.ObjectID) (*Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoleRepo) FindByName(_ context.Context, _ *primitive.ObjectID, name string) (*Role, error) {
	for _, r := range f.roles {
		if r.Name == name {
			cp := *r
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRoleRepo) List(_ context.Context, _ *primitive.ObjectID) ([]Role, error) {
	out := make([]Role, 0, len(f.roles))
	for _, r := range f.roles {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRoleRepo) Update(_ context.Context, id primitive.ObjectID, fields bson.M) (*Role, error) {
	r, ok := f.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			r.Name = v.(string)
		case "description":
			r.Description = v.(string)
		case "parent_role_id":
			r.ParentRoleID, _ = v.(*primitive.ObjectID)
		case "permission_group_ids":
			r.PermissionGroupIDs = v.([]primitive.ObjectID)
		case "policy_ids":
			r.PolicyIDs = v.([]primitive.ObjectID)
		case "disabled":
			r.Disabled = v.(bool)
		}
	}
	r.Version++
	cp := *r
	return &cp, nil
}

func (f *fakeRoleRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.roles[id]; !ok {
		return ErrNotFound
	}
	delete(f.roles, id)
	return nil
}

func (f *fakeRoleRepo) CountChildren(_ context.Context, id primitive.ObjectID) (int64, error) {
	var n int64
	for _, r := range f.roles {
		if r.ParentRoleID != nil && *r.ParentRoleID == id {
			n++
		}
	}
	return n, nil
}

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

type fakeMemberRefs struct {
	count int64
}

func (f fakeMemberRefs) CountByRole(context.Context, primitive.ObjectID) (int64, error) {
	return f.count, nil
}

func newTestService(repo RoleRepository, refs MemberRefChecker, feed versionfeed.Publisher) RoleService {
	return NewRoleService(repo, refs, nopAudit{}, feed, &config.Config{MaxRoleDepth: 8})
}

func seedChain(t *testing.T, svc RoleService, names ...string) []*Role {
	t.Helper()
	out := make([]*Role, 0, len(names))
	var parent *primitive.ObjectID
	for _, name := range names {
		r, err := svc.CreateRole(context.Background(), &Role{Name: name, ParentRoleID: parent})
		require.NoError(t, err)
		parent = &r.ID
		out = append(out, r)
	}
	return out
}

func TestCreateRoleValidation(t *testing.T) {
	svc := newTestService(newFakeRoleRepo(), fakeMemberRefs{}, &recordingFeed{})

	_, err := svc.CreateRole(context.Background(), &Role{})
	require.Error(t, err)

	r, err := svc.CreateRole(context.Background(), &Role{Name: "Editor"})
	require.NoError(t, err)
	require.Equal(t, int64(1), r.Version)
	require.NotNil(t, r.PermissionGroupIDs)
	require.NotNil(t, r.PolicyIDs)
}

func TestSetParentRejectsCycles(t *testing.T) {
	repo := newFakeRoleRepo()
	feed := &recordingFeed{}
	svc := newTestService(repo, fakeMemberRefs{}, feed)

	chain := seedChain(t, svc, "base", "mid", "top")
	base, top := chain[0], chain[2]

	// base -> top would close the loop top -> mid -> base.
	topHex := top.ID.Hex()
	_, err := svc.SetParent(context.Background(), base.ID.Hex(), &topHex)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")

	// Self-parenting is rejected before the walk.
	baseHex := base.ID.Hex()
	_, err = svc.SetParent(context.Background(), base.ID.Hex(), &baseHex)
	require.Error(t, err)

	// Detaching is always legal.
	updated, err := svc.SetParent(context.Background(), top.ID.Hex(), nil)
	require.NoError(t, err)
	require.Nil(t, updated.ParentRoleID)
}

func TestSetParentRejectsSystemRoles(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := newTestService(repo, fakeMemberRefs{}, &recordingFeed{})

	sys, err := svc.CreateRole(context.Background(), &Role{Name: "Workspace Owner", IsSystem: true})
	require.NoError(t, err)
	other, err := svc.CreateRole(context.Background(), &Role{Name: "Editor"})
	require.NoError(t, err)

	otherHex := other.ID.Hex()
	_, err = svc.SetParent(context.Background(), sys.ID.Hex(), &otherHex)
	require.Error(t, err)
}

func TestDeleteRoleProtections(t *testing.T) {
	repo := newFakeRoleRepo()
	svc := newTestService(repo, fakeMemberRefs{}, &recordingFeed{})

	chain := seedChain(t, svc, "base", "child")
	base, child := chain[0], chain[1]

	// Parent with children cannot go.
	err := svc.DeleteRole(context.Background(), base.ID.Hex())
	require.Error(t, err)

	// System roles cannot go.
	sys, err := svc.CreateRole(context.Background(), &Role{Name: "Workspace Owner", IsSystem: true})
	require.NoError(t, err)
	require.Error(t, svc.DeleteRole(context.Background(), sys.ID.Hex()))

	// Referenced roles cannot go either.
	refSvc := newTestService(repo, fakeMemberRefs{count: 3}, &recordingFeed{})
	require.Error(t, refSvc.DeleteRole(context.Background(), child.ID.Hex()))

	// Leaf with no references deletes fine.
	require.NoError(t, svc.DeleteRole(context.Background(), child.ID.Hex()))
	_, err = svc.GetRoleByID(context.Background(), child.ID.Hex())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMutationsPublishVersionBumps(t *testing.T) {
	repo := newFakeRoleRepo()
	feed := &recordingFeed{}
	svc := newTestService(repo, fakeMemberRefs{}, feed)

	r, err := svc.CreateRole(context.Background(), &Role{Name: "Editor"})
	require.NoError(t, err)

	before := len(feed.events)
	_, err = svc.DisableRole(context.Background(), r.ID.Hex(), true)
	require.NoError(t, err)
	_, err = svc.SetPermissionGroups(context.Background(), r.ID.Hex(), []string{primitive.NewObjectID().Hex()})
	require.NoError(t, err)

	require.Len(t, feed.events, before+2)
	last := feed.events[len(feed.events)-1]
	require.Equal(t, "role", last.Kind)
	require.Equal(t, r.ID.Hex(), last.EntityID)
	require.Equal(t, int64(3), last.Version)
}
