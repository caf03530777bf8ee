package authz

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemStore is an in-memory EntityStore. The engine is deliberately
// storage-agnostic, so tests and local tooling can exercise full resolution
// semantics against fixtures without a database.
type MemStore struct {
	mu       sync.RWMutex
	roles    map[primitive.ObjectID]Role
	groups   map[primitive.ObjectID]PermissionGroup
	policies map[primitive.ObjectID]Policy
	members  map[string]Member
}

func NewMemStore() *MemStore {
	return &MemStore{
		roles:    make(map[primitive.ObjectID]Role),
		groups:   make(map[primitive.ObjectID]PermissionGroup),
		policies: make(map[primitive.ObjectID]Policy),
		members:  make(map[string]Member),
	}
}

func memberKey(userID, workspaceID primitive.ObjectID) string {
	return userID.Hex() + "/" + workspaceID.Hex()
}

func (s *MemStore) PutRole(r Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roles[r.ID] = r
}

func (s *MemStore) PutPermissionGroup(g PermissionGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
}

func (s *MemStore) PutPolicy(p Policy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
}

func (s *MemStore) PutMember(m Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberKey(m.UserID, m.WorkspaceID)] = m
}

func (s *MemStore) DeleteMember(userID, workspaceID primitive.ObjectID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, memberKey(userID, workspaceID))
}

func (s *MemStore) GetRole(_ context.Context, id primitive.ObjectID) (*Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", id.Hex(), ErrNotFound)
	}
	return &r, nil
}

func (s *MemStore) GetPermissionGroup(_ context.Context, id primitive.ObjectID) (*PermissionGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	if !ok {
		return nil, fmt.Errorf("permission group %s: %w", id.Hex(), ErrNotFound)
	}
	return &g, nil
}

func (s *MemStore) GetPolicy(_ context.Context, id primitive.ObjectID) (*Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, fmt.Errorf("policy %s: %w", id.Hex(), ErrNotFound)
	}
	return &p, nil
}

func (s *MemStore) GetWorkspaceMember(_ context.Context, userID, workspaceID primitive.ObjectID) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey(userID, workspaceID)]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", memberKey(userID, workspaceID), ErrNotFound)
	}
	return &m, nil
}
