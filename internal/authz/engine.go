package authz

import (
	"context"
	"fmt"
	"time"

	"go-taskhub/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Engine is the capability query surface. Every public method fails closed:
// any resolution error yields "no" (plus an operator-facing log line), never
// an accidental grant.
type Engine struct {
	aggregator *Aggregator
	evaluator  *PolicyEvaluator
	cache      *DecisionCache
	log        *zap.Logger
	now        func() time.Time
}

func NewEngine(cfg *config.Config, store EntityStore, log *zap.Logger) (*Engine, error) {
	resolver := NewResolver(store, cfg.MaxRoleDepth, log)
	cache, err := NewDecisionCache(cfg.DecisionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("decision cache: %w", err)
	}
	return &Engine{
		aggregator: NewAggregator(store, resolver, log),
		evaluator:  NewPolicyEvaluator(log),
		cache:      cache,
		log:        log,
		now:        time.Now,
	}, nil
}

// grants returns the effective grant set for the pair, consulting the
// decision cache. The vector walk runs on every call; it is the cache key,
// so correctness never depends on invalidation messages arriving. A cached
// set past its NotAfter deadline is recomputed even on a hash hit, since
// assignment expiry is a clock event no version bump announces.
func (e *Engine) grants(ctx context.Context, userID, workspaceID primitive.ObjectID) (*GrantSet, error) {
	vec, err := e.aggregator.Vector(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	hash := vec.Hash()

	if set, ok := e.cache.Get(userID, workspaceID, hash); ok {
		if set.NotAfter.IsZero() || e.now().Before(set.NotAfter) {
			return set, nil
		}
	}

	set, err := e.aggregator.Aggregate(ctx, userID, workspaceID)
	if err != nil {
		return nil, err
	}
	e.cache.Put(userID, workspaceID, set.Vector.Hash(), set)
	return set, nil
}

// HasCapability answers a full authorization question: policies are
// evaluated first (a matching deny wins, a matching allow suffices on its
// own), and when none applies the flat permission union decides.
func (e *Engine) HasCapability(ctx context.Context, userID, workspaceID primitive.ObjectID, permission string, in CheckInput) bool {
	set, err := e.grants(ctx, userID, workspaceID)
	if err != nil {
		e.log.Error("authorization check failed closed",
			zap.String("userId", userID.Hex()),
			zap.String("workspaceId", workspaceID.Hex()),
			zap.String("permission", permission),
			zap.Error(err))
		return false
	}
	return e.decide(set, permission, in)
}

func (e *Engine) decide(set *GrantSet, permission string, in CheckInput) bool {
	if set.SuperAdmin {
		return true
	}
	if in.SubjectAttrs == nil {
		in.SubjectAttrs = set.SubjectAttrs
	}

	switch e.evaluator.Evaluate(set.Policies, in) {
	case DecisionDeny:
		return false
	case DecisionAllow:
		return true
	default:
		return set.Has(permission)
	}
}

// CanAny reports whether at least one of the checks would pass. All checks
// share one grant-set resolution.
func (e *Engine) CanAny(ctx context.Context, userID, workspaceID primitive.ObjectID, checks []PermissionCheck) bool {
	set, err := e.grants(ctx, userID, workspaceID)
	if err != nil {
		e.log.Error("authorization batch failed closed", zap.String("userId", userID.Hex()), zap.Error(err))
		return false
	}
	for _, c := range checks {
		if e.decide(set, c.Permission, c.Input) {
			return true
		}
	}
	return false
}

// CanAll reports whether every check would pass. An empty list is
// vacuously true.
func (e *Engine) CanAll(ctx context.Context, userID, workspaceID primitive.ObjectID, checks []PermissionCheck) bool {
	set, err := e.grants(ctx, userID, workspaceID)
	if err != nil {
		e.log.Error("authorization batch failed closed", zap.String("userId", userID.Hex()), zap.Error(err))
		return false
	}
	for _, c := range checks {
		if !e.decide(set, c.Permission, c.Input) {
			return false
		}
	}
	return true
}

// PermissionCheck is one entry of a batch capability query.
type PermissionCheck struct {
	Permission string
	Input      CheckInput
}

// Can answers the flat-key form used by UI gating: it consults the
// permission union only, with "resource:action" as the key, skipping
// policy evaluation. Super-admin still answers true.
func (e *Engine) Can(ctx context.Context, userID, workspaceID primitive.ObjectID, permission string) bool {
	set, err := e.grants(ctx, userID, workspaceID)
	if err != nil {
		e.log.Error("permission check failed closed", zap.String("userId", userID.Hex()), zap.String("permission", permission), zap.Error(err))
		return false
	}
	return set.Has(permission)
}

// Grants exposes the full effective grant set, for the capability listing
// endpoint and the access review export.
func (e *Engine) Grants(ctx context.Context, userID, workspaceID primitive.ObjectID) (*GrantSet, error) {
	return e.grants(ctx, userID, workspaceID)
}

// CurrentVersionVector recomputes the pair's vector without touching the
// cache. Sessions embed its hash to detect stale tokens.
func (e *Engine) CurrentVersionVector(ctx context.Context, userID, workspaceID primitive.ObjectID) (VersionVector, error) {
	return e.aggregator.Vector(ctx, userID, workspaceID)
}

// CacheStats reports decision cache effectiveness for the maintenance loop.
func (e *Engine) CacheStats() CacheStats {
	return e.cache.Stats()
}
