package authz

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound indicates a referenced entity is missing from the store. It is
// propagated to the engine boundary (never converted into a silent grant or
// denial) where it fails closed and is logged for operators.
var ErrNotFound = errors.New("authz: not found")

// CycleError is a fatal configuration fault in the role inheritance forest.
// Resolution through the offending role yields zero permissions; other roles
// and other users are unaffected. DepthExceeded marks chains that ran past
// the depth guard, which is treated identically: a chain that long is
// indistinguishable from a cycle and must not be silently truncated.
type CycleError struct {
	RoleID        primitive.ObjectID
	Chain         []primitive.ObjectID
	DepthExceeded bool
}

func (e *CycleError) Error() string {
	if e.DepthExceeded {
		return fmt.Sprintf("authz: role %s inheritance chain exceeds depth guard (%d roles walked)", e.RoleID.Hex(), len(e.Chain))
	}
	return fmt.Sprintf("authz: cycle detected in role inheritance starting at %s", e.RoleID.Hex())
}
