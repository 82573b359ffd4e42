// Package permission decides whether a caller may use a wiki.
package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/folio/pkg/storage"
)

// ErrForbidden is returned when the caller is not allowed to use the wiki.
var ErrForbidden = errors.New("caller may not access wiki")

// Checker authorizes a caller for a wiki.
type Checker interface {
	// CanAccess returns nil when callerID may use wikiID, ErrForbidden when
	// it may not, and a storage.NotFoundError when the wiki does not exist.
	CanAccess(ctx context.Context, wikiID, callerID string) error
}

// MembershipChecker allows wiki members only.
type MembershipChecker struct {
	store storage.Driver
}

// NewMembershipChecker creates a checker backed by the wiki's member list.
func NewMembershipChecker(store storage.Driver) *MembershipChecker {
	return &MembershipChecker{store: store}
}

func (c *MembershipChecker) CanAccess(ctx context.Context, wikiID, callerID string) error {
	wiki, err := c.store.GetWiki(ctx, wikiID)
	if err != nil {
		return err
	}
	if callerID == "" || !wiki.HasMember(callerID) {
		return fmt.Errorf("%w: %s", ErrForbidden, wikiID)
	}
	return nil
}

// AllowAll lets every caller through. Used when the API runs without
// caller identification.
type AllowAll struct{}

func (AllowAll) CanAccess(context.Context, string, string) error {
	return nil
}
