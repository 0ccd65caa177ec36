// Package access gates registry mutation to a single administrator
// principal. The administrator is fixed at construction; rotation is
// deliberately not supported.
package access

import (
	"custody-ledger/internal/domain"
)

// Controller checks callers against the administrator principal.
type Controller struct {
	admin domain.Principal
}

// NewController creates a controller for the given administrator.
func NewController(admin domain.Principal) *Controller {
	return &Controller{admin: admin}
}

// Require returns ErrNotAuthorized unless caller is the administrator.
// It must be evaluated before any registry side effect.
func (c *Controller) Require(caller domain.Principal) error {
	if caller != c.admin {
		return domain.ErrNotAuthorized
	}
	return nil
}

// Admin returns the administrator principal.
func (c *Controller) Admin() domain.Principal {
	return c.admin
}
