// Package authz gates every mutating operation behind a role/permission
// check. The backend is pluggable; the default is deny: an unknown actor or
// a missing grant never passes.
package authz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atlas-erp/accounting/internal/shared"
)

// Permission names. Route wiring references these; grants live in the
// role_permissions table.
const (
	PermJournalRead  = "accounting.journal.read"
	PermJournalWrite = "accounting.journal.write"
	PermJournalPost  = "accounting.journal.post"

	PermFiscalRead  = "accounting.fiscal.read"
	PermFiscalWrite = "accounting.fiscal.write"
	PermFiscalClose = "accounting.fiscal.close"

	PermAccountsRead  = "accounting.accounts.read"
	PermAccountsWrite = "accounting.accounts.write"

	PermMasterDataRead  = "accounting.masterdata.read"
	PermMasterDataWrite = "accounting.masterdata.write"

	PermBudgetRead  = "accounting.budget.read"
	PermBudgetWrite = "accounting.budget.write"
)

var (
	// ErrDenied indicates the actor lacks the required permission.
	ErrDenied = fmt.Errorf("authz: permission denied: %w", shared.ErrForbidden)
	// ErrBadCredentials indicates a missing or unverifiable API key.
	ErrBadCredentials = fmt.Errorf("authz: invalid credentials: %w", shared.ErrUnauthorized)
)

// Authorizer answers yes/no for one actor and one permission. A nil error
// is an allow; ErrDenied (or a wrapped forbidden error) is a deny.
type Authorizer interface {
	Authorize(ctx context.Context, actorID uuid.UUID, permission string) error
}

// Actor is a service identity allowed to call the API.
type Actor struct {
	ID         uuid.UUID
	Name       string
	APIKeyHash []byte
	IsActive   bool
	CreatedAt  time.Time
}

// Role groups permissions.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
	CreatedAt   time.Time
}
