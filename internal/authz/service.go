package authz

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements Authorizer against the role/permission store and
// verifies API-key credentials.
type Service struct {
	repo Repository
}

// NewService constructs the Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate resolves an API key of the form "<actor-id>.<secret>" to an
// actor. The secret is compared against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (Actor, error) {
	idPart, secret, ok := strings.Cut(apiKey, ".")
	if !ok {
		return Actor{}, ErrBadCredentials
	}
	actorID, err := uuid.Parse(idPart)
	if err != nil {
		return Actor{}, ErrBadCredentials
	}
	actor, err := s.repo.GetActor(ctx, actorID)
	if err != nil {
		return Actor{}, err
	}
	if !actor.IsActive {
		return Actor{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(actor.APIKeyHash, []byte(secret)); err != nil {
		return Actor{}, ErrBadCredentials
	}
	return actor, nil
}

// Authorize allows the operation only when the actor holds the permission.
func (s *Service) Authorize(ctx context.Context, actorID uuid.UUID, permission string) error {
	if actorID == uuid.Nil || permission == "" {
		return ErrDenied
	}
	granted, err := s.repo.EffectivePermissions(ctx, actorID)
	if err != nil {
		return err
	}
	for _, p := range granted {
		if p == permission {
			return nil
		}
	}
	return ErrDenied
}

// Static is an in-memory Authorizer for tests and local development.
type Static map[uuid.UUID][]string

// Authorize implements Authorizer.
func (s Static) Authorize(_ context.Context, actorID uuid.UUID, permission string) error {
	for _, p := range s[actorID] {
		if p == permission {
			return nil
		}
	}
	return ErrDenied
}

// AllowAll grants every permission. Development only; never wire it in
// production configuration.
type AllowAll struct{}

// Authorize implements Authorizer.
func (AllowAll) Authorize(context.Context, uuid.UUID, string) error { return nil }
