package sheikh

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/loo7/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("sheikh not found")
	ErrInvalidToken = core.NewValidationError(errors.New("invalid google id token"), core.FieldError{Field: "idToken", Error: "invalid google id token"})
)

type (
	Repository interface {
		GetSheikh(ctx context.Context, id string) (Sheikh, error)
		GetSheikhByGoogleID(ctx context.Context, googleID string) (Sheikh, error)
		QuerySheikhs(ctx context.Context) ([]Sheikh, error)
		CreateSheikh(ctx context.Context, s Sheikh) (Sheikh, error)
		UpdateSheikh(ctx context.Context, s Sheikh) (Sheikh, error)
	}

	// TokenVerifier verifies Google sign-in ID tokens.
	TokenVerifier interface {
		Verify(ctx context.Context, idToken string) (GoogleIdentity, error)
	}

	Service interface {
		LoginWithGoogle(ctx context.Context, idToken string) (Sheikh, error)
		GetByID(ctx context.Context, id string) (Sheikh, error)
		QueryAll(ctx context.Context) ([]Sheikh, error)
		EnsureExists(ctx context.Context, id, name string) (Sheikh, error)
	}

	service struct {
		repo     Repository
		verifier TokenVerifier
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, verifier TokenVerifier) Service {
	return &service{repo: repo, verifier: verifier}
}

// LoginWithGoogle verifies idToken and returns the matching sheikh, creating it on first login.
func (svc *service) LoginWithGoogle(ctx context.Context, idToken string) (Sheikh, error) {
	if svc.verifier == nil {
		return Sheikh{}, errors.New("google login is not configured")
	}
	ident, err := svc.verifier.Verify(ctx, idToken)
	if err != nil {
		return Sheikh{}, ErrInvalidToken
	}

	now := core.NowFunc().UTC()
	var picture *string
	if ident.Picture != "" {
		picture = &ident.Picture
	}

	s, err := svc.repo.GetSheikhByGoogleID(ctx, ident.Subject)
	switch {
	case err == nil:
		s.Email = core.CleanString(ident.Email, true /* lower */)
		s.Name = core.CleanString(ident.Name)
		s.ProfileImageURL = picture
		s.UpdatedAt = now
		s, err = svc.repo.UpdateSheikh(ctx, s)
		return s, errors.Wrap(err, "updating sheikh")
	case core.IsNotFound(err):
		s, err = svc.repo.CreateSheikh(ctx, Sheikh{
			ID:              uuid.NewString(),
			GoogleID:        ident.Subject,
			Email:           core.CleanString(ident.Email, true /* lower */),
			Name:            core.CleanString(ident.Name),
			ProfileImageURL: picture,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
		return s, errors.Wrap(err, "creating sheikh")
	default:
		return Sheikh{}, errors.Wrap(err, "finding sheikh by google id")
	}
}

func (svc *service) GetByID(ctx context.Context, id string) (Sheikh, error) {
	return svc.repo.GetSheikh(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Sheikh, error) {
	return svc.repo.QuerySheikhs(ctx)
}

// EnsureExists returns the sheikh with id, creating a local account when missing.
// Used for the default owner when authentication is disabled.
func (svc *service) EnsureExists(ctx context.Context, id, name string) (Sheikh, error) {
	s, err := svc.repo.GetSheikh(ctx, id)
	if err == nil || !core.IsNotFound(err) {
		return s, err
	}
	now := core.NowFunc().UTC()
	return svc.repo.CreateSheikh(ctx, Sheikh{
		ID:        id,
		GoogleID:  "local:" + id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
