package auth

import (
	"context"
	"log"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/models"
)

// TokenVerifier validates a bearer credential with the identity service
// and returns the verified subject id.
type TokenVerifier interface {
	VerifyToken(token string) (subjectID string, err error)
}

// ProfileStore loads stored account profiles. Read-only from the
// verifier's point of view except for the last-access stamp.
type ProfileStore interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	TouchLastAccess(ctx context.Context, id string) error
}

// Verifier turns a bearer credential into a verified Identity: token
// check, profile load, active check.
type Verifier struct {
	tokens   TokenVerifier
	profiles ProfileStore

	// StampLastAccess enables the fire-and-forget last-access write. It
	// is never a correctness dependency; failures are only logged.
	StampLastAccess bool
}

func NewVerifier(tokens TokenVerifier, profiles ProfileStore) *Verifier {
	return &Verifier{
		tokens:   tokens,
		profiles: profiles,
	}
}

// Verify resolves a bearer credential to an Identity or a typed denial.
func (v *Verifier) Verify(ctx context.Context, credential string) (models.Identity, error) {
	if credential == "" {
		return models.Identity{}, apperrors.E(apperrors.KindUnauthenticated, "missing_token")
	}

	subject, err := v.tokens.VerifyToken(credential)
	if err != nil {
		return models.Identity{}, apperrors.Wrap(apperrors.KindUnauthenticated, "invalid_token", err)
	}

	profile, err := v.profiles.GetProfile(ctx, subject)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindNotFound {
			return models.Identity{}, apperrors.Wrap(apperrors.KindNotFound, "profile_not_found", err)
		}
		return models.Identity{}, apperrors.Wrap(apperrors.KindUnavailable, "profile_store_unreachable", err)
	}

	if !profile.Active {
		return models.Identity{}, apperrors.E(apperrors.KindForbidden, "account_inactive")
	}

	if v.StampLastAccess {
		go func(id string) {
			if err := v.profiles.TouchLastAccess(context.Background(), id); err != nil {
				log.Printf("last-access stamp failed for %s: %v", id, err)
			}
		}(profile.ID)
	}

	return profile.Identity(), nil
}
