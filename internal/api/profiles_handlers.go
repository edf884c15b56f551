package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docport-io/docport/internal/access"
	"github.com/docport-io/docport/internal/models"
)

// ProfileManager is the slice of the profile store the deletion endpoint
// needs.
type ProfileManager interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	Delete(ctx context.Context, id string) error
}

// ProfileHandlers exposes the profile deletion path with its safeguards
// (last-admin protection, no self-deletion).
type ProfileHandlers struct {
	router   *access.Router
	profiles ProfileManager
	debug    bool
}

func NewProfileHandlers(router *access.Router, profiles ProfileManager, debug bool) *ProfileHandlers {
	return &ProfileHandlers{
		router:   router,
		profiles: profiles,
		debug:    debug,
	}
}

// HandleDelete serves DELETE /profiles/:id.
func (h *ProfileHandlers) HandleDelete(c *gin.Context) {
	identity, ok := identityOrFail(c, h.debug)
	if !ok {
		return
	}

	target, err := h.profiles.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}

	if err := h.router.AuthorizeProfileDelete(c.Request.Context(), identity, target); err != nil {
		respondError(c, err, h.debug)
		return
	}

	if err := h.profiles.Delete(c.Request.Context(), target.ID); err != nil {
		respondError(c, storeErr(err), h.debug)
		return
	}

	c.Status(http.StatusNoContent)
}
