package api

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/docport-io/docport/internal/apperrors"
	"github.com/docport-io/docport/internal/middleware"
	"github.com/docport-io/docport/internal/models"
)

// identityOrFail pulls the verified Identity out of the gin context; a
// missing one means the route was wired without the auth middleware.
func identityOrFail(c *gin.Context, debug bool) (models.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		respondError(c, apperrors.E(apperrors.KindUnauthenticated, "missing_identity"), debug)
		return models.Identity{}, false
	}
	return identity, true
}

// respondError writes the stable error envelope: a status code from the
// taxonomy plus a short machine-readable reason. Internal detail is only
// exposed when debug mode is on.
func respondError(c *gin.Context, err error, debug bool) {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindUnknown {
		log.Printf("unclassified error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}

	body := gin.H{
		"code":   kind.String(),
		"reason": apperrors.ReasonOf(err),
	}
	if debug {
		body["detail"] = err.Error()
	}
	c.JSON(kind.HTTPStatus(), gin.H{"error": body})
	c.Abort()
}

// storeErr classifies raw store failures as Unavailable; typed errors
// pass through untouched.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if apperrors.KindOf(err) == apperrors.KindUnknown {
		return apperrors.Wrap(apperrors.KindUnavailable, "store_unreachable", err)
	}
	return err
}
