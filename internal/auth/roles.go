package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/helpme/helpdesk-service/internal/domain"
	"github.com/helpme/helpdesk-service/internal/policy"
	apperrors "github.com/helpme/helpdesk-service/pkg/util"
)

// RequireRole gates a route on the allowed roles. The check goes through
// the policy engine so the superadmin wildcard applies uniformly.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, ok := IdentityFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !policy.HasRole(identity.Principal, allowed...) {
			return apperrors.NewForbidden("you do not have access to this resource")
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a caller is present without a role gate.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := IdentityFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
