package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"kvgportal/internal/auth"
)

const (
	// AdminCookie carries the dashboard session.
	AdminCookie = "kvg_admin"
	// ApplicantCookie carries the onboarding session handed out on applicant creation.
	ApplicantCookie = "kvg_applicant"

	claimsLocalKey = "auth_claims"
)

var cookieForRole = map[string]string{
	auth.RoleAdmin:     AdminCookie,
	auth.RoleApplicant: ApplicantCookie,
}

// RequireRole rejects requests without a valid token for one of roles.
// The token is read from "Authorization: Bearer" first, then from the role cookies.
func RequireRole(tokens *auth.Tokens, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		for _, raw := range candidateTokens(c, roles) {
			claims, err := tokens.Parse(raw)
			if err != nil {
				continue
			}
			for _, r := range roles {
				if claims.Role == r {
					c.Locals(claimsLocalKey, claims)
					return c.Next()
				}
			}
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
}

func candidateTokens(c *fiber.Ctx, roles []string) []string {
	var out []string
	if h := c.Get(fiber.HeaderAuthorization); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		out = append(out, strings.TrimSpace(h[7:]))
	}
	for _, r := range roles {
		if name, ok := cookieForRole[r]; ok {
			if v := c.Cookies(name); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// Claims returns the claims stored by RequireRole, or nil.
func Claims(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(claimsLocalKey).(*auth.Claims)
	return claims
}

// OwnApplicant lets admins through and restricts applicants to the record
// named by the route parameter param. Must run after RequireRole.
func OwnApplicant(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := Claims(c)
		if claims == nil {
			return fiber.NewError(fiber.StatusUnauthorized, "authentication required")
		}
		if claims.Role == auth.RoleAdmin || claims.Subject == c.Params(param) {
			return c.Next()
		}
		return fiber.NewError(fiber.StatusForbidden, "not your applicant record")
	}
}
