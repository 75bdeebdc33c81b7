package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/callwise/voice-scheduler/internal/domain"
	"github.com/callwise/voice-scheduler/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	SubjectID   string
}

// Middleware guards the two caller classes: dashboard operators carry bearer
// JWTs, the voice platform webhook carries a pre-shared API key.
type Middleware struct {
	tokens         *TokenManager
	webhookKeyHash string
}

// NewMiddleware constructs middleware. webhookKeyHash is the bcrypt hash of
// the key handed to the voice platform; empty disables webhook auth.
func NewMiddleware(tokens *TokenManager, webhookKeyHash string) *Middleware {
	return &Middleware{tokens: tokens, webhookKeyHash: webhookKeyHash}
}

// RequireOperator enforces a valid operator bearer token.
func (m *Middleware) RequireOperator(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return util.NewUnauthorized("invalid token")
	}
	if claims.Subject != domain.SubjectTypeOperator {
		return util.NewForbidden("operator access required")
	}

	c.Locals(principalKey, &Principal{SubjectType: claims.Subject, SubjectID: claims.SubjectID})
	return c.Next()
}

// RequireWebhookKey authenticates the voice platform by API key.
func (m *Middleware) RequireWebhookKey(c *fiber.Ctx) error {
	if m.webhookKeyHash == "" {
		return c.Next()
	}

	key := c.Get("X-API-Key")
	if key == "" {
		return util.NewUnauthorized("missing api key")
	}
	if err := ComparePassword(m.webhookKeyHash, key); err != nil {
		return util.NewUnauthorized("invalid api key")
	}

	c.Locals(principalKey, &Principal{SubjectType: domain.SubjectTypeService})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
