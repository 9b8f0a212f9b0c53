package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/storefront-service/internal/domain"
	"github.com/spec-kit/storefront-service/internal/observability"
	apperrors "github.com/spec-kit/storefront-service/pkg/util"
)

// SessionCookieName is the fixed cookie carrying the access token.
const SessionCookieName = "storefront_session"

const principalKey = "auth_principal"

// rejectionMessage is deliberately uniform: the response never reveals
// whether the failure was a missing token, a bad token or an unknown user.
const rejectionMessage = "authentication required"

// Middleware validates bearer credentials and loads the caller's identity.
type Middleware struct {
	sessions *SessionManager
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewMiddleware constructs the authentication middleware.
func NewMiddleware(sessions *SessionManager, logger *zap.Logger, metrics *observability.Metrics) *Middleware {
	return &Middleware{sessions: sessions, logger: logger, metrics: metrics}
}

// Handle enforces authentication for protected routes. Validation runs
// strictly before the wrapped handler; there is no fail-open path.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token := ExtractToken(c)
	if token == "" {
		return m.reject(c, "missing_credential")
	}

	user, err := m.sessions.Validate(c.UserContext(), token)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if user == nil {
		return m.reject(c, "invalid_credential")
	}

	c.Locals(principalKey, user)
	return c.Next()
}

func (m *Middleware) reject(c *fiber.Ctx, reason string) error {
	m.metrics.RecordAuthRejection(c.Path(), reason)
	m.logger.Warn("authentication rejected",
		zap.String("path", c.Path()),
		zap.String("reason", reason))
	return apperrors.NewUnauthorized(rejectionMessage)
}

// ExtractToken pulls the access token from the session cookie or the
// Authorization bearer header, preferring the cookie.
func ExtractToken(c *fiber.Ctx) string {
	if cookie := c.Cookies(SessionCookieName); cookie != "" {
		return cookie
	}

	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// UserFromContext retrieves the authenticated user.
func UserFromContext(c *fiber.Ctx) (*domain.User, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	user, ok := val.(*domain.User)
	return user, ok
}

// NewSessionCookie builds the session cookie for an issued access token.
func NewSessionCookie(token string, expiresAt time.Time, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// ClearSessionCookie builds an expired cookie. Logout is client-side only:
// clearing the cookie does not and cannot invalidate the token elsewhere.
func ClearSessionCookie(secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}
