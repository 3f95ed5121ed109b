package middleware

import (
	"errors"
	"net/http"
	"strings"

	"homequote/pkg"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
)

const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

var (
	errUnauthorized = pkg.NewDomainErrorSimple("UNAUTHORIZED", "Missing or invalid bearer token", http.StatusUnauthorized)
	errWrongRole    = pkg.NewDomainErrorSimple("FORBIDDEN", "Role not allowed for this operation", http.StatusForbidden)
)

// Claims identifies the caller. The user id travels in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// WithAuthCheck validates the bearer token and, when roles are given, requires
// the caller to hold one of them. The user id and role are stored in the gin
// context under ContextUserID and ContextUserRole.
func (am *AuthMiddleware) WithAuthCheck(roles ...Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
			return
		}

		claims, err := am.parse(strings.TrimSpace(raw))
		if err != nil || strings.TrimSpace(claims.Subject) == "" {
			log.Debugf("[auth][middleware] rejected token err=%v", err)
			c.AbortWithStatusJSON(errUnauthorized.HTTPStatus, errUnauthorized.ToHTTPError())
			return
		}

		if len(roles) > 0 && !hasRole(claims.Role, roles) {
			c.AbortWithStatusJSON(errWrongRole.HTTPStatus, errWrongRole.ToHTTPError())
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserRole, claims.Role)
		c.Next()
	}
}

// IssueToken signs a token for the given user. Used by tests and local tooling;
// credential handling lives in the identity service.
func (am *AuthMiddleware) IssueToken(userID string, role Role, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = userID
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: claims, Role: role}).SignedString(am.secret)
}

func (am *AuthMiddleware) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return am.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func hasRole(role Role, allowed []Role) bool {
	for _, r := range allowed {
		if role == r {
			return true
		}
	}
	return false
}

// UserID returns the authenticated caller id set by WithAuthCheck.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
