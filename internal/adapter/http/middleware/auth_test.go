package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newAuthRouter(am *AuthMiddleware, roles ...Role) *gin.Engine {
	r := gin.New()
	r.GET("/whoami", am.WithAuthCheck(roles...), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestAuthMiddleware_WithAuthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware("s3cret")

	clientToken, err := am.IssueToken("c1", RoleClient, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	expired, _ := am.IssueToken("c1", RoleClient, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))})
	foreign, _ := NewAuthMiddleware("other").IssueToken("c1", RoleClient, jwt.RegisteredClaims{})
	anonymous, _ := am.IssueToken("", RoleClient, jwt.RegisteredClaims{})

	cases := []struct {
		name   string
		header string
		roles  []Role
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", want: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, want: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + foreign, want: http.StatusUnauthorized},
		{name: "no subject", header: "Bearer " + anonymous, want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + clientToken, roles: []Role{RoleProvider}, want: http.StatusForbidden},
		{name: "allowed role", header: "Bearer " + clientToken, roles: []Role{RoleClient}, want: http.StatusOK},
		{name: "any role", header: "Bearer " + clientToken, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter(am, tc.roles...).ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if tc.want == http.StatusOK && w.Body.String() != "c1" {
				t.Fatalf("expected user id c1, got %q", w.Body.String())
			}
		})
	}
}
