package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	key    = "test-key"
	issuer = "rollcall"
)

func TestIssueParse(t *testing.T) {
	now := time.Now()
	tok, err := Issue("alice", RoleAdmin, issuer, key, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)

	claims, err := Parse(tok.AccessToken, key, issuer)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)

	_, err = Parse(tok.AccessToken, "other-key", issuer)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = Parse(tok.AccessToken, key, "someone-else")
	assert.True(t, errors.Is(err, ErrIssuerMismatch))
}

func TestIssue_Errors(t *testing.T) {
	_, err := Issue("alice", "root", issuer, key, time.Hour, time.Now())
	assert.True(t, errors.Is(err, ErrUnknownRole))

	_, err = Issue("alice", RoleAdmin, issuer, "", time.Hour, time.Now())
	assert.Error(t, err)
}

func TestParse_Expired(t *testing.T) {
	tok, err := Issue("alice", RoleAdmin, issuer, key, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	_, err = Parse(tok.AccessToken, key, issuer)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestRequireRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireRole(key, issuer, RoleAdmin), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.Subject)
	})

	admin, err := Issue("alice", RoleAdmin, issuer, key, time.Hour, time.Now())
	require.NoError(t, err)
	operator, err := Issue("bob", RoleOperator, issuer, key, time.Hour, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + operator.AccessToken, want: http.StatusForbidden},
		{name: "admin", header: "bearer " + admin.AccessToken, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "alice", w.Body.String())
			}
		})
	}
}
