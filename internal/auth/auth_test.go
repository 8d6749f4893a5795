package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "classattend"
)

func TestIssueAndParse(t *testing.T) {
	token, exp, err := Issue(Claims{Subject: "u-1", Role: RoleFaculty, FacultyID: 501}, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := Parse(token, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, RoleFaculty, claims.Role)
	assert.Equal(t, int64(501), claims.FacultyID)
}

func TestParseRejects(t *testing.T) {
	good, _, err := Issue(Claims{Subject: "u-1", Role: RoleCR}, testIssuer, testKey, time.Hour)
	require.NoError(t, err)
	expired, _, err := Issue(Claims{Subject: "u-1"}, testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	anonymous, _, err := Issue(Claims{}, testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	_, err = Parse(good, "other-key", testIssuer)
	assert.Error(t, err, "wrong key")
	_, err = Parse(good, testKey, "someone-else")
	assert.Error(t, err, "wrong issuer")
	_, err = Parse(expired, testKey, testIssuer)
	assert.Error(t, err, "expired")
	_, err = Parse(anonymous, testKey, testIssuer)
	assert.Error(t, err, "no subject")
}

func TestAuthenticate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Authenticate(testKey, testIssuer), func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"sub": claims.Subject, "role": claims.Role})
	})

	token, _, err := Issue(Claims{Subject: "u-7", Role: RoleAdmin}, testIssuer, testKey, time.Hour)
	require.NoError(t, err)

	cases := map[string]struct {
		header string
		status int
	}{
		"no header":    {"", http.StatusUnauthorized},
		"not bearer":   {"Basic abc", http.StatusUnauthorized},
		"bad token":    {"Bearer nope", http.StatusUnauthorized},
		"valid token":  {"Bearer " + token, http.StatusOK},
		"lower bearer": {"bearer " + token, http.StatusOK},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestClaimsFromWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := ClaimsFrom(c)
	assert.False(t, ok)
}
