package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pixelpost/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func signTestToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	str, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return str
}

func testClaims(userID uint, issuer, audience string, exp time.Duration) jwt.MapClaims {
	return jwt.MapClaims{
		"sub": strconv.FormatUint(uint64(userID), 10),
		"iss": issuer,
		"aud": audience,
		"exp": time.Now().Add(exp).Unix(),
		"jti": "test-jti-valid-length",
	}
}

func echoUserApp(s *Server, auth fiber.Handler, path string) *fiber.App {
	app := fiber.New()
	app.Get(path, auth, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": userID(c)})
	})
	return app
}

func TestServer_AuthRequired(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := echoUserApp(s, s.AuthRequired(), "/protected")

	tests := []struct {
		name           string
		authHeader     string
		tokenParam     string
		expectedStatus int
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + signTestToken(t, testClaims(123, tokenIssuer, tokenAudience, time.Hour)),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Valid Token via Query Param",
			tokenParam:     signTestToken(t, testClaims(123, tokenIssuer, tokenAudience, time.Hour)),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + signTestToken(t, testClaims(123, tokenIssuer, tokenAudience, -time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + signTestToken(t, testClaims(123, "wrong-issuer", tokenAudience, time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + signTestToken(t, testClaims(123, tokenIssuer, "wrong-audience", time.Hour)),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header and Param",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Numeric Subject",
			authHeader: "Bearer " + signTestToken(t, jwt.MapClaims{
				"sub": 123, "iss": tokenIssuer, "aud": tokenAudience, "exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Missing Expiry",
			authHeader: "Bearer " + signTestToken(t, jwt.MapClaims{
				"sub": "123", "iss": tokenIssuer, "aud": tokenAudience,
			}),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/protected"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(123), body["userID"])
			}
		})
	}
}

func TestServer_GeneratedTokenRoundTrip(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	token, err := s.generateToken(42, "ada")
	require.NoError(t, err)

	id, err := s.parseToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	_, err = (&Server{config: &config.Config{}}).generateToken(42, "ada")
	assert.Error(t, err)
}

func TestServer_AuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{config: &config.Config{JWTSecret: testSecret}, redis: rdb}
	app := echoUserApp(s, s.AuthRequired(), "/protected")

	claims := testClaims(5, tokenIssuer, tokenAudience, time.Hour)
	claims["jti"] = "revoked-jti"
	require.NoError(t, mr.Set("blacklist:revoked-jti", "1"))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, claims))
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Token has been revoked", body["error"])
}

func TestServer_OptionalAuth(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := echoUserApp(s, s.OptionalAuth(), "/feed")

	tests := []struct {
		name   string
		header string
		want   float64
	}{
		{"anonymous", "", 0},
		{"valid", "Bearer " + signTestToken(t, testClaims(9, tokenIssuer, tokenAudience, time.Hour)), 9},
		{"garbage is ignored", "Bearer not-a-jwt", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/feed", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.want, body["userID"])
		})
	}
}

func TestServer_WSTicket(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	s := &Server{config: &config.Config{JWTSecret: testSecret}, redis: rdb}
	app := fiber.New()
	app.Post("/api/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	app.Get("/api/ws", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": userID(c)})
	})

	token := signTestToken(t, testClaims(11, tokenIssuer, tokenAudience, time.Hour))
	req := httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var issued struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&issued))
	_ = resp.Body.Close()
	assert.Equal(t, 30, issued.ExpiresIn)
	assert.True(t, mr.Exists("ws_ticket:"+issued.Ticket))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?ticket="+issued.Ticket, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Tickets are single use.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?ticket="+issued.Ticket, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()

	// The query token fallback is not accepted on websocket paths.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?token="+token, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServer_WSTicket_NoRedis(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Post("/api/ws/ticket", s.IssueWSTicket)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
