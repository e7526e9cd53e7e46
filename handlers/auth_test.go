package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/finsim/auth-service/internal/config"
	"github.com/finsim/auth-service/internal/signing"
	"github.com/finsim/auth-service/internal/tokens"
	"github.com/finsim/auth-service/internal/tokenstore"
)

type testServer struct {
	router *gin.Engine
	redis  *mr.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	repo := tokenstore.NewRedisRepository(client, "")
	signer, err := signing.NewFromSecret("handler-test-secret-32-bytes-xxxx")
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Token.Mode = config.ModeJWT
	cfg.Token.Lifetime = time.Hour

	issuer := tokens.NewIssuer(repo, signer, cfg.Token.Mode, cfg.Token.Lifetime)
	verifier := tokens.NewVerifier(repo, signer, cfg.Token.Mode)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewAuthHandler(cfg, issuer, verifier).Register(r.Group("/"))
	RegisterStatus(r)

	return &testServer{router: r, redis: m}
}

func (s *testServer) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createToken(t *testing.T, userID, ip, sessionType string) string {
	t.Helper()
	w := s.post(t, "/auth/token", gin.H{"userId": userID, "ipAddress": ip, "sessionType": sessionType})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestCreateToken_Validation(t *testing.T) {
	s := newTestServer(t)

	w := s.post(t, "/auth/token", gin.H{"ipAddress": "1.2.3.4"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateToken_DefaultsToClientIP(t *testing.T) {
	s := newTestServer(t)

	b, _ := json.Marshal(gin.H{"userId": "u1", "sessionType": "web"})
	req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:4242"
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	vw := s.post(t, "/auth/verify", gin.H{"token": resp.Token})
	require.Equal(t, http.StatusOK, vw.Code)
	var verify VerifyTokenResponse
	require.NoError(t, json.Unmarshal(vw.Body.Bytes(), &verify))
	require.Equal(t, "203.0.113.7", verify.IPAddress)
}

func TestTokenLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	t1 := s.createToken(t, "u1", "1.2.3.4", "web")

	// identical tuple returns the same token
	t1again := s.createToken(t, "u1", "1.2.3.4", "web")
	require.Equal(t, t1, t1again)

	// different device yields a distinct token
	t2 := s.createToken(t, "u1", "9.9.9.9", "mobile")
	require.NotEqual(t, t1, t2)

	// verify returns the rich shape
	w := s.post(t, "/auth/verify", gin.H{"token": t1})
	require.Equal(t, http.StatusOK, w.Code)
	var verify VerifyTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verify))
	require.True(t, verify.Valid)
	require.Equal(t, "u1", verify.UserID)
	require.Equal(t, "1.2.3.4", verify.IPAddress)
	require.Equal(t, "web", verify.SessionType)

	// revoke, then verification is denied
	rw := s.post(t, "/auth/revoke", gin.H{"token": t1})
	require.Equal(t, http.StatusOK, rw.Code)

	dw := s.post(t, "/auth/verify", gin.H{"token": t1})
	require.Equal(t, http.StatusUnauthorized, dw.Code)
	var denied VerifyTokenResponse
	require.NoError(t, json.Unmarshal(dw.Body.Bytes(), &denied))
	require.False(t, denied.Valid)
	require.Equal(t, tokens.ReasonRevokedOrExpired, denied.Reason)

	// the other device's token is untouched
	ow := s.post(t, "/auth/verify", gin.H{"token": t2})
	require.Equal(t, http.StatusOK, ow.Code)
}

func TestVerifyToken_Garbage(t *testing.T) {
	s := newTestServer(t)

	w := s.post(t, "/auth/verify", gin.H{"token": "not.a.jwt"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	var resp VerifyTokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, tokens.ReasonBadSignature, resp.Reason)
}

func TestVerifyToken_StoreDownReturns503(t *testing.T) {
	s := newTestServer(t)
	token := s.createToken(t, "u1", "1.2.3.4", "web")

	s.redis.Close()

	w := s.post(t, "/auth/verify", gin.H{"token": token})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/utils/status", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}
