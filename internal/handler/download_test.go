package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/handler/middleware"
	"github.com/scosmb/license-console/internal/service"
	"github.com/scosmb/license-console/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type downloadTestEnv struct {
	router  *gin.Engine
	keyRepo *memstorage.KeyRepository
}

func newDownloadTestEnv(t *testing.T) *downloadTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	keyRepo := memstorage.NewKeyRepository()
	downloadSvc := service.NewDownloadService(keyRepo, memstorage.NewSettingsRepository(), memstorage.NewGrantStore(), 15*time.Minute, zap.NewNop())

	router := gin.New()
	router.Use(middleware.ErrorHandlerMiddleware(zap.NewNop()))
	downloadHandler := NewDownloadHandler(downloadSvc, zap.NewNop())
	router.POST("/api/v1/download", downloadHandler.Attempt)
	router.GET("/api/v1/download/:token", downloadHandler.Redeem)

	return &downloadTestEnv{router: router, keyRepo: keyRepo}
}

func (e *downloadTestEnv) attempt(t *testing.T, keyCode string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(dto.DownloadRequest{KeyCode: keyCode})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/download", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestDownloadEndpointGrantsAndDenies(t *testing.T) {
	env := newDownloadTestEnv(t)

	k := &key.Key{KeyCode: "SCO-TEST-TEST-TEST", Status: key.StatusUnused, MaxDownloads: 1}
	require.NoError(t, env.keyRepo.CreateBatch(context.Background(), []*key.Key{k}))

	w := env.attempt(t, k.KeyCode)
	require.Equal(t, http.StatusOK, w.Code)

	var grant dto.DownloadGrantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))
	assert.NotEmpty(t, grant.Token)
	assert.Equal(t, 0, grant.DownloadsRemaining)

	// Quota is spent; the next attempt is rejected with a typed error.
	w = env.attempt(t, k.KeyCode)
	require.Equal(t, http.StatusForbidden, w.Code)

	var errResp dto.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "QUOTA_EXCEEDED", errResp.Code)
}

func TestDownloadEndpointUnknownKey(t *testing.T) {
	env := newDownloadTestEnv(t)

	w := env.attempt(t, "SCO-NONE-NONE-NONE")
	require.Equal(t, http.StatusNotFound, w.Code)

	var errResp dto.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}

func TestDownloadEndpointMissingKeyCode(t *testing.T) {
	env := newDownloadTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/download", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadEndpointMalformedBody(t *testing.T) {
	env := newDownloadTestEnv(t)

	// A truncated body and an empty body are both the caller's fault, never
	// an internal error.
	for _, body := range []string{`{"key_code": `, ``} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/download", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)

		var errResp dto.APIErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
		assert.Equal(t, "INVALID_REQUEST", errResp.Code)
	}
}

func TestDownloadEndpointRedeemGrant(t *testing.T) {
	env := newDownloadTestEnv(t)

	k := &key.Key{KeyCode: "SCO-REDE-EMED-GRNT", Status: key.StatusUnused, MaxDownloads: 3}
	require.NoError(t, env.keyRepo.CreateBatch(context.Background(), []*key.Key{k}))

	w := env.attempt(t, k.KeyCode)
	require.Equal(t, http.StatusOK, w.Code)

	var grant dto.DownloadGrantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &grant))
	require.NotEmpty(t, grant.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/"+grant.Token, nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var redeemed dto.RedeemGrantResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &redeemed))
	assert.Equal(t, grant.Token, redeemed.Token)
	assert.Equal(t, k.KeyCode, redeemed.KeyCode)
}

func TestDownloadEndpointRedeemUnknownToken(t *testing.T) {
	env := newDownloadTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/download/NOSUCHTOKEN", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)

	var errResp dto.APIErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "NOT_FOUND", errResp.Code)
}
