package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/config"
	"github.com/lumenlabs/brandflow/internal/models"
	"github.com/lumenlabs/brandflow/internal/service"
)

type stubProvider struct {
	text string
}

func (p *stubProvider) GenerateText(context.Context, string) (string, error) {
	return p.text, nil
}

func (p *stubProvider) GenerateImage(context.Context, string) (string, error) {
	return "data:image/jpeg;base64,stub", nil
}

func (p *stubProvider) GenerateVideo(context.Context, string, string) (string, error) {
	return "https://videos.example/stub.mp4", nil
}

func serverForTest(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Database:  config.DatabaseConfig{Type: "memory"},
		Auth:      config.AuthConfig{SessionTTL: "1h", UserID: "demo-user-123", UserName: "Demo User", UserEmail: "demo@example.com"},
		Scheduler: config.SchedulerConfig{SweepInterval: "30s"},
	}
	srv, err := NewServer(cfg, zap.NewNop())
	require.NoError(t, err)
	// Swap the provider for a stub so handler tests never reach the network.
	srv.Lifecycle = service.NewLifecycle(srv.Store, &stubProvider{text: "generated copy"}, zap.NewNop())
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, srv *Server) string {
	t.Helper()
	w := doJSON(t, srv, "POST", "/api/v1/auth/login", "", gin.H{"code": ""})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealth(t *testing.T) {
	srv := serverForTest(t)
	w := doJSON(t, srv, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	srv := serverForTest(t)
	w := doJSON(t, srv, "GET", "/api/v1/content", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContentReviewFlow(t *testing.T) {
	srv := serverForTest(t)
	token := login(t, srv)

	// Generate a text item.
	w := doJSON(t, srv, "POST", "/api/v1/content/generate", token, gin.H{
		"type": "text", "prompt": "launch post",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Items []models.ContentItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Items, 1)
	item := created.Items[0]
	assert.Equal(t, models.StatusPending, item.Status)
	assert.Equal(t, "generated copy", item.Data)

	// Approve it.
	w = doJSON(t, srv, "PATCH", "/api/v1/content/"+item.ID+"/status", token, gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code)

	// A past schedule time is rejected.
	past := time.Now().Add(-time.Hour).Format(time.RFC3339)
	w = doJSON(t, srv, "PATCH", "/api/v1/content/"+item.ID+"/schedule", token, gin.H{"schedule": past})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A future schedule time sticks.
	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	w = doJSON(t, srv, "PATCH", "/api/v1/content/"+item.ID+"/schedule", token, gin.H{"schedule": future})
	require.Equal(t, http.StatusOK, w.Code)
	var scheduled models.ContentItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scheduled))
	assert.Equal(t, models.StatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.Schedule)

	// Scheduled items cannot be deleted.
	w = doJSON(t, srv, "DELETE", "/api/v1/content/"+item.ID, token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	srv := serverForTest(t)
	token := login(t, srv)

	w := doJSON(t, srv, "POST", "/api/v1/content/generate", token, gin.H{"type": "text", "prompt": "p"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Items []models.ContentItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	item := created.Items[0]

	w = doJSON(t, srv, "PATCH", "/api/v1/content/"+item.ID+"/status", token, gin.H{"status": "rejected"})
	require.Equal(t, http.StatusOK, w.Code)

	// rejected -> approved is not in the table.
	w = doJSON(t, srv, "PATCH", "/api/v1/content/"+item.ID+"/status", token, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Delete from rejected is allowed.
	w = doJSON(t, srv, "DELETE", "/api/v1/content/"+item.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownItemIs404(t *testing.T) {
	srv := serverForTest(t)
	token := login(t, srv)

	w := doJSON(t, srv, "PATCH", "/api/v1/content/nope/status", token, gin.H{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestImageLibrary(t *testing.T) {
	srv := serverForTest(t)
	token := login(t, srv)

	w := doJSON(t, srv, "POST", "/api/v1/images", token, gin.H{
		"name": "logo.png", "url": "gcs://images/logo.png",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var image models.UserImage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &image))
	require.NotEmpty(t, image.ID)

	w = doJSON(t, srv, "GET", "/api/v1/images", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed struct {
		Images []models.UserImage `json:"images"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed.Images, 1)

	w = doJSON(t, srv, "DELETE", "/api/v1/images/"+image.ID, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, "DELETE", "/api/v1/images/"+image.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBrandContextRoundTrip(t *testing.T) {
	srv := serverForTest(t)
	token := login(t, srv)

	w := doJSON(t, srv, "GET", "/api/v1/data/context", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var uc models.UserContext
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uc))
	assert.Empty(t, uc.Notes)

	w = doJSON(t, srv, "POST", "/api/v1/data/context", token, gin.H{
		"notes": "We launch the eco line next month.",
		"links": "https://example.com/post-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, "GET", "/api/v1/data/context", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &uc))
	assert.Equal(t, "We launch the eco line next month.", uc.Notes)
	assert.Equal(t, "https://example.com/post-1", uc.Links)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv := serverForTest(t)
	token := login(t, srv)

	w := doJSON(t, srv, "POST", "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, srv, "GET", "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
