package share

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedDownloadEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	repo := newFakeShareCatalog()
	objects := newFakeShareObjects()
	service := NewService(repo, objects, "http://localhost:8080", 0)

	ownerID := uuid.New()
	payload := []byte("public document body")
	rec := repo.add(ownerID, "public.txt", payload)
	rec.MimeType = "text/plain; charset=utf-8"
	repo.records[rec.ID] = rec
	objects.blobs[rec.StoragePath] = payload

	link, err := service.Create(context.Background(), ownerID, rec.ID)
	require.NoError(t, err)

	router := gin.New()
	RegisterPublicRoutes(router, service)

	// Two anonymous downloads, each bumping the counter exactly once.
	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shared/"+link.Token, nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, payload, w.Body.Bytes())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "public.txt")
	}
	assert.Equal(t, int64(2), repo.records[rec.ID].DownloadCount)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/shared/bogus-token", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, int64(2), repo.records[rec.ID].DownloadCount)
}
