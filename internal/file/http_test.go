package file

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aslanbek/filevault/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(service *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/v1")
	group.Use(func(c *gin.Context) {
		auth.SetUser(c, auth.ContextUser{ID: userID})
		c.Next()
	})
	RegisterRoutes(group, service)
	return router
}

func multipartUpload(t *testing.T, filename, folder string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if folder != "" {
		require.NoError(t, writer.WriteField("folder", folder))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	service, _, _ := newTestService(1 << 20)
	userID := uuid.New()
	router := newTestRouter(service, userID)

	body, contentType := multipartUpload(t, "report.pdf", "work", []byte("pdf data"))
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "report.pdf", rec.OriginalName)
	assert.Equal(t, "work", rec.Folder)
	assert.Equal(t, int64(8), rec.SizeBytes)
	assert.False(t, rec.IsPublic)
	// Internal storage details never leak into responses.
	assert.NotContains(t, w.Body.String(), "stored_name")
	assert.NotContains(t, w.Body.String(), "storage_path")
}

func TestUploadEndpointRejectsBlockedExtension(t *testing.T) {
	service, _, _ := newTestService(1 << 20)
	router := newTestRouter(service, uuid.New())

	body, contentType := multipartUpload(t, "tool.exe", "", []byte("MZ"))
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestUploadEndpointQuotaExceeded(t *testing.T) {
	service, _, _ := newTestService(4)
	router := newTestRouter(service, uuid.New())

	body, contentType := multipartUpload(t, "big.txt", "", []byte("too big"))
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "quota")
}

func TestListEndpointFolderQuery(t *testing.T) {
	service, _, _ := newTestService(1 << 20)
	userID := uuid.New()
	router := newTestRouter(service, userID)

	upload := func(name, folder string) {
		body, contentType := multipartUpload(t, name, folder, []byte(name))
		req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	upload("report.pdf", "work")
	upload("notes.txt", "")

	fetch := func(target string) []Record {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Files []Record `json:"files"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Files
	}

	assert.Len(t, fetch("/v1/files"), 2)
	assert.Len(t, fetch("/v1/files?folder=work"), 1)

	// An explicitly empty folder query means the root, not "no filter".
	rootFiles := fetch("/v1/files?folder=")
	require.Len(t, rootFiles, 1)
	assert.Equal(t, "notes.txt", rootFiles[0].OriginalName)
}

func TestDownloadEndpointStreamsBytes(t *testing.T) {
	service, _, _ := newTestService(1 << 20)
	userID := uuid.New()
	router := newTestRouter(service, userID)

	payload := []byte("downloaded content")
	body, contentType := multipartUpload(t, "data.txt", "", payload)
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var rec Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files/"+rec.ID.String()+"/download", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, w.Body.Bytes())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "data.txt")
}

func TestDeleteEndpoint(t *testing.T) {
	service, repo, _ := newTestService(1 << 20)
	userID := uuid.New()
	router := newTestRouter(service, userID)

	body, contentType := multipartUpload(t, "temp.txt", "", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var rec Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/files/"+rec.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, repo.records)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/files/"+rec.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDashboardEndpoint(t *testing.T) {
	service, _, _ := newTestService(1 << 20)
	userID := uuid.New()
	router := newTestRouter(service, userID)

	body, contentType := multipartUpload(t, "report.pdf", "work", []byte("12345"))
	req := httptest.NewRequest(http.MethodPost, "/v1/files", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/dashboard", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var overview Overview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &overview))
	assert.Equal(t, int64(1), overview.TotalFiles)
	assert.Equal(t, int64(5), overview.UsedBytes)
	assert.Equal(t, int64(1<<20), overview.LimitBytes)
	assert.Equal(t, []string{"work"}, overview.Folders)
	require.Len(t, overview.RecentFiles, 1)
}

func TestEndpointsRequireAuthenticatedUser(t *testing.T) {
	service, _, _ := newTestService(1 << 20)
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), service)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/files", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
