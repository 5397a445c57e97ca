package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xburncrust/xburncrust/internal/assets"
	"github.com/xburncrust/xburncrust/internal/catalog"
	"github.com/xburncrust/xburncrust/internal/generation"
	"github.com/xburncrust/xburncrust/internal/models"
)

const testAdminToken = "test-admin-token"

// scriptedBackend returns a fixed attempt for every candidate.
type scriptedBackend struct {
	attempt generation.Attempt
	calls   int
}

func (b *scriptedBackend) Generate(_ context.Context, cand generation.Candidate, _ generation.Request) generation.Attempt {
	b.calls++
	att := b.attempt
	att.Candidate = cand
	return att
}

type testEnv struct {
	handler *Handler
	store   *catalog.Store
	catID   int64
}

func newTestEnv(t *testing.T, backend generation.Backend, uploader *assets.Uploader) *testEnv {
	t.Helper()

	store, err := catalog.NewStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	cat := &models.Category{Name: "Trending", Slug: "trending"}
	if err := store.CreateCategory(context.Background(), cat); err != nil {
		t.Fatalf("CreateCategory() error = %v", err)
	}

	registry, err := generation.NewRegistry([]generation.Candidate{
		{ID: "flux-pro", DisplayName: "FLUX.1-dev", Backend: "test"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	orchestrator := generation.NewOrchestrator(registry, map[string]generation.Backend{"test": backend})
	orchestrator.Limiter = nil

	return &testEnv{
		handler: New(store, orchestrator, uploader, testAdminToken),
		store:   store,
		catID:   cat.ID,
	}
}

func (env *testEnv) do(t *testing.T, method, path, body string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestGenerateSuccess(t *testing.T) {
	backend := &scriptedBackend{attempt: generation.Attempt{Image: []byte("png-bytes")}}
	env := newTestEnv(t, backend, nil)

	rec := env.do(t, "POST", "/api/admin/generate", `{"prompt":"a sunset","numSteps":30}`, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Error("Expected success true")
	}
	if !strings.HasPrefix(body["image"].(string), "data:image/png;base64,") {
		t.Errorf("Expected data URI image, got %v", body["image"])
	}
	if body["model"] != "FLUX.1-dev" {
		t.Errorf("Expected winning display name, got %v", body["model"])
	}
	if body["steps"] != float64(30) {
		t.Errorf("Expected steps 30 echoed, got %v", body["steps"])
	}
}

func TestGenerateRequiresPrompt(t *testing.T) {
	backend := &scriptedBackend{attempt: generation.Attempt{Image: []byte("png-bytes")}}
	env := newTestEnv(t, backend, nil)

	rec := env.do(t, "POST", "/api/admin/generate", `{"prompt":""}`, true)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "prompt is required" {
		t.Errorf("Expected prompt error, got %v", body["error"])
	}
	if backend.calls != 0 {
		t.Errorf("Expected zero backend calls, got %d", backend.calls)
	}
}

func TestGenerateRequiresAdmin(t *testing.T) {
	backend := &scriptedBackend{attempt: generation.Attempt{Image: []byte("png-bytes")}}
	env := newTestEnv(t, backend, nil)

	rec := env.do(t, "POST", "/api/admin/generate", `{"prompt":"a sunset"}`, false)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rec.Code)
	}
	if backend.calls != 0 {
		t.Errorf("Expected zero backend calls, got %d", backend.calls)
	}
}

func TestGenerateModelLoading(t *testing.T) {
	backend := &scriptedBackend{attempt: generation.Attempt{
		Failure: &generation.Failure{
			Reason:     generation.ReasonLoading,
			Message:    "Model is loading",
			RetryAfter: 42,
		},
	}}
	env := newTestEnv(t, backend, nil)

	rec := env.do(t, "POST", "/api/admin/generate", `{"prompt":"a sunset"}`, true)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["retryAfter"] != float64(42) {
		t.Errorf("Expected retryAfter 42, got %v", body["retryAfter"])
	}
}

func TestGenerateExhaustion(t *testing.T) {
	backend := &scriptedBackend{attempt: generation.Attempt{
		Failure: &generation.Failure{
			Reason:  generation.ReasonHTTPError,
			Message: "status 500",
		},
	}}
	env := newTestEnv(t, backend, nil)

	rec := env.do(t, "POST", "/api/admin/generate", `{"prompt":"a sunset"}`, true)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["details"] != "status 500" {
		t.Errorf("Expected last failure in details, got %v", body["details"])
	}
}

func uploadServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			http.Error(w, "upload failed", status)
			return
		}
		if err := json.NewEncoder(w).Encode(assets.UploadResult{
			PublicID:  "Photo_IA/abc123",
			SecureURL: "https://res.example.com/Photo_IA/abc123.png",
		}); err != nil {
			t.Error(err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestUploader(t *testing.T, server *httptest.Server) *assets.Uploader {
	t.Helper()
	uploader, err := assets.NewUploader("demo", "key", "secret")
	if err != nil {
		t.Fatal(err)
	}
	uploader.BaseURL = server.URL
	return uploader
}

func saveBody(env *testEnv) string {
	return `{"image":"data:image/png;base64,iVBORw0KGgo=","title":"Neon muse","performer":"Studio","categoryId":` +
		strings.TrimSpace(jsonInt(env.catID)) + `,"showOnHome":true}`
}

func jsonInt(v int64) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func TestSaveGenerated(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, newTestUploader(t, uploadServer(t, http.StatusOK)))

	rec := env.do(t, "POST", "/api/admin/save-generated", saveBody(env), true)

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["assetUrl"] != "https://res.example.com/Photo_IA/abc123.png" {
		t.Errorf("Expected asset URL, got %v", body["assetUrl"])
	}

	media, err := env.store.ListMedia(context.Background(), catalog.Filter{})
	if err != nil {
		t.Fatalf("ListMedia() error = %v", err)
	}
	if len(media) != 1 {
		t.Fatalf("Expected 1 catalog record, got %d", len(media))
	}
	if media[0].CoverURL != "Photo_IA/abc123" {
		t.Errorf("Expected stored asset reference, got %s", media[0].CoverURL)
	}
	if media[0].Type != "photo" || media[0].AgeBadge != "18+" {
		t.Errorf("Expected photo with default age badge, got %+v", media[0])
	}
}

func TestSaveGeneratedUploadFailureWritesNothing(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, newTestUploader(t, uploadServer(t, http.StatusInternalServerError)))

	rec := env.do(t, "POST", "/api/admin/save-generated", saveBody(env), true)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}

	media, err := env.store.ListMedia(context.Background(), catalog.Filter{})
	if err != nil {
		t.Fatalf("ListMedia() error = %v", err)
	}
	if len(media) != 0 {
		t.Errorf("Expected no catalog record after failed upload, got %d", len(media))
	}
}

func TestSaveGeneratedStorageNotConfigured(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, nil)

	rec := env.do(t, "POST", "/api/admin/save-generated", saveBody(env), true)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if !strings.Contains(body["error"].(string), "not configured") {
		t.Errorf("Expected configuration error, got %v", body["error"])
	}
}

func TestSaveGeneratedValidation(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, newTestUploader(t, uploadServer(t, http.StatusOK)))

	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"image":"data:image/png;base64,aa","performer":"p","categoryId":1}`},
		{name: "not a data uri", body: `{"image":"https://example.com/x.png","title":"t","performer":"p","categoryId":1}`},
		{name: "unknown category", body: `{"image":"data:image/png;base64,aa","title":"t","performer":"p","categoryId":999}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, "POST", "/api/admin/save-generated", tt.body, true)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func (env *testEnv) doMultipart(t *testing.T, fields map[string]string, filename string, admin bool) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if filename != "" {
		part, err := form.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write([]byte("raw-bytes")); err != nil {
			t.Fatal(err)
		}
	}
	for name, value := range fields {
		if err := form.WriteField(name, value); err != nil {
			t.Fatal(err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/api/admin/upload", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	if admin {
		req.Header.Set("Authorization", "Bearer "+testAdminToken)
	}
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, req)
	return rec
}

func TestAdminUpload(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, newTestUploader(t, uploadServer(t, http.StatusOK)))

	rec := env.doMultipart(t, map[string]string{"type": "photo"}, "muse.png", true)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	data := body["data"].(map[string]any)
	if data["publicId"] != "Photo_IA/abc123" {
		t.Errorf("Expected stored asset reference, got %v", data["publicId"])
	}
	if data["url"] != "https://res.example.com/Photo_IA/abc123.png" {
		t.Errorf("Expected asset URL, got %v", data["url"])
	}
}

func TestAdminUploadValidation(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, newTestUploader(t, uploadServer(t, http.StatusOK)))

	tests := []struct {
		name     string
		fields   map[string]string
		filename string
	}{
		{name: "missing file", fields: map[string]string{"type": "photo"}},
		{name: "missing type", fields: map[string]string{}, filename: "muse.png"},
		{name: "invalid type", fields: map[string]string{"type": "gif"}, filename: "muse.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.doMultipart(t, tt.fields, tt.filename, true)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAdminUploadStorageNotConfigured(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, nil)

	rec := env.doMultipart(t, map[string]string{"type": "photo"}, "muse.png", true)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if !strings.Contains(body["error"].(string), "not configured") {
		t.Errorf("Expected configuration error, got %v", body["error"])
	}
}

func TestAdminUploadRequiresAdmin(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, newTestUploader(t, uploadServer(t, http.StatusOK)))

	rec := env.doMultipart(t, map[string]string{"type": "photo"}, "muse.png", false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", rec.Code)
	}
}

func TestMediaEndpoints(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, nil)

	media := &models.Media{
		ID: "photo-1", Title: "Neon muse", Type: "photo",
		CoverURL: "covers/photo-1", Performer: "Studio", CategoryID: env.catID,
	}
	if err := env.store.CreateMedia(context.Background(), media); err != nil {
		t.Fatalf("CreateMedia() error = %v", err)
	}

	rec := env.do(t, "GET", "/api/media", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/media = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if len(body["data"].([]any)) != 1 {
		t.Errorf("Expected 1 media entry, got %v", body["data"])
	}

	rec = env.do(t, "GET", "/api/media/photo-1", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/media/photo-1 = %d", rec.Code)
	}

	rec = env.do(t, "GET", "/api/media/absent", "", false)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET absent media = %d, want 404", rec.Code)
	}

	rec = env.do(t, "POST", "/api/media/photo-1/view", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST view = %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["views"] != float64(1) {
		t.Errorf("Expected views 1, got %v", body["views"])
	}

	rec = env.do(t, "GET", "/api/categories", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET categories = %d", rec.Code)
	}
}

func TestFavoritesEndpoints(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, nil)

	media := &models.Media{
		ID: "photo-1", Title: "Neon muse", Type: "photo",
		CoverURL: "covers/photo-1", Performer: "Studio", CategoryID: env.catID,
	}
	if err := env.store.CreateMedia(context.Background(), media); err != nil {
		t.Fatalf("CreateMedia() error = %v", err)
	}

	withUser := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("X-User-ID", "user-1")
		rec := httptest.NewRecorder()
		env.handler.Routes().ServeHTTP(rec, req)
		return rec
	}

	// Anonymous listing is an empty list, not an error.
	rec := env.do(t, "GET", "/api/favorites", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET favorites anonymous = %d", rec.Code)
	}

	// Anonymous mutation is rejected.
	rec = env.do(t, "POST", "/api/favorites", `{"mediaId":"photo-1"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("POST favorites anonymous = %d, want 401", rec.Code)
	}

	rec = withUser("POST", "/api/favorites", `{"mediaId":"photo-1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST favorites = %d: %s", rec.Code, rec.Body.String())
	}

	rec = withUser("POST", "/api/favorites", `{"mediaId":"photo-1"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("POST favorites repeat = %d, want 200", rec.Code)
	}

	rec = withUser("POST", "/api/favorites", `{"mediaId":"absent"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("POST favorites unknown media = %d, want 404", rec.Code)
	}

	rec = withUser("GET", "/api/favorites", "")
	body := decodeBody(t, rec)
	ids := body["favoriteIds"].([]any)
	if len(ids) != 1 || ids[0] != "photo-1" {
		t.Errorf("Expected [photo-1], got %v", ids)
	}

	rec = withUser("DELETE", "/api/favorites", `{"mediaId":"photo-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE favorites = %d", rec.Code)
	}

	rec = withUser("GET", "/api/favorites", "")
	body = decodeBody(t, rec)
	if len(body["favoriteIds"].([]any)) != 0 {
		t.Errorf("Expected empty favorites, got %v", body["favoriteIds"])
	}
}

func TestAdminMediaEndpoints(t *testing.T) {
	backend := &scriptedBackend{}
	env := newTestEnv(t, backend, nil)

	createBody := `{"title":"Neon lux","type":"video","duration":184,"isHd":true,` +
		`"coverUrl":"covers/neon-lux","videoUrl":"videos/neon-lux","ageBadge":"18+","categoryId":` + jsonInt(env.catID) + `}`

	rec := env.do(t, "POST", "/api/admin/media", createBody, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST admin media = %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	created := body["data"].(map[string]any)
	id := created["id"].(string)
	if !strings.HasPrefix(id, "video-") {
		t.Errorf("Expected type-prefixed id, got %s", id)
	}
	if created["performer"] != "Inconnu" {
		t.Errorf("Expected default performer, got %v", created["performer"])
	}

	rec = env.do(t, "POST", "/api/admin/media", `{"title":"x","type":"gif","coverUrl":"c","categoryId":`+jsonInt(env.catID)+`}`, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST invalid type = %d, want 400", rec.Code)
	}

	rec = env.do(t, "GET", "/api/admin/media?type=video", "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET admin media = %d", rec.Code)
	}
	body = decodeBody(t, rec)
	if len(body["data"].([]any)) != 1 {
		t.Errorf("Expected 1 video, got %v", body["data"])
	}

	rec = env.do(t, "DELETE", "/api/admin/media/"+id, "", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE admin media = %d", rec.Code)
	}
	rec = env.do(t, "DELETE", "/api/admin/media/"+id, "", true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("DELETE repeat = %d, want 404", rec.Code)
	}

	// All admin endpoints reject missing tokens.
	for _, call := range []struct{ method, path string }{
		{"GET", "/api/admin/media"},
		{"POST", "/api/admin/media"},
		{"DELETE", "/api/admin/media/x"},
		{"POST", "/api/admin/save-generated"},
	} {
		rec := env.do(t, call.method, call.path, "", false)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without token = %d, want 401", call.method, call.path, rec.Code)
		}
	}
}
