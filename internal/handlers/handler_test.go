package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photo-album/internal/content"
	apperrors "photo-album/internal/errors"
	"photo-album/internal/models"
	"photo-album/internal/services"
	"photo-album/internal/store"
	"photo-album/internal/utils/exiftest"
)

type testEnv struct {
	handler      *Handler
	gallery      *services.GalleryService
	metadataPath string
}

func newTestEnv(t *testing.T, maxUploadSize int64) *testEnv {
	t.Helper()

	dir := t.TempDir()
	metadataPath := filepath.Join(dir, "metadata.json")
	metadata, err := store.NewFileStore(metadataPath)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	files, err := content.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("NewLocalStore() error: %v", err)
	}
	cache := services.NewCacheService(time.Minute, time.Hour)
	t.Cleanup(cache.Close)

	gallery := services.NewGalleryService(metadata, files, cache, services.GalleryOptions{ThumbnailSize: 4})
	h, err := New(gallery, maxUploadSize)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	return &testEnv{handler: h, gallery: gallery, metadataPath: metadataPath}
}

type formFile struct {
	field, name string
	data        []byte
}

func multipartRequest(t *testing.T, fields map[string]string, file *formFile) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField(%s) error: %v", k, err)
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile(file.field, file.name)
		if err != nil {
			t.Fatalf("CreateFormFile() error: %v", err)
		}
		if _, err := fw.Write(file.data); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) list(t *testing.T) []models.ImageView {
	t.Helper()
	views, err := e.gallery.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	return views
}

func TestHandleUploadStoresImage(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	data := exiftest.PlainJPEG(8, 4)

	req := multipartRequest(t,
		map[string]string{"name": "Cat", "description": "fluffy"},
		&formFile{field: "file", name: "cat.jpg", data: data},
	)
	rec := httptest.NewRecorder()
	env.handler.HandleUpload(rec, req)

	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusFound)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	views := env.list(t)
	if len(views) != 1 {
		t.Fatalf("len(List()) = %d, want 1", len(views))
	}
	got := views[0]
	if got.Filename != "cat.jpg" || got.Name != "Cat" || got.Description != "fluffy" {
		t.Errorf("view = %+v", got)
	}
	if got.OriginalDate != models.UnknownDate {
		t.Errorf("OriginalDate = %q, want %q", got.OriginalDate, models.UnknownDate)
	}

	// The metadata file keys records by identifier.
	raw, err := os.ReadFile(env.metadataPath)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	var doc map[string]map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("metadata is not a JSON object: %v", err)
	}
	if doc["cat.jpg"]["name"] != "Cat" {
		t.Errorf("metadata[cat.jpg] = %v", doc["cat.jpg"])
	}
}

func TestHandleUploadWithoutFile(t *testing.T) {
	tests := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{
			name: "no file part",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"name": "x"}, nil)
			},
		},
		{
			name: "empty filename",
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, nil, &formFile{field: "file", name: "", data: []byte("abc")})
			},
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("name=x"))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				return req
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 1<<20)
			rec := httptest.NewRecorder()
			env.handler.HandleUpload(rec, tt.req(t))

			if rec.Code != http.StatusFound {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusFound)
			}
			if views := env.list(t); len(views) != 0 {
				t.Errorf("List() = %v, want empty", views)
			}
		})
	}
}

func TestHandleUploadTooLarge(t *testing.T) {
	env := newTestEnv(t, 512)

	req := multipartRequest(t, nil, &formFile{field: "file", name: "big.jpg", data: bytes.Repeat([]byte{0xFF}, 4096)})
	rec := httptest.NewRecorder()
	env.handler.HandleUpload(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if views := env.list(t); len(views) != 0 {
		t.Errorf("List() = %v, want empty", views)
	}
}

func TestHandleUploadedFile(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	data := []byte("not really a picture, but bytes are bytes")

	upload := multipartRequest(t, nil, &formFile{field: "file", name: "notes.png", data: data})
	env.handler.HandleUpload(httptest.NewRecorder(), upload)

	tests := []struct {
		name       string
		identifier string
		wantStatus int
		wantBody   []byte
	}{
		{"stored file", "notes.png", http.StatusOK, data},
		{"unknown identifier", "missing.jpg", http.StatusNotFound, nil},
		{"traversal", "..", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/uploads/x", nil)
			req.SetPathValue("identifier", tt.identifier)
			rec := httptest.NewRecorder()
			env.handler.HandleUploadedFile(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != nil && !bytes.Equal(rec.Body.Bytes(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.Bytes(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusOK {
				if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
					t.Errorf("Content-Type = %q, want image/png", ct)
				}
			}
		})
	}
}

func TestHandleThumbnail(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	env.handler.HandleUpload(httptest.NewRecorder(), multipartRequest(t, nil,
		&formFile{field: "file", name: "wide.jpg", data: exiftest.PlainJPEG(8, 4)}))
	env.handler.HandleUpload(httptest.NewRecorder(), multipartRequest(t, nil,
		&formFile{field: "file", name: "garbage.jpg", data: []byte("garbage")}))

	t.Run("decodable image", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/thumbnails/wide.jpg", nil)
		req.SetPathValue("identifier", "wide.jpg")
		rec := httptest.NewRecorder()
		env.handler.HandleThumbnail(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("Content-Type = %q, want image/jpeg", ct)
		}
	})

	t.Run("undecodable falls back to original", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/thumbnails/garbage.jpg", nil)
		req.SetPathValue("identifier", "garbage.jpg")
		rec := httptest.NewRecorder()
		env.handler.HandleThumbnail(rec, req)

		if rec.Code != http.StatusFound {
			t.Fatalf("status = %d, want 302", rec.Code)
		}
		if loc := rec.Header().Get("Location"); loc != "/uploads/garbage.jpg" {
			t.Errorf("Location = %q", loc)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/thumbnails/nope.jpg", nil)
		req.SetPathValue("identifier", "nope.jpg")
		rec := httptest.NewRecorder()
		env.handler.HandleThumbnail(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}

func seed(t *testing.T, env *testEnv) {
	t.Helper()
	for _, up := range []struct{ file, name, desc string }{
		{"beach.jpg", "Beach Day", "sand and sun"},
		{"dog.jpg", "Rex", "a good BOY"},
		{"cat.jpg", "Cat", "fluffy"},
	} {
		req := multipartRequest(t,
			map[string]string{"name": up.name, "description": up.desc},
			&formFile{field: "file", name: up.file, data: exiftest.PlainJPEG(2, 2)},
		)
		env.handler.HandleUpload(httptest.NewRecorder(), req)
	}
}

func TestHandleIndex(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	t.Run("empty gallery", func(t *testing.T) {
		rec := httptest.NewRecorder()
		env.handler.HandleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "No images found.") {
			t.Error("empty gallery should say so")
		}
	})

	seed(t, env)

	tests := []struct {
		name    string
		target  string
		want    []string
		notWant []string
	}{
		{"all images", "/", []string{"Beach Day", "Rex", "Cat"}, nil},
		{"matches name", "/?q=beach", []string{"Beach Day"}, []string{"Rex", "fluffy"}},
		{"matches description case-insensitively", "/?q=boy", []string{"Rex"}, []string{"Beach Day", "fluffy"}},
		{"no match", "/?q=zebra", []string{"No images found.", `value="zebra"`}, []string{"Rex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.handler.HandleIndex(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			body := rec.Body.String()
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("body missing %q", s)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(body, s) {
					t.Errorf("body unexpectedly contains %q", s)
				}
			}
		})
	}
}

func TestHandleIndexEscapesUserText(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	req := multipartRequest(t,
		map[string]string{"name": "<script>alert(1)</script>"},
		&formFile{field: "file", name: "x.jpg", data: exiftest.PlainJPEG(2, 2)},
	)
	env.handler.HandleUpload(httptest.NewRecorder(), req)

	rec := httptest.NewRecorder()
	env.handler.HandleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if strings.Contains(rec.Body.String(), "<script>alert(1)</script>") {
		t.Error("name was rendered unescaped")
	}
}

func TestHandleImagesList(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	seed(t, env)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantFiles  []string
	}{
		{"all", "/api/images", http.StatusOK, []string{"beach.jpg", "cat.jpg", "dog.jpg"}},
		{"filtered", "/api/images?q=FLUFF", http.StatusOK, []string{"cat.jpg"}},
		{"first page", "/api/images?limit=2", http.StatusOK, []string{"beach.jpg", "cat.jpg"}},
		{"second page", "/api/images?limit=2&page=1", http.StatusOK, []string{"dog.jpg"}},
		{"past the end", "/api/images?limit=2&page=5", http.StatusOK, []string{}},
		{"huge limit", "/api/images?limit=4611686018427387904&page=2", http.StatusOK, []string{}},
		{"huge page", "/api/images?limit=2&page=4611686018427387904", http.StatusOK, []string{}},
		{"huge limit first page", "/api/images?limit=9223372036854775807", http.StatusOK, []string{"beach.jpg", "cat.jpg", "dog.jpg"}},
		{"bad limit", "/api/images?limit=abc", http.StatusBadRequest, nil},
		{"negative page", "/api/images?page=-1", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			env.handler.HandleImagesList(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantFiles == nil {
				return
			}

			var views []models.ImageView
			if err := json.NewDecoder(rec.Body).Decode(&views); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(views) != len(tt.wantFiles) {
				t.Fatalf("got %d images, want %d", len(views), len(tt.wantFiles))
			}
			for i, v := range views {
				if v.Filename != tt.wantFiles[i] {
					t.Errorf("images[%d] = %q, want %q", i, v.Filename, tt.wantFiles[i])
				}
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, 1<<20)

	rec := httptest.NewRecorder()
	env.handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	// A corrupt metadata document degrades the service.
	if err := os.WriteFile(env.metadataPath, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec = httptest.NewRecorder()
	env.handler.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "degraded") {
		t.Errorf("body = %s", body)
	}
}

func TestIdentifierLinksAreEscaped(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	data := []byte("tricky name, not an image")
	env.handler.HandleUpload(httptest.NewRecorder(), multipartRequest(t, nil,
		&formFile{field: "file", name: "a#1?%.png", data: data}))

	rec := httptest.NewRecorder()
	env.handler.HandleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	body := rec.Body.String()

	for _, want := range []string{`href="/uploads/a%231%3F%25.png"`, `src="/thumbnails/a%231%3F%25.png"`} {
		if !strings.Contains(body, want) {
			t.Errorf("index page missing %s", want)
		}
	}

	// Undecodable content redirects to the original, which must stay escaped.
	req := httptest.NewRequest(http.MethodGet, "/thumbnails/x", nil)
	req.SetPathValue("identifier", "a#1?%.png")
	rec = httptest.NewRecorder()
	env.handler.HandleThumbnail(rec, req)

	if loc := rec.Header().Get("Location"); loc != "/uploads/a%231%3F%25.png" {
		t.Errorf("Location = %q, want /uploads/a%%231%%3F%%25.png", loc)
	}
}

func TestHandleIndexCorruptStore(t *testing.T) {
	env := newTestEnv(t, 1<<20)
	if err := os.WriteFile(env.metadataPath, []byte("[1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	env.handler.HandleIndex(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != apperrors.ErrInternal.Error() {
		t.Errorf("body = %q, want %q", got, apperrors.ErrInternal.Error())
	}
}
