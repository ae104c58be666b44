package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/productr/merchant-service/internal/app"
	"github.com/productr/merchant-service/internal/token"
)

func newUploadTestEnv(t *testing.T) (http.Handler, string, string) {
	t.Helper()
	dir := t.TempDir()
	issuer := token.NewIssuer([]byte("test-secret"), time.Hour)
	service := app.NewAuthService(newMemUserRepo(), &recordingNotifier{delivered: true}, issuer, nil, app.StrictOTPPolicy(), 10*time.Minute, 6)
	auth := NewAuthHandlers(service, nil, 0, false, "")
	uploads, err := NewUploadHandlers(dir)
	if err != nil {
		t.Fatalf("NewUploadHandlers() error = %v", err)
	}
	bearer, err := issuer.Issue("merchant-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return NewRouter(auth, NewProductHandlers(newMemProductRepo()), uploads, issuer, dir), dir, bearer
}

func multipartImages(t *testing.T, filenames ...string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, name := range filenames {
		part, err := writer.CreateFormFile("images", name)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}

func TestUploadImages(t *testing.T) {
	handler, dir, bearer := newUploadTestEnv(t)

	body, contentType := multipartImages(t, "mug.jpg", "box.png")
	req := httptest.NewRequest(http.MethodPost, "/api/upload/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp uploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Message != "Images uploaded successfully" {
		t.Fatalf("message = %s", resp.Message)
	}
	if len(resp.Files) != 2 {
		t.Fatalf("files = %v, want 2 entries", resp.Files)
	}
	for _, url := range resp.Files {
		if !strings.HasPrefix(url, "/uploads/product-") {
			t.Fatalf("file url %s missing /uploads/product- prefix", url)
		}
		stored := filepath.Join(dir, strings.TrimPrefix(url, "/uploads/"))
		data, err := os.ReadFile(stored)
		if err != nil {
			t.Fatalf("stored file missing: %v", err)
		}
		if string(data) != "fake image bytes" {
			t.Fatalf("stored file content = %q", data)
		}
	}
}

func TestUploadRejectsNonImageExtension(t *testing.T) {
	handler, _, bearer := newUploadTestEnv(t)

	body, contentType := multipartImages(t, "malware.exe")
	req := httptest.NewRequest(http.MethodPost, "/api/upload/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadRequiresFiles(t *testing.T) {
	handler, _, bearer := newUploadTestEnv(t)

	body, contentType := multipartImages(t)
	req := httptest.NewRequest(http.MethodPost, "/api/upload/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestDeleteImage(t *testing.T) {
	handler, dir, bearer := newUploadTestEnv(t)

	name := "product-test.jpg"
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/upload/delete/"+name, nil)
	req.Header.Set("Authorization", "Bearer "+bearer)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Fatal("file must be removed from disk")
	}

	// Deleting again is a 404.
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestDeleteImageRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	uploads, err := NewUploadHandlers(dir)
	if err != nil {
		t.Fatalf("NewUploadHandlers() error = %v", err)
	}

	// Call the handler directly with a crafted URL parameter; the router
	// would not normally produce one, but the handler must still refuse it.
	req := httptest.NewRequest(http.MethodDelete, "/api/upload/delete/x", nil)
	ctx := chi.NewRouteContext()
	ctx.URLParams.Add("filename", "../secret.txt")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, ctx))
	rec := httptest.NewRecorder()
	uploads.DeleteImageHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for path traversal", rec.Code)
	}
}

func TestValidStoredFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "plain stored name", in: "product-abc.jpg", want: true},
		{name: "empty", in: "", want: false},
		{name: "dot", in: ".", want: false},
		{name: "dotdot", in: "..", want: false},
		{name: "forward slash", in: "a/b.jpg", want: false},
		{name: "backslash", in: "a\\b.jpg", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validStoredFilename(tt.in); got != tt.want {
				t.Fatalf("validStoredFilename(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
