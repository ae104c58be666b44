/**
 * @description
 * This file contains the HTTP handlers for product image uploads. Images are
 * stored on local disk under the configured upload directory and served back
 * through the /uploads static route. Uploads are capped at ten files of five
 * megabytes each and restricted to common web image formats.
 */

package api

import (
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	maxUploadFiles    = 10
	maxUploadFileSize = 5 << 20 // 5MB per file
)

var allowedImageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// UploadHandlers stores and deletes product images on local disk.
type UploadHandlers struct {
	dir string
}

// NewUploadHandlers creates the upload handlers and ensures the upload
// directory exists.
func NewUploadHandlers(dir string) (*UploadHandlers, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &UploadHandlers{dir: dir}, nil
}

type uploadResponse struct {
	Message string   `json:"message"`
	Files   []string `json:"files"`
}

// UploadImagesHandler handles POST /api/upload/upload with multipart field
// "images".
func (h *UploadHandlers) UploadImagesHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadFiles*maxUploadFileSize)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart request")
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > maxUploadFiles {
		writeError(w, http.StatusBadRequest, "Too many files; at most 10 images per upload")
		return
	}

	fileURLs := make([]string, 0, len(files))
	for _, header := range files {
		if header.Size > maxUploadFileSize {
			writeError(w, http.StatusBadRequest, "Each image must be 5MB or smaller")
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if !allowedImageExtensions[ext] {
			writeError(w, http.StatusBadRequest, "Only image files are allowed")
			return
		}

		name := "product-" + uuid.NewString() + ext
		if err := h.saveFile(header, name); err != nil {
			log.Printf("Failed to store uploaded image: %v", err)
			writeError(w, http.StatusInternalServerError, "Upload failed")
			return
		}
		fileURLs = append(fileURLs, "/uploads/"+name)
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Message: "Images uploaded successfully",
		Files:   fileURLs,
	})
}

// DeleteImageHandler handles DELETE /api/upload/delete/{filename}.
func (h *UploadHandlers) DeleteImageHandler(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if !validStoredFilename(filename) {
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	}

	err := os.Remove(filepath.Join(h.dir, filename))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		log.Printf("Failed to delete image %s: %v", filename, err)
		writeError(w, http.StatusInternalServerError, "Delete failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Image deleted successfully"})
}

func (h *UploadHandlers) saveFile(header *multipart.FileHeader, name string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(h.dir, name))
	if err != nil {
		return err
	}
	defer dst.Close()

	_, err = io.Copy(dst, src)
	return err
}

// validStoredFilename rejects anything that could escape the upload
// directory.
func validStoredFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, "/\\") {
		return false
	}
	return name == filepath.Base(name)
}
