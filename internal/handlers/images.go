package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/bimg"
	"github.com/petermazzocco/go-pereval-api/internal/logger"
	"github.com/petermazzocco/go-pereval-api/internal/storage"
)

const maxUploadBytes = 10 << 20

var errNotAnImage = errors.New("uploaded file is not a supported image")

type UploadResponse struct {
	Message string `json:"message"`
	Title   string `json:"title"`
	ImgURL  string `json:"img_url"`
}

// UploadImageHandler stores one pass photo and returns the title/img_url
// pair a client puts into the images list of a submission.
func UploadImageHandler(w http.ResponseWriter, r *http.Request, uploader storage.Uploader, maxWidth int, log *logger.Logger) {
	if uploader == nil {
		respondError(w, http.StatusServiceUnavailable, "storage_disabled", "Image storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_upload", "Error reading uploaded file")
		return
	}
	if bimg.DetermineImageType(data) == bimg.UNKNOWN {
		respondError(w, http.StatusBadRequest, "invalid_upload", errNotAnImage.Error())
		return
	}

	processed, err := normalizeImage(data, maxWidth)
	if err != nil {
		log.Warn("Failed to process uploaded image", "filename", header.Filename, "error", err)
		respondError(w, http.StatusBadRequest, "invalid_upload", errNotAnImage.Error())
		return
	}

	key := fmt.Sprintf("perevals/originals/%s.jpg", uuid.New().String())
	etag, err := uploader.Upload(r.Context(), key, "image/jpeg", bytes.NewReader(processed))
	if err != nil {
		log.Error("Failed to upload image", "key", key, "error", err)
		respondError(w, http.StatusInternalServerError, "internal", "Failed to upload image")
		return
	}
	log.Info("Image uploaded", "key", key, "etag", etag)

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}
	writeJSON(w, http.StatusOK, UploadResponse{
		Message: "Image uploaded successfully",
		Title:   title,
		ImgURL:  uploader.PublicURL(key),
	})
}

// normalizeImage re-encodes to JPEG without metadata, shrinking anything
// wider than maxWidth.
func normalizeImage(data []byte, maxWidth int) ([]byte, error) {
	img := bimg.NewImage(data)
	size, err := img.Size()
	if err != nil {
		return nil, err
	}
	opts := bimg.Options{
		Type:          bimg.JPEG,
		Quality:       85,
		StripMetadata: true,
	}
	if maxWidth > 0 && size.Width > maxWidth {
		opts.Width = maxWidth
	}
	return img.Process(opts)
}
