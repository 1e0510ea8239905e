// Package storage persists uploaded project documents.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/ucu-innovators/hub/backend/internal/config"
	"github.com/ucu-innovators/hub/backend/pkg/response"
)

// Storage saves files and returns the public URL they are served from.
type Storage interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// documentTypes are the detected content types accepted for project documents.
// Legacy .doc files are detected as OLE storage and .docx as zip containers.
var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/x-ole-storage",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/zip",
}

// New returns the backend selected by cfg.Storage.
func New(ctx context.Context, cfg *config.UploadConfig) (Storage, error) {
	switch cfg.Storage {
	case "", "local":
		return NewLocalStorage(cfg.Dir, cfg.PublicPath)
	case "s3":
		return NewS3Storage(ctx, &cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage)
	}
}

// formOverhead leaves room for the text fields and multipart framing
// around a document.
const formOverhead = 1 << 20

// RequestLimit is the largest request body a document upload may carry, or 0
// when uploads are unbounded.
func RequestLimit(cfg *config.UploadConfig) int64 {
	if cfg == nil || cfg.MaxFileSize <= 0 {
		return 0
	}
	return cfg.MaxFileSize + formOverhead
}

// TooLarge is the client error for an oversized document.
func TooLarge(cfg *config.UploadConfig) error {
	return response.NewBadRequest(fmt.Sprintf("File size cannot exceed %s", humanSize(cfg.MaxFileSize)))
}

// ValidateUpload checks size, extension and sniffed content of an uploaded document.
func ValidateUpload(fh *multipart.FileHeader, cfg *config.UploadConfig) error {
	if cfg.MaxFileSize > 0 && fh.Size > cfg.MaxFileSize {
		return TooLarge(cfg)
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(cfg.AllowedExtensions, ext) {
		return response.NewBadRequest("Only " + strings.Join(cfg.AllowedExtensions, ", ") + " files are allowed")
	}

	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return err
	}
	if !isDocument(mtype) {
		return response.NewBadRequest("File content does not match an allowed document type")
	}
	return nil
}

// SaveUpload validates fh and stores it as document-<uuid><ext>.
func SaveUpload(ctx context.Context, st Storage, fh *multipart.FileHeader, cfg *config.UploadConfig) (string, error) {
	if err := ValidateUpload(fh, cfg); err != nil {
		return "", err
	}

	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	name := DocumentName(fh.Filename)
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return st.Save(ctx, name, contentType, f)
}

// DocumentName builds a collision free stored name keeping the original extension.
func DocumentName(original string) string {
	return "document-" + uuid.NewString() + strings.ToLower(filepath.Ext(original))
}

func isDocument(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		for _, allowed := range documentTypes {
			if m.Is(allowed) {
				return true
			}
		}
	}
	return false
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
