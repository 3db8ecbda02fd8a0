package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrFileEmpty       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// FileConstraints defines validation rules for evidence uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

// EvidenceConstraints returns the constraint set for evidence images.
// Only PNG, JPEG and WebP are accepted.
func EvidenceConstraints(maxSize int64) FileConstraints {
	return FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		},
		MaxSize: maxSize,
	}
}

// Validate checks an upload against the constraint set. The MIME type is
// detected from the file's magic numbers, not the client-declared header,
// so a renamed or mislabeled file is still rejected.
func (c FileConstraints) Validate(header *multipart.FileHeader) error {
	if header.Size <= 0 {
		return ErrFileEmpty
	}
	if header.Size > c.MaxSize {
		maxMB := c.MaxSize / (1 << 20)
		return fmt.Errorf("%w: maximum size is %d MB", ErrFileTooLarge, maxMB)
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads at most 512 bytes
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	detectedType := http.DetectContentType(buffer[:n])
	if !c.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("%w: use PNG, JPG, or WEBP (detected: %s)", ErrUnsupportedType, detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !c.AllowedExtensions[ext] {
		return fmt.Errorf("%w: invalid file extension %q", ErrUnsupportedType, ext)
	}

	return nil
}
