package docsign

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// 5 MiB
const MaxSignatureUploadSize int64 = 5 * 1024 * 1024

type UploadedFile struct {
	Name        string
	ContentType string
	Size        int64
	Data        []byte
}

// OpenUploadedFile reads a signature image from disk. The content type is derived from the
// file extension and left empty when unknown so it can be sniffed later.
func OpenUploadedFile(path string) (*UploadedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signature file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat signature file: %w", err)
	}

	// Oversized files only get their header loaded, enough for type sniffing.
	var r io.Reader = f
	if info.Size() > MaxSignatureUploadSize {
		r = io.LimitReader(f, 3072)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = contentType[:idx]
	}

	return &UploadedFile{
		Name:        filepath.Base(path),
		ContentType: contentType,
		Size:        info.Size(),
		Data:        data,
	}, nil
}

func (f *UploadedFile) mimeType() string {
	if f.ContentType != "" {
		return strings.ToLower(f.ContentType)
	}
	return mimetype.Detect(f.Data).String()
}

// Validate checks type before size, matching what the user fixes first.
func (f *UploadedFile) Validate() error {
	if !strings.HasPrefix(f.mimeType(), "image/") {
		return NewValidationError(ErrMsgUnsupportedFileType)
	}
	if max(f.Size, int64(len(f.Data))) > MaxSignatureUploadSize {
		return NewValidationError(ErrMsgFileTooLarge)
	}
	return nil
}

// Extension is the MIME subtype, e.g. "png" for image/png.
func (f *UploadedFile) Extension() string {
	parts := strings.SplitN(f.mimeType(), "/", 2)
	if len(parts) < 2 || parts[1] == "" {
		return "png"
	}
	return parts[1]
}
