package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the per-file ceiling for supporting documents.
const MaxUploadBytes = 15 << 20 // 15 MB

// allowedExtensions is the accepted file type allowlist.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Upload is one inbound file keyed by the document type it is submitted
// for. Data is fully buffered before any store interaction.
type Upload struct {
	DocumentType string
	Name         string
	ContentType  string
	Data         []byte
}

// Check validates the file itself, independent of authorization. Returns a
// human-readable reason on rejection.
func (u Upload) Check() error {
	if len(u.Data) == 0 {
		return fmt.Errorf("file %q is empty", u.Name)
	}
	if len(u.Data) > MaxUploadBytes {
		return fmt.Errorf("file %q exceeds the %d MB limit", u.Name, MaxUploadBytes>>20)
	}
	ext := strings.ToLower(filepath.Ext(u.Name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file %q: only PDF, JPG and PNG files are accepted", u.Name)
	}
	return nil
}
