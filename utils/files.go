package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadPath returns the root of the blob store on disk.
func UploadPath() string {
	path := os.Getenv("UPLOAD_PATH")
	if path == "" {
		path = "./uploads"
	}
	return path
}

// EnsureUserFolder creates (if needed) and returns the per-user folder
// documents are stored under.
func EnsureUserFolder(userID int) (string, error) {
	folder := filepath.Join(UploadPath(), fmt.Sprintf("user-%d", userID))
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return "", err
	}
	return folder, nil
}

// GenerateStoredFilename produces a collision-free filename for the blob
// store while keeping the original extension.
func GenerateStoredFilename(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.NewString() + ext
}

// AllowedDocumentExt reports whether the upload extension is accepted.
func AllowedDocumentExt(filename string) bool {
	allowed := map[string]bool{
		".pdf":  true,
		".doc":  true,
		".docx": true,
		".xls":  true,
		".xlsx": true,
		".png":  true,
		".jpg":  true,
		".jpeg": true,
	}
	return allowed[strings.ToLower(filepath.Ext(filename))]
}
