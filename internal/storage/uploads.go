// Package storage keeps uploaded resume files on local disk.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobsterhq/jobster-be/internal/apperror"
)

// Accepted resume extensions.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// UploadStore writes and removes resume files under a base directory.
type UploadStore struct {
	basePath string
	maxSize  int64
}

// NewUploadStore creates a store rooted at basePath with the given size cap.
func NewUploadStore(basePath string, maxSize int64) *UploadStore {
	return &UploadStore{basePath: basePath, maxSize: maxSize}
}

// SaveResume validates and persists one resume. The stored name is derived
// from the user and job so a re-upload overwrites rather than accumulates.
func (s *UploadStore) SaveResume(userID, jobID, originalName string, size int64, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", apperror.NewUpload("Please upload a document file (.pdf, .doc, .docx)", nil)
	}
	if size > s.maxSize {
		return "", apperror.NewUpload(fmt.Sprintf("Please upload a file smaller than %d bytes", s.maxSize), nil)
	}

	name := fmt.Sprintf("resume_%s_%s%s", userID, jobID, ext)
	dst, err := os.Create(filepath.Join(s.basePath, name))
	if err != nil {
		return "", apperror.NewUpload("Failed to store the uploaded file", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(r, s.maxSize)); err != nil {
		os.Remove(dst.Name())
		return "", apperror.NewUpload("Failed to store the uploaded file", err)
	}
	return name, nil
}

// Remove deletes a stored resume. A missing file is not an error; the
// database row is authoritative and the file write is best-effort coupled.
func (s *UploadStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.basePath, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
