package services

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"sparklean/config"
	"sparklean/internal/logger"

	"github.com/google/uuid"
)

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
}

// StorageService persists uploaded request photos on local disk. Files
// are renamed to random identifiers so client-supplied names never reach
// the filesystem.
type StorageService struct {
	uploadDir string
	log       logger.Logger
}

func NewStorageService(cfg config.Config) (*StorageService, error) {
	log := logger.New("StorageService")

	uploadDir := cfg.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, log.Err("failed to create upload directory", err, "dir", uploadDir)
	}

	return &StorageService{
		uploadDir: uploadDir,
		log:       log,
	}, nil
}

// UploadDir returns the directory served for stored photos.
func (s *StorageService) UploadDir() string {
	return s.uploadDir
}

// SavePhoto writes one uploaded photo to disk and returns the stored
// filename relative to the upload directory.
func (s *StorageService) SavePhoto(file *multipart.FileHeader) (string, error) {
	log := s.log.Function("SavePhoto")

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExtensions[ext] {
		return "", log.Error("unsupported photo file type", "filename", file.Filename)
	}

	src, err := file.Open()
	if err != nil {
		return "", log.Err("failed to open uploaded photo", err, "filename", file.Filename)
	}
	defer func() { _ = src.Close() }()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		return "", log.Err("failed to create photo file", err, "filename", file.Filename)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, src); err != nil {
		s.Remove(name)
		return "", log.Err("failed to write photo file", err, "filename", file.Filename)
	}

	return name, nil
}

// Remove deletes a stored photo. Used to clean up after a partially
// failed upload batch.
func (s *StorageService) Remove(storedName string) {
	log := s.log.Function("Remove")

	if storedName == "" || strings.Contains(storedName, "..") {
		return
	}

	if err := os.Remove(filepath.Join(s.uploadDir, storedName)); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to remove stored photo", "file", storedName, "error", err)
	}
}
