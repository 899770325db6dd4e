// Package storage puts generated and uploaded files into object storage.
package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	storage_go "github.com/supabase-community/storage-go"

	"github.com/vnkhanh/gforms-server/config"
)

// Uploader stores an object and returns where it can be fetched from.
type Uploader interface {
	Upload(objectPath, contentType string, r io.Reader) (string, error)
}

// New returns a Supabase uploader when credentials are configured and a
// local directory uploader otherwise.
func New(cfg config.StorageConfig, localDir string) Uploader {
	if cfg.Enabled() {
		return NewSupabase(cfg)
	}
	return &Local{Dir: localDir}
}

type Supabase struct {
	client *storage_go.Client
	bucket string
}

func NewSupabase(cfg config.StorageConfig) *Supabase {
	return &Supabase{
		client: storage_go.NewClient(strings.TrimRight(cfg.SupabaseURL, "/")+"/storage/v1", cfg.SupabaseKey, nil),
		bucket: cfg.Bucket,
	}
}

// Upload overwrites any existing object at objectPath and returns its public URL.
func (s *Supabase) Upload(objectPath, contentType string, r io.Reader) (string, error) {
	upsert := true
	opts := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.client.UploadFile(s.bucket, objectPath, r, opts); err != nil {
		return "", fmt.Errorf("supabase upload %s: %w", objectPath, err)
	}
	return s.client.GetPublicUrl(s.bucket, objectPath).SignedURL, nil
}

// Local writes objects below Dir and returns the file path.
type Local struct {
	Dir string
}

func (l *Local) Upload(objectPath, _ string, r io.Reader) (string, error) {
	clean := filepath.Clean("/" + objectPath)
	full := filepath.Join(l.Dir, clean)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return full, nil
}

// IsLocal reports whether location came from a Local uploader rather than a URL.
func IsLocal(location string) bool {
	return !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://")
}
