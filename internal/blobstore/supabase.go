package blobstore

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

const supabasePrefix = "history/"

// Supabase stores blobs in a Supabase Storage bucket and names them by
// their public URL.
type Supabase struct {
	client *storage.Client
	bucket string
}

func NewSupabase(supabaseURL, serviceKey, bucket string) *Supabase {
	baseURL := strings.TrimSuffix(supabaseURL, "/")
	return &Supabase{
		client: storage.NewClient(baseURL+"/storage/v1", serviceKey, nil),
		bucket: bucket,
	}
}

func (s *Supabase) Put(mimeType string, data []byte) (string, error) {
	storagePath := supabasePrefix + objectName(mimeType)
	upsert := false
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &mimeType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob: %w", err)
	}
	return s.publicURL(storagePath), nil
}

func (s *Supabase) Get(uri string) ([]byte, error) {
	storagePath, err := s.pathFor(uri)
	if err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	return data, nil
}

func (s *Supabase) Delete(uri string) error {
	storagePath, err := s.pathFor(uri)
	if err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{storagePath}); err != nil {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

func (s *Supabase) publicURL(storagePath string) string {
	return s.client.GetPublicUrl(s.bucket, storagePath).SignedURL
}

func (s *Supabase) pathFor(uri string) (string, error) {
	prefix := s.publicURL("")
	if !strings.HasPrefix(uri, prefix) {
		return "", ErrUnknownURI
	}
	return strings.TrimPrefix(uri, prefix), nil
}
