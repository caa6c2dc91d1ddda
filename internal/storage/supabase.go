package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// SupabaseStore uses the Supabase Storage REST API with a service key.
// Objects live under a single bucket.
type SupabaseStore struct {
	BaseURL string // e.g. https://xyz.supabase.co
	Key     string // service role key
	Bucket  string
	Client  *http.Client
}

func NewSupabaseStore(baseURL, key, bucket string) *SupabaseStore {
	return &SupabaseStore{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Key:     key,
		Bucket:  bucket,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStore) objectURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, key)
}

// Upload stores the object; x-upsert is off so an existing key is an error.
func (s *SupabaseStore) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("upload %s: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (s *SupabaseStore) PublicURL(key string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.Bucket, key)
}

func (s *SupabaseStore) KeyFromPublicURL(url string) (string, bool) {
	prefix := fmt.Sprintf("%s/storage/v1/object/public/%s/", s.BaseURL, s.Bucket)
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

func (s *SupabaseStore) Delete(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(key), nil)
	if err != nil {
		return fmt.Errorf("build delete request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.Key)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("delete %s: status %d: %s", key, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
