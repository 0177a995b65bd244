package docfetch

import (
	"context"
	"fmt"
	"time"
)

// Service resolves a reference-document URL into content, caching fetches
// for ttl so a Retriever call against the same URL within that window is
// free.
type Service struct {
	client *Client
	cache  *Cache
}

// NewService constructs a Service. ttl <= 0 uses a 5 minute default.
func NewService(token string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{client: NewClient(token), cache: NewCache(ttl)}
}

// Resolve returns the content at url, serving from cache when fresh.
func (s *Service) Resolve(ctx context.Context, url string) (string, error) {
	if content, ok := s.cache.Get(url); ok {
		return content, nil
	}

	content, err := s.client.Download(ctx, url)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", url, err)
	}
	s.cache.Set(url, content)
	return content, nil
}
