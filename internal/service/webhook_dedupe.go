package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDedupeTTL = 72 * time.Hour

// WebhookDedupeService drops redelivered webhooks using Redis SETNX.
type WebhookDedupeService struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
}

var _ IWebhookDeduper = (*WebhookDedupeService)(nil)

// NewWebhookDedupeService creates a deduper with the given key prefix.
func NewWebhookDedupeService(client *redis.Client, prefix string) *WebhookDedupeService {
	return &WebhookDedupeService{redis: client, prefix: prefix, ttl: defaultDedupeTTL}
}

// FirstDelivery marks id as seen and reports whether it was new.
func (s *WebhookDedupeService) FirstDelivery(ctx context.Context, id string) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.prefix+id, time.Now().Unix(), s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record webhook delivery: %w", err)
	}
	return ok, nil
}

// Release removes the mark for id.
func (s *WebhookDedupeService) Release(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("failed to release webhook delivery: %w", err)
	}
	return nil
}
