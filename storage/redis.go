package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vertretungsplan-bot/types"

	"github.com/redis/go-redis/v9"
)

const (
	emergencyKey = "config:emergency_url"
	relevantTTL  = 24 * time.Hour
)

type Storage struct {
	client *redis.Client
}

func New(addr, password string, db int) *Storage {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,     // "localhost:6379"
		Password: password, // may be empty
		DB:       db,
	})
	return &Storage{client: rdb}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// ===== Emergency url =====

// EmergencyURL returns the url set by an operator, "" if there is none
func (s *Storage) EmergencyURL(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, emergencyKey).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetEmergencyURL stores the url; ttl 0 keeps it until cleared
func (s *Storage) SetEmergencyURL(ctx context.Context, url string, ttl time.Duration) error {
	return s.client.Set(ctx, emergencyKey, url, ttl).Err()
}

func (s *Storage) ClearEmergencyURL(ctx context.Context) error {
	return s.client.Del(ctx, emergencyKey).Err()
}

// ===== Last relevant entries for change detection =====

func relevantKey(owner string) string {
	return fmt.Sprintf("relevant:%s", owner)
}

// SaveLastRelevant stores the relevant entries found for owner (TTL: 24 hours)
func (s *Storage) SaveLastRelevant(ctx context.Context, owner string, entries []types.Substitution) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, relevantKey(owner), data, relevantTTL).Err()
}

// GetLastRelevant returns the entries saved for owner, nil if there are none
func (s *Storage) GetLastRelevant(ctx context.Context, owner string) ([]types.Substitution, error) {
	val, err := s.client.Get(ctx, relevantKey(owner)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []types.Substitution
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
