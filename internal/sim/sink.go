package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"

	"ransomguard/pkg/models"
)

// Sink delivers generated events to the controller.
type Sink interface {
	Send(ev models.Event) error
	Close() error
}

// HTTPSink posts events to the ingest endpoint.
type HTTPSink struct {
	url    string
	client *http.Client
}

// NewHTTPSink creates an HTTP delivery sink.
func NewHTTPSink(url string, timeout time.Duration) *HTTPSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts one event.
func (s *HTTPSink) Send(ev models.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	resp, err := s.client.Post(s.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest rejected event: %s", resp.Status)
	}
	return nil
}

// Close releases HTTP resources.
func (s *HTTPSink) Close() error {
	return nil
}

// RedisSink pushes events onto the controller's Redis intake list.
type RedisSink struct {
	client *redis.Client
	key    string
}

// RedisSinkConfig configures the Redis sink.
type RedisSinkConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisSink creates a Redis delivery sink.
func NewRedisSink(cfg RedisSinkConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisSink{client: client, key: cfg.Key}, nil
}

// Send pushes one event onto the list.
func (s *RedisSink) Send(ev models.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := s.client.RPush(context.Background(), s.key, body).Err(); err != nil {
		return fmt.Errorf("rpush event: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
