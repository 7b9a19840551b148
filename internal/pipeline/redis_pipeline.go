package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"ransomguard/internal/ingest"
	inputredis "ransomguard/internal/input/redis"
	"ransomguard/internal/logger"
	"ransomguard/pkg/models"
)

// RedisEventPipeline drains a Redis event list into the ingestion boundary.
type RedisEventPipeline struct {
	consumer *inputredis.Consumer
	service  *ingest.Service
	workers  int
}

// NewRedisEventPipeline creates a pipeline for Redis event intake.
func NewRedisEventPipeline(consumer *inputredis.Consumer, service *ingest.Service, workers int) *RedisEventPipeline {
	if workers <= 0 {
		workers = 4
	}
	return &RedisEventPipeline{
		consumer: consumer,
		service:  service,
		workers:  workers,
	}
}

// Run starts the pipeline loop and blocks until ctx is canceled.
func (p *RedisEventPipeline) Run(ctx context.Context) error {
	logger.Infof("Redis event pipeline started (workers=%d)", p.workers)

	msgCh := make(chan []byte, p.workers*4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(msgCh)
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// Close releases the Redis connection.
func (p *RedisEventPipeline) Close() error {
	if p.consumer != nil {
		return p.consumer.Close()
	}
	return nil
}

func (p *RedisEventPipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.consumer.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop redis message: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if payload == nil {
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *RedisEventPipeline) workerLoop(in <-chan []byte) {
	for payload := range in {
		var ev models.Event
		if err := json.Unmarshal(payload, &ev); err != nil {
			logger.Warnf("Failed to parse event payload: %v", err)
			continue
		}
		if _, err := p.service.Process("redis", ev); err != nil {
			if errors.Is(err, ingest.ErrMissingDeviceID) {
				logger.Warnf("Dropped event without deviceId")
				continue
			}
			logger.Errorf("Failed to process event: %v", err)
		}
	}
}
