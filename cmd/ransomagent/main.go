package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"ransomguard/internal/agent"
	"ransomguard/internal/logger"
)

func main() {
	root := flag.String("root", "iot_test", "Root directory holding one subdirectory per device")
	devices := flag.String("devices", "DeviceA,DeviceB,DeviceC,DeviceD,DeviceE", "Comma-separated device ids")
	ingestURL := flag.String("ingest", "http://127.0.0.1:9004/api/ingest", "Controller ingest URL")
	entropyThreshold := flag.Float64("entropy-threshold", 7.2, "Entropy (bits/byte) above which an entropy_spike is reported")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	if err := logger.Init(true, *logLevel, "", true); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	deviceIDs := splitList(*devices)
	if len(deviceIDs) == 0 {
		log.Fatalf("No devices configured")
	}

	if err := os.MkdirAll(*root, 0755); err != nil {
		log.Fatalf("Failed to create root directory: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, deviceID := range deviceIDs {
		dir := filepath.Join(*root, deviceID)
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create device directory %s: %v", dir, err)
		}

		w, err := agent.NewWatcher(agent.Config{
			DeviceID:         deviceID,
			Dir:              dir,
			IngestURL:        *ingestURL,
			EntropyThreshold: *entropyThreshold,
			Timeout:          5 * time.Second,
		})
		if err != nil {
			log.Fatalf("Failed to create watcher for %s: %v", deviceID, err)
		}

		wg.Add(1)
		go func(deviceID string) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				logger.Errorf("Watcher stopped for %s: %v", deviceID, err)
			}
		}(deviceID)
	}

	logger.Infof("Agent watching %s for devices: %s", *root, strings.Join(deviceIDs, ", "))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()
	wg.Wait()
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
