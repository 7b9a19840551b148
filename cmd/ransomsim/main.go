package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ransomguard/internal/logger"
	"ransomguard/internal/sim"
)

func main() {
	mode := flag.String("mode", "mixed", "Workload mode: normal, ransom, or mixed")
	devices := flag.String("devices", "DeviceA,DeviceB,DeviceC,DeviceD,DeviceE", "Comma-separated device ids")
	phase := flag.Duration("phase", 12*time.Second, "Duration of each workload phase")
	sinkMode := flag.String("sink", "http", "Delivery sink: http or redis")
	url := flag.String("url", "http://127.0.0.1:9004/api/ingest", "Controller ingest URL (http sink)")
	redisAddr := flag.String("redis-addr", "127.0.0.1:6379", "Redis address (redis sink)")
	redisKey := flag.String("redis-key", "ransomguard_events", "Redis intake list key (redis sink)")
	flag.Parse()

	if err := logger.Init(true, "info", "", true); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	deviceIDs := splitList(*devices)
	if len(deviceIDs) == 0 {
		log.Fatalf("No devices configured")
	}

	var sink sim.Sink
	switch *sinkMode {
	case "http":
		sink = sim.NewHTTPSink(*url, 5*time.Second)
	case "redis":
		s, err := sim.NewRedisSink(sim.RedisSinkConfig{Addr: *redisAddr, Key: *redisKey})
		if err != nil {
			log.Fatalf("Failed to create redis sink: %v", err)
		}
		sink = s
	default:
		log.Fatalf("Unknown sink mode: %s", *sinkMode)
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	w := sim.NewWorkload(sink, deviceIDs)

	run := func(name string, f func(context.Context, time.Duration) error) {
		logger.Infof("=== Phase: %s workload (%s) ===", name, *phase)
		if err := f(ctx, *phase); err != nil && err != context.Canceled {
			logger.Errorf("Workload error: %v", err)
		}
	}

	switch *mode {
	case "normal":
		run("normal", w.RunNormal)
	case "ransom":
		run("ransom-like", w.RunRansom)
	case "mixed":
		run("normal", w.RunNormal)
		run("ransom-like", w.RunRansom)
	default:
		log.Fatalf("Unknown mode: %s", *mode)
	}

	logger.Infof("Done. Query /api/report to see devices, events, and alerts.")
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
