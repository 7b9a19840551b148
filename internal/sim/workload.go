package sim

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"ransomguard/internal/logger"
	"ransomguard/pkg/models"
)

// Workload generates synthetic device activity and hands it to a sink.
type Workload struct {
	sink    Sink
	devices []string
	rnd     *rand.Rand
}

// NewWorkload creates a workload generator over the given device ids.
func NewWorkload(sink Sink, devices []string) *Workload {
	return &Workload{
		sink:    sink,
		devices: devices,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// RunNormal emits slow, benign file activity for the given duration.
func (w *Workload) RunNormal(ctx context.Context, duration time.Duration) error {
	deadline := time.Now().Add(duration)
	i := 0
	for time.Now().Before(deadline) {
		device := w.pick()
		name := fmt.Sprintf("logs/%s_%d.txt", gofakeit.Word(), i)
		i++

		eventType := "file_created"
		severity := 1
		if i%4 == 0 {
			eventType = "file_modified"
			severity = 2
		}
		w.emit(device, eventType, severity, name)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(350 * time.Millisecond):
		}
	}
	return nil
}

// RunRansom emits ransomware-like burst waves for the given duration:
// clusters of encrypted-looking file creates, a rename spike, and an
// entropy signal, all under a contained _sim_attack prefix.
func (w *Workload) RunRansom(ctx context.Context, duration time.Duration) error {
	deadline := time.Now().Add(duration)
	fileCounter := 0
	for time.Now().Before(deadline) {
		device := w.pick()

		for k := 0; k < 15; k++ {
			name := fmt.Sprintf("_sim_attack/%s_%d.locked", gofakeit.Word(), fileCounter)
			fileCounter++
			w.emit(device, "file_created", 3, name)
		}

		for r := 0; r < 6; r++ {
			pick := fileCounter - 1 - w.rnd.Intn(20)
			if pick < 0 {
				pick = 0
			}
			name := fmt.Sprintf("_sim_attack/file_%d.locked", pick)
			w.emit(device, "rename", 4, name)
		}

		w.emit(device, "entropy_spike", 7,
			fmt.Sprintf("_sim_attack/entropy=%.2f", 7.2+w.rnd.Float64()*0.7))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
	return nil
}

func (w *Workload) pick() string {
	return w.devices[w.rnd.Intn(len(w.devices))]
}

func (w *Workload) emit(device, eventType string, severity int, details string) {
	ev := models.Event{
		DeviceID:    device,
		TimestampMs: time.Now().UnixMilli(),
		EventType:   eventType,
		Severity:    severity,
		Details:     details,
	}
	if err := w.sink.Send(ev); err != nil {
		logger.Warnf("Failed to deliver simulated event: %v", err)
	}
}
