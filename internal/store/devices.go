package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"ransomguard/pkg/models"
)

// DeviceStore is the in-memory device registry.
type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]*models.Device
	now     func() time.Time
}

// NewDeviceStore creates an empty registry.
func NewDeviceStore() *DeviceStore {
	return &DeviceStore{
		devices: make(map[string]*models.Device),
		now:     time.Now,
	}
}

// Upsert creates the device if missing and returns a snapshot of it.
func (s *DeviceStore) Upsert(deviceID string) *models.Device {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.upsertLocked(deviceID)
	snap := *d
	return &snap
}

// Get returns a snapshot of the device, or nil if unknown.
func (s *DeviceStore) Get(deviceID string) *models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d := s.devices[deviceID]
	if d == nil {
		return nil
	}
	snap := *d
	return &snap
}

// List returns all devices sorted by id.
func (s *DeviceStore) List() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceID < out[j].DeviceID })
	return out
}

// Touch updates last-seen and marks the device online unless quarantined.
func (s *DeviceStore) Touch(deviceID string, lastSeenMs int64) *models.Device {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.upsertLocked(deviceID)
	d.LastSeenMs = lastSeenMs
	if !d.Quarantined {
		d.Status = models.DeviceOnline
	}
	snap := *d
	return &snap
}

// SetQuarantine flips the containment flag and matching status.
func (s *DeviceStore) SetQuarantine(deviceID string, quarantined bool) {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.upsertLocked(deviceID)
	d.Quarantined = quarantined
	if quarantined {
		d.Status = models.DeviceQuarantined
	} else {
		d.Status = models.DeviceOnline
	}
	d.LastSeenMs = s.now().UnixMilli()
}

func (s *DeviceStore) upsertLocked(deviceID string) *models.Device {
	d := s.devices[deviceID]
	if d == nil {
		d = &models.Device{
			DeviceID: deviceID,
			Status:   models.DeviceOffline,
		}
		s.devices[deviceID] = d
	}
	return d
}
