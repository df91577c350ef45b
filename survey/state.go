package survey

import (
	"sort"
	"sync"
	"time"
)

// ReportStatus describes the latest report received from one scanner.
type ReportStatus struct {
	ScannerID string    `json:"scannerId"`
	Beacons   int       `json:"beacons"`
	Timestamp time.Time `json:"timestamp"`
}

// ReportTracker tracks the latest reading per scanner for HTTP endpoints and
// MQTT-driven rebuilds. Readings arrive asynchronously; the tracker keeps the
// newest one per scanner and rebuilds the world map on demand from whatever
// is currently held.
type ReportTracker struct {
	mu       sync.RWMutex
	readings map[string]*Reading
	received map[string]time.Time
	world    *WorldMap
	cfg      BuildConfig
}

// NewReportTracker creates an empty tracker using the given registration
// tunables for rebuilds.
func NewReportTracker(cfg BuildConfig) *ReportTracker {
	return &ReportTracker{
		readings: make(map[string]*Reading),
		received: make(map[string]time.Time),
		cfg:      cfg,
	}
}

// UpdateReading stores the latest reading for a scanner, replacing any
// previous one.
func (rt *ReportTracker) UpdateReading(scannerID string, r *Reading) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.readings[scannerID] = r
	rt.received[scannerID] = time.Now()
}

// GetReading returns the latest reading for a scanner, or nil.
func (rt *ReportTracker) GetReading(scannerID string) *Reading {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.readings[scannerID]
}

// ReadingCount returns how many scanners have reported.
func (rt *ReportTracker) ReadingCount() int {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return len(rt.readings)
}

// HasAll reports whether every listed scanner has sent at least one reading.
func (rt *ReportTracker) HasAll(scannerIDs []string) bool {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	for _, id := range scannerIDs {
		if _, ok := rt.readings[id]; !ok {
			return false
		}
	}
	return true
}

// Statuses returns a snapshot of per-scanner report status, sorted by
// scanner ID.
func (rt *ReportTracker) Statuses() []ReportStatus {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	out := make([]ReportStatus, 0, len(rt.readings))
	for id, r := range rt.readings {
		out = append(out, ReportStatus{
			ScannerID: id,
			Beacons:   r.Len(),
			Timestamp: rt.received[id],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScannerID < out[j].ScannerID })
	return out
}

// GetWorldMap returns the most recently built world map, or nil if no
// rebuild has succeeded yet.
func (rt *ReportTracker) GetWorldMap() *WorldMap {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.world
}

// Rebuild registers all currently held readings into a fresh world map.
// Scanner IDs are processed in sorted order so the anchor choice is stable
// across rebuilds. On failure (disconnected overlap graph) the previous map
// is kept and the error returned; a partial rebuild never replaces a
// complete one.
func (rt *ReportTracker) Rebuild() (*WorldMap, error) {
	rt.mu.RLock()
	ids := make([]string, 0, len(rt.readings))
	for id := range rt.readings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	readings := make([]*Reading, len(ids))
	for i, id := range ids {
		readings[i] = rt.readings[id]
	}
	rt.mu.RUnlock()

	world := NewWorldMap(rt.cfg)
	if err := world.Build(readings); err != nil {
		return nil, err
	}

	rt.mu.Lock()
	rt.world = world
	rt.mu.Unlock()
	return world, nil
}
