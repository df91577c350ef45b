package main

import (
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/kwv/trenchmesh/survey"
)

// sensorSummary is the JSON shape of one scanner pose in /summary
type sensorSummary struct {
	ID          string `json:"id"`
	Position    string `json:"position"`
	Orientation string `json:"orientation"`
	Range       int    `json:"range"`
	Beacons     int    `json:"beacons"`
}

// newHTTPServer creates an HTTP server with all endpoints
func newHTTPServer(tracker *survey.ReportTracker, config *survey.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[HTTP] /health request from %s", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		status := struct {
			Status    string    `json:"status"`
			Timestamp time.Time `json:"timestamp"`
			Scanners  int       `json:"scanners"`
			HasMap    bool      `json:"hasMap"`
		}{
			Status:    "ok",
			Timestamp: time.Now(),
			Scanners:  tracker.ReadingCount(),
			HasMap:    tracker.GetWorldMap() != nil,
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("Error encoding health status: %v", err)
		}
	})

	// Map summary: beacon count, scanner poses, and spread
	mux.HandleFunc("/summary", func(w http.ResponseWriter, r *http.Request) {
		world := tracker.GetWorldMap()
		if world == nil {
			http.Error(w, "No assembled map available", http.StatusServiceUnavailable)
			return
		}

		placements := world.Placements()
		sensors := make([]sensorSummary, len(placements))
		for i, p := range placements {
			sensors[i] = sensorSummary{
				ID:          "S" + strconv.Itoa(i),
				Position:    p.Sensor.Position.String(),
				Orientation: p.Sensor.Orientation.String(),
				Range:       p.Sensor.Range,
				Beacons:     p.Reading.Len(),
			}
		}

		summary := struct {
			BeaconCount     int             `json:"beaconCount"`
			ScannerCount    int             `json:"scannerCount"`
			MaxManhattan    int             `json:"maxManhattanDistance"`
			Sensors         []sensorSummary `json:"sensors"`
			MinOverlap      int             `json:"minOverlap,omitempty"`
			ReportsReceived int             `json:"reportsReceived"`
		}{
			BeaconCount:     world.BeaconCount(),
			ScannerCount:    len(placements),
			MaxManhattan:    world.MaxPairwiseDistance(),
			Sensors:         sensors,
			ReportsReceived: tracker.ReadingCount(),
		}
		if config != nil {
			summary.MinOverlap = config.BuildConfig().MinOverlap
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(summary); err != nil {
			log.Printf("Error encoding summary: %v", err)
		}
	})

	// Per-scanner report status
	mux.HandleFunc("/scanners", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(tracker.Statuses()); err != nil {
			log.Printf("Error encoding scanner statuses: %v", err)
		}
	})

	// Assembled map as GeoJSON; ?z=N restricts to one Z plane
	mux.HandleFunc("/map.geojson", func(w http.ResponseWriter, r *http.Request) {
		world := tracker.GetWorldMap()
		if world == nil {
			http.Error(w, "No assembled map available", http.StatusServiceUnavailable)
			return
		}

		fc := survey.FeatureCollection(world)
		if zParam := r.URL.Query().Get("z"); zParam != "" {
			z, err := strconv.Atoi(zParam)
			if err != nil {
				http.Error(w, "Invalid z parameter", http.StatusBadRequest)
				return
			}
			fc = survey.SliceFeatureCollection(world, z)
		}

		w.Header().Set("Content-Type", "application/geo+json")
		w.Header().Set("Cache-Control", "no-cache")
		data, err := fc.MarshalJSON()
		if err != nil {
			log.Printf("Error encoding map GeoJSON: %v", err)
			http.Error(w, "Encoding error", http.StatusInternalServerError)
			return
		}
		if _, err := w.Write(data); err != nil {
			log.Printf("Error writing map GeoJSON: %v", err)
		}
	})

	// Assembled map as raster PNG
	mux.HandleFunc("/map.png", func(w http.ResponseWriter, r *http.Request) {
		world := tracker.GetWorldMap()
		if world == nil {
			http.Error(w, "No assembled map available", http.StatusServiceUnavailable)
			return
		}

		renderer := survey.NewMapRenderer(world)
		img := renderer.Render()
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		if err := png.Encode(w, img); err != nil {
			log.Printf("Error encoding map PNG: %v", err)
		}
	})

	// Assembled map as vector SVG
	mux.HandleFunc("/map.svg", func(w http.ResponseWriter, r *http.Request) {
		world := tracker.GetWorldMap()
		if world == nil {
			http.Error(w, "No assembled map available", http.StatusServiceUnavailable)
			return
		}

		vectorRenderer := survey.NewVectorRenderer(world)
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-cache")
		if err := vectorRenderer.RenderToSVG(w); err != nil {
			log.Printf("Error encoding map SVG: %v", err)
		}
	})

	return mux
}
