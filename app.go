package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/kwv/trenchmesh/survey"
)

// AppOptions carries the CLI flag values into the App
type AppOptions struct {
	ConfigFile   string
	ReportFile   string
	OutputFile   string
	RenderFormat string
	VectorFormat string
	GridSpacing  float64
	SliceZ       int
	SliceMode    bool
	HttpPort     int
	MqttMode     bool
	HttpMode     bool
	MinOverlap   int
	SensorRange  int
	Workers      int
}

// App encapsulates the application state and dependencies
type App struct {
	Config     *survey.Config
	Tracker    *survey.ReportTracker
	MQTTClient *survey.MQTTClient
	Publisher  *survey.Publisher

	// CLI Flags (effectively dependencies)
	ConfigFile   string
	ReportFile   string
	OutputFile   string
	RenderFormat string
	VectorFormat string
	GridSpacing  float64
	SliceZ       int
	SliceMode    bool
	HttpPort     int
	MqttMode     bool
	HttpMode     bool
	MinOverlap   int
	SensorRange  int
	Workers      int
}

// NewApp creates a new App instance
func NewApp() *App {
	return &App{}
}

// ApplyOptions applies CLI options to the App instance
func (a *App) ApplyOptions(opts AppOptions) {
	a.ConfigFile = opts.ConfigFile
	a.ReportFile = opts.ReportFile
	a.OutputFile = opts.OutputFile
	a.RenderFormat = opts.RenderFormat
	a.VectorFormat = opts.VectorFormat
	a.GridSpacing = opts.GridSpacing
	a.SliceZ = opts.SliceZ
	a.SliceMode = opts.SliceMode
	a.HttpPort = opts.HttpPort
	a.MqttMode = opts.MqttMode
	a.HttpMode = opts.HttpMode
	a.MinOverlap = opts.MinOverlap
	a.SensorRange = opts.SensorRange
	a.Workers = opts.Workers
}

// buildConfig resolves registration tunables with priority: CLI > config file
// > defaults
func (a *App) buildConfig() survey.BuildConfig {
	cfg := survey.DefaultBuildConfig()
	if a.Config != nil {
		cfg = a.Config.BuildConfig()
	}
	if a.MinOverlap > 0 {
		cfg.MinOverlap = a.MinOverlap
	}
	if a.SensorRange > 0 {
		cfg.SensorRange = a.SensorRange
	}
	if a.Workers > 0 {
		cfg.Workers = a.Workers
	}
	return cfg
}

// loadOptionalConfig loads config.yaml when present. File modes work without
// one; service mode requires it and uses loadRequiredConfig instead.
func (a *App) loadOptionalConfig() {
	if a.Config != nil {
		return
	}
	if _, err := os.Stat(a.ConfigFile); err != nil {
		return
	}
	config, err := survey.LoadConfig(a.ConfigFile)
	if err != nil {
		log.Printf("Warning: Failed to load config file %s: %v", a.ConfigFile, err)
		return
	}
	a.Config = config
	log.Printf("Loaded config from %s", a.ConfigFile)
}

// loadReadings parses the report file given on the command line
func (a *App) loadReadings() []*survey.Reading {
	if a.ReportFile == "" {
		log.Fatal("No report file given (use --report=FILE)")
	}

	readings, err := survey.ParseReportFile(a.ReportFile)
	if err != nil {
		log.Fatalf("Error parsing report %s: %v", a.ReportFile, err)
	}
	if len(readings) == 0 {
		log.Fatalf("No scanner reports found in %s", a.ReportFile)
	}
	return readings
}

// assemble parses the report and registers all readings into a world map
func (a *App) assemble() *survey.WorldMap {
	a.loadOptionalConfig()
	readings := a.loadReadings()
	fmt.Printf("Parsed %d scanner report(s)\n", len(readings))

	world := survey.NewWorldMap(a.buildConfig())
	if err := world.Build(readings); err != nil {
		log.Fatalf("Registration failed: %v", err)
	}
	return world
}

// RunParseOnly parses the report file and prints a summary per reading
func (a *App) RunParseOnly() {
	readings := a.loadReadings()
	summary := survey.Summarize(readings)

	fmt.Printf("Found %d scanner report(s)\n\n", summary.ReadingCount)
	for i, r := range readings {
		fmt.Printf("=== scanner %d ===\n", i)
		fmt.Printf("Beacons: %d\n", r.Len())
		beacons := r.Beacons()
		limit := len(beacons)
		if limit > 3 {
			limit = 3
		}
		for _, b := range beacons[:limit] {
			fmt.Printf("  %s\n", b)
		}
		if len(beacons) > limit {
			fmt.Printf("  ... %d more\n", len(beacons)-limit)
		}
		fmt.Println()
	}
	fmt.Printf("Total beacon observations: %d\n", summary.TotalBeacons)
}

// RunSolve assembles the map and prints beacon count and scanner spread
func (a *App) RunSolve() {
	world := a.assemble()

	fmt.Printf("\nAssembled map: %d distinct beacons\n", world.BeaconCount())

	fmt.Println("\nScanner poses (global frame):")
	for i, s := range world.Sensors() {
		fmt.Printf("  S%d: %s\n", i, s)
	}

	if s1, s2, dist, ok := world.MostDistantSensors(); ok {
		fmt.Printf("\nMost distant scanners: %s and %s\n", s1, s2)
		fmt.Printf("Manhattan distance: %d\n", dist)
	}
}

// RunRender assembles the map and writes it as an image
func (a *App) RunRender() {
	world := a.assemble()

	format := a.RenderFormat
	if format != "raster" && format != "vector" && format != "both" {
		log.Fatalf("Invalid format: %s (must be raster, vector, or both)", format)
	}

	// Raster rendering
	if format == "raster" || format == "both" {
		outputPath := a.OutputFile
		if format == "both" && !strings.HasSuffix(outputPath, ".png") {
			outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".png"
		}

		if err := survey.RenderMapPNG(world, outputPath); err != nil {
			log.Fatalf("Error rendering raster: %v", err)
		}
		fmt.Printf("Created raster: %s\n", outputPath)
	}

	// Vector rendering
	if format == "vector" || format == "both" {
		vectorRenderer := survey.NewVectorRenderer(world)
		if a.GridSpacing > 0 {
			vectorRenderer.GridSpacing = a.GridSpacing
		}

		ext := ".svg"
		if a.VectorFormat == "png" {
			ext = ".png"
		}
		outputPath := a.OutputFile
		if format == "both" || !strings.HasSuffix(outputPath, ext) {
			outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ext
		}

		outFile, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("Error creating output file %s: %v", outputPath, err)
		}
		defer func() {
			if err := outFile.Close(); err != nil {
				log.Printf("Warning: error closing output file %s: %v", outputPath, err)
			}
		}()

		switch a.VectorFormat {
		case "svg":
			if err := vectorRenderer.RenderToSVG(outFile); err != nil {
				log.Fatalf("Error rendering vector SVG: %v", err)
			}
			fmt.Printf("Created vector SVG: %s\n", outputPath)
		case "png":
			if err := vectorRenderer.RenderToPNG(outFile); err != nil {
				log.Fatalf("Error rendering vector PNG: %v", err)
			}
			fmt.Printf("Created vector PNG: %s\n", outputPath)
		default:
			log.Fatalf("Invalid vector format: %s (must be svg or png)", a.VectorFormat)
		}
	}

	fmt.Println("Done!")
}

// RunGeoJSON assembles the map and writes it as a GeoJSON FeatureCollection
func (a *App) RunGeoJSON() {
	world := a.assemble()

	fc := survey.FeatureCollection(world)
	if a.SliceMode {
		fc = survey.SliceFeatureCollection(world, a.SliceZ)
		fmt.Printf("Slicing at z=%d: %d features\n", a.SliceZ, len(fc.Features))
	}

	data, err := fc.MarshalJSON()
	if err != nil {
		log.Fatalf("Error encoding GeoJSON: %v", err)
	}

	outputPath := a.OutputFile
	if !strings.HasSuffix(outputPath, ".geojson") && !strings.HasSuffix(outputPath, ".json") {
		outputPath = strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".geojson"
	}

	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		log.Fatalf("Error writing GeoJSON file %s: %v", outputPath, err)
	}
	fmt.Printf("Created GeoJSON: %s\n", outputPath)
}

// RunService starts the combined MQTT and/or HTTP service
func (a *App) RunService() {
	fmt.Println("Starting trenchmesh service...")

	// Service mode needs the scanner list, so the config file is required
	config, err := survey.LoadConfig(a.ConfigFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v (looked at %s)", err, a.ConfigFile)
	}
	a.Config = config
	log.Printf("Loaded config from %s", a.ConfigFile)

	a.Tracker = survey.NewReportTracker(a.buildConfig())

	// Seed the tracker from a report file if one was given: readings pair
	// with configured scanner IDs in file order
	if a.ReportFile != "" {
		readings, err := survey.ParseReportFile(a.ReportFile)
		if err != nil {
			log.Fatalf("Error parsing report %s: %v", a.ReportFile, err)
		}
		for i, r := range readings {
			id := fmt.Sprintf("scanner-%d", i)
			if i < len(config.Scanners) {
				id = config.Scanners[i].ID
			}
			a.Tracker.UpdateReading(id, r)
		}
		fmt.Printf("Seeded %d reading(s) from %s\n", len(readings), a.ReportFile)

		if _, err := a.Tracker.Rebuild(); err != nil {
			log.Printf("Warning: initial registration incomplete: %v", err)
		}
	}

	// Start MQTT if enabled
	if a.MqttMode {
		// Message handler stores the reading and rebuilds the map
		messageHandler := func(scannerID string, rawPayload []byte, reading *survey.Reading, err error) {
			if err != nil {
				log.Printf("Error receiving report for %s: %v", scannerID, err)
				return
			}

			a.Tracker.UpdateReading(scannerID, reading)
			log.Printf("%s: %d beacons (reports held: %d)", scannerID, reading.Len(), a.Tracker.ReadingCount())

			if _, err := a.Tracker.Rebuild(); err != nil {
				// Expected until enough scanners overlap; keep the last good map
				log.Printf("Registration pending: %v", err)
				return
			}
			if world := a.Tracker.GetWorldMap(); world != nil {
				log.Printf("Map rebuilt: %d beacons from %d scanners",
					world.BeaconCount(), len(world.Sensors()))
				if a.Publisher != nil {
					if err := a.Publisher.PublishWorldMap(world); err != nil {
						log.Printf("Error publishing map: %v", err)
					}
				}
			}
		}

		mqttClient, err := survey.InitMQTT(config, messageHandler)
		if err != nil {
			log.Fatalf("Failed to initialize MQTT: %v", err)
		}
		a.MQTTClient = mqttClient

		if mqttClient == nil {
			log.Fatal("MQTT broker not configured in config.yaml")
		}

		// Recovered poses are published back to the broker after each rebuild
		a.Publisher = survey.NewPublisher(mqttClient.GetClient(), config.MQTT.PublishPrefix)
	}

	// Start HTTP server if enabled
	if a.HttpMode {
		httpServer := newHTTPServer(a.Tracker, config)
		go func() {
			addr := fmt.Sprintf("0.0.0.0:%d", a.HttpPort)
			log.Printf("[HTTP] Starting server on %s", addr)
			if err := http.ListenAndServe(addr, httpServer); err != nil {
				log.Fatalf("[HTTP] Server error: %v", err)
			}
		}()
	}

	// Print service info
	fmt.Println("\nService Running")
	fmt.Println("===============")

	if a.MqttMode {
		fmt.Println("\nMQTT:")
		fmt.Println("  Subscribed topics:")
		for _, sc := range config.Scanners {
			fmt.Printf("    - %s (%s)\n", sc.Topic, sc.ID)
		}
	}

	if a.HttpMode {
		fmt.Printf("\nHTTP endpoints (port %d):\n", a.HttpPort)
		fmt.Println("  GET /health      - Health check")
		fmt.Println("  GET /summary     - Beacon count, scanner poses, map spread")
		fmt.Println("  GET /scanners    - Per-scanner report status")
		fmt.Println("  GET /map.geojson - Assembled map as GeoJSON (optional ?z=N slice)")
		fmt.Println("  GET /map.png     - Assembled map as PNG")
		fmt.Println("  GET /map.svg     - Assembled map as SVG")
	}

	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	fmt.Println("\nShutting down service...")
	if a.MQTTClient != nil {
		a.MQTTClient.Disconnect()
	}
	fmt.Println("Service stopped")
}
