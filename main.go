package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

// Version is set at build time via -ldflags
var Version = "dev"

// appRunner is the dispatch surface of App, split out so run can be tested
// with a mock
type appRunner interface {
	ApplyOptions(opts AppOptions)
	RunParseOnly()
	RunSolve()
	RunRender()
	RunGeoJSON()
	RunService()
}

func main() {
	fmt.Printf("trenchmesh version: %s\n", Version)

	if err := run(os.Args[1:], os.Stdout, NewApp()); err != nil {
		log.Fatal(err)
	}
}

// run parses CLI flags and dispatches to the matching App mode
func run(args []string, stdout io.Writer, app appRunner) error {
	fs := flag.NewFlagSet("trenchmesh", flag.ContinueOnError)
	fs.SetOutput(stdout)

	var (
		configFile  = fs.String("config", "config.yaml", "Path to configuration file")
		reportFile  = fs.String("report", "", "Path to scanner report file")
		parseOnly   = fs.Bool("parse-only", false, "Parse the report file and exit (test mode)")
		solveOnly   = fs.Bool("solve", false, "Assemble the map and print beacon count and scanner spread")
		renderOnly  = fs.Bool("render", false, "Render the assembled map and exit")
		geoJSONOnly = fs.Bool("geojson", false, "Write the assembled map as GeoJSON and exit")
		outputFile  = fs.String("output", "survey-map.png", "Output file for --render/--geojson modes")
		sliceZ      = fs.Int("slice-z", 0, "Restrict GeoJSON output to one Z plane (with -slice)")
		sliceMode   = fs.Bool("slice", false, "Enable Z-plane slicing for --geojson")
		mqttMode    = fs.Bool("mqtt", false, "Run MQTT service mode for live scanner reports")
		httpMode    = fs.Bool("http", false, "Enable HTTP server for serving the assembled map")
		httpPort    = fs.Int("http-port", 8080, "HTTP server port (default 8080)")
		minOverlap  = fs.Int("min-overlap", 0, "Beacon overlap threshold (default from config or 12)")
		sensorRange = fs.Int("range", 0, "Scanner detection range (default from config or 1000)")
		workers     = fs.Int("workers", 0, "Parallel placement attempts (default: number of CPUs)")
		// Vector rendering flags
		renderFormat = fs.String("format", "raster", "Render format: raster, vector, or both")
		vectorFormat = fs.String("vector-format", "svg", "Vector output format: svg or png")
		gridSpacing  = fs.Float64("grid-spacing", 1000.0, "Grid line spacing in map units for vector output")
	)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	app.ApplyOptions(AppOptions{
		ConfigFile:   *configFile,
		ReportFile:   *reportFile,
		OutputFile:   *outputFile,
		RenderFormat: *renderFormat,
		VectorFormat: *vectorFormat,
		GridSpacing:  *gridSpacing,
		SliceZ:       *sliceZ,
		SliceMode:    *sliceMode,
		HttpPort:     *httpPort,
		MqttMode:     *mqttMode,
		HttpMode:     *httpMode,
		MinOverlap:   *minOverlap,
		SensorRange:  *sensorRange,
		Workers:      *workers,
	})

	switch {
	case *parseOnly:
		app.RunParseOnly()
	case *solveOnly:
		app.RunSolve()
	case *renderOnly:
		app.RunRender()
	case *geoJSONOnly:
		app.RunGeoJSON()
	case *mqttMode || *httpMode:
		app.RunService()
	case *reportFile != "":
		// A bare -report implies solve mode
		app.RunSolve()
	default:
		fmt.Fprintln(stdout, "trenchmesh: assemble scanner reports into a single beacon map")
		fmt.Fprintln(stdout, "Use --report=FILE --parse-only to test report parsing")
		fmt.Fprintln(stdout, "Use --report=FILE --solve to print beacon count and scanner spread")
		fmt.Fprintln(stdout, "Use --report=FILE --render to output the assembled map image")
		fmt.Fprintln(stdout, "Use --report=FILE --geojson to export the assembled map as GeoJSON")
		fmt.Fprintln(stdout, "Use --mqtt to run MQTT service mode")
		fmt.Fprintln(stdout, "Use --http to run HTTP server mode")
		fmt.Fprintln(stdout, "Use --mqtt --http to run both MQTT and HTTP together")
		fmt.Fprintln(stdout, "\nConfiguration:")
		fmt.Fprintln(stdout, "  config.yaml - scanner list, MQTT settings, and registration tunables")
	}

	return nil
}
