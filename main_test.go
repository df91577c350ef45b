package main

import (
	"bytes"
	"strings"
	"testing"
)

type mockApp struct {
	opts   AppOptions
	called map[string]bool
}

func newMockApp() *mockApp {
	return &mockApp{
		called: make(map[string]bool),
	}
}

func (m *mockApp) ApplyOptions(opts AppOptions) { m.opts = opts }
func (m *mockApp) RunParseOnly()                { m.called["RunParseOnly"] = true }
func (m *mockApp) RunSolve()                    { m.called["RunSolve"] = true }
func (m *mockApp) RunRender()                   { m.called["RunRender"] = true }
func (m *mockApp) RunGeoJSON()                  { m.called["RunGeoJSON"] = true }
func (m *mockApp) RunService()                  { m.called["RunService"] = true }

func TestRun_Flags(t *testing.T) {
	tests := []struct {
		name           string
		args           []string
		expectedCalled string
		verifyOpts     func(*testing.T, AppOptions)
	}{
		{
			name:           "ParseOnly",
			args:           []string{"--parse-only", "--report", "reports.txt"},
			expectedCalled: "RunParseOnly",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.ReportFile != "reports.txt" {
					t.Errorf("expected ReportFile reports.txt, got %s", opts.ReportFile)
				}
			},
		},
		{
			name:           "Solve",
			args:           []string{"--solve", "--report", "reports.txt", "--min-overlap", "6"},
			expectedCalled: "RunSolve",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.MinOverlap != 6 {
					t.Errorf("expected MinOverlap 6, got %d", opts.MinOverlap)
				}
			},
		},
		{
			name:           "BareReportImpliesSolve",
			args:           []string{"--report", "reports.txt"},
			expectedCalled: "RunSolve",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.ReportFile != "reports.txt" {
					t.Errorf("expected ReportFile reports.txt, got %s", opts.ReportFile)
				}
			},
		},
		{
			name:           "Render",
			args:           []string{"--render", "--report", "reports.txt", "--format", "vector", "--vector-format", "png"},
			expectedCalled: "RunRender",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if opts.RenderFormat != "vector" {
					t.Errorf("expected RenderFormat vector, got %s", opts.RenderFormat)
				}
				if opts.VectorFormat != "png" {
					t.Errorf("expected VectorFormat png, got %s", opts.VectorFormat)
				}
			},
		},
		{
			name:           "GeoJSON",
			args:           []string{"--geojson", "--report", "reports.txt", "--slice", "--slice-z", "-43"},
			expectedCalled: "RunGeoJSON",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.SliceMode {
					t.Error("expected SliceMode true")
				}
				if opts.SliceZ != -43 {
					t.Errorf("expected SliceZ -43, got %d", opts.SliceZ)
				}
			},
		},
		{
			name:           "MqttService",
			args:           []string{"--mqtt", "--config", "custom.yaml"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.MqttMode {
					t.Error("expected MqttMode true")
				}
				if opts.ConfigFile != "custom.yaml" {
					t.Errorf("expected ConfigFile custom.yaml, got %s", opts.ConfigFile)
				}
			},
		},
		{
			name:           "HttpService",
			args:           []string{"--http", "--http-port", "9090"},
			expectedCalled: "RunService",
			verifyOpts: func(t *testing.T, opts AppOptions) {
				if !opts.HttpMode {
					t.Error("expected HttpMode true")
				}
				if opts.HttpPort != 9090 {
					t.Errorf("expected HttpPort 9090, got %d", opts.HttpPort)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newMockApp()
			var out bytes.Buffer
			err := run(tt.args, &out, app)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			if !app.called[tt.expectedCalled] {
				t.Errorf("expected %s to be called, called: %v", tt.expectedCalled, app.called)
			}
			if len(app.called) != 1 {
				t.Errorf("expected exactly one mode to run, called: %v", app.called)
			}
			if tt.verifyOpts != nil {
				tt.verifyOpts(t, app.opts)
			}
		})
	}
}

func TestRun_Help(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	if err := run([]string{"--help"}, &out, app); err != nil {
		t.Fatalf("run with --help failed: %v", err)
	}
	if len(app.called) != 0 {
		t.Errorf("no mode should run for --help, called: %v", app.called)
	}
	if !strings.Contains(out.String(), "-report") {
		t.Error("help output should list the report flag")
	}
}

func TestRun_Default(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	if err := run([]string{}, &out, app); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(app.called) != 0 {
		t.Errorf("no mode should run without flags, called: %v", app.called)
	}
	if !strings.Contains(out.String(), "assemble scanner reports") {
		t.Errorf("usage text missing, got: %s", out.String())
	}
}

func TestRun_BadFlag(t *testing.T) {
	app := newMockApp()
	var out bytes.Buffer
	if err := run([]string{"--no-such-flag"}, &out, app); err == nil {
		t.Error("run with an unknown flag should fail")
	}
	if len(app.called) != 0 {
		t.Errorf("no mode should run on a flag error, called: %v", app.called)
	}
}
