package survey

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ParseReportFile reads and parses a scanner report file.
func ParseReportFile(path string) ([]*Reading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	defer f.Close()
	return ParseReport(f)
}

// ParseReportText parses report text.
func ParseReportText(text string) ([]*Reading, error) {
	return ParseReport(strings.NewReader(text))
}

// ParseReport parses the scanner report format: each report starts with a
// "--- scanner N ---" header followed by one "x,y,z" line per beacon
// (signed decimal integers, no whitespace). Blank lines are ignored.
// Every report becomes one Reading.
//
// This is the input boundary: malformed coordinate lines are rejected here,
// so the registration engine never sees bad data.
func ParseReport(r io.Reader) ([]*Reading, error) {
	var readings []*Reading
	var buffer []Vector3

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		reading, err := NewReading(buffer)
		if err != nil {
			return err
		}
		readings = append(readings, reading)
		buffer = nil
		return nil
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "---") {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		v, err := ParseVector3(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		buffer = append(buffer, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	if err := flush(); err != nil {
		return nil, err
	}
	return readings, nil
}

// ParseVector3 parses a single "x,y,z" coordinate line.
func ParseVector3(line string) (Vector3, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Vector3{}, fmt.Errorf("invalid coordinate %q: want 3 comma-separated integers", line)
	}
	var c [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Vector3{}, fmt.Errorf("invalid coordinate %q: %w", line, err)
		}
		c[i] = n
	}
	return Vector3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// ReportSummary provides key information about a parsed report.
type ReportSummary struct {
	ReadingCount int
	BeaconCounts []int
	TotalBeacons int
}

// Summarize extracts summary information from a parsed report.
func Summarize(readings []*Reading) ReportSummary {
	summary := ReportSummary{ReadingCount: len(readings)}
	for _, r := range readings {
		summary.BeaconCounts = append(summary.BeaconCounts, r.Len())
		summary.TotalBeacons += r.Len()
	}
	return summary
}
