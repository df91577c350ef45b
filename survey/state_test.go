package survey

import (
	"fmt"
	"testing"
	"time"
)

// trackExampleReadings seeds a tracker with the five fixture readings under
// ids scanner-0 .. scanner-4.
func trackExampleReadings(t *testing.T, rt *ReportTracker) {
	t.Helper()
	for i, r := range loadExampleReadings(t) {
		rt.UpdateReading(fmt.Sprintf("scanner-%d", i), r)
	}
}

// ---------------------------------------------------------------------------
// reading bookkeeping
// ---------------------------------------------------------------------------

func TestReportTracker_UpdateAndGet(t *testing.T) {
	rt := NewReportTracker(DefaultBuildConfig())

	if rt.ReadingCount() != 0 {
		t.Errorf("ReadingCount = %d, want 0", rt.ReadingCount())
	}
	if rt.GetReading("scanner-0") != nil {
		t.Error("GetReading on empty tracker should be nil")
	}

	readings := loadExampleReadings(t)
	rt.UpdateReading("scanner-0", readings[0])
	if got := rt.GetReading("scanner-0"); got != readings[0] {
		t.Error("GetReading returned a different reading")
	}
	if rt.ReadingCount() != 1 {
		t.Errorf("ReadingCount = %d, want 1", rt.ReadingCount())
	}

	// a newer report replaces the old one
	rt.UpdateReading("scanner-0", readings[1])
	if got := rt.GetReading("scanner-0"); got != readings[1] {
		t.Error("UpdateReading did not replace the previous reading")
	}
	if rt.ReadingCount() != 1 {
		t.Errorf("ReadingCount = %d after replacement, want 1", rt.ReadingCount())
	}
}

func TestReportTracker_HasAll(t *testing.T) {
	rt := NewReportTracker(DefaultBuildConfig())
	trackExampleReadings(t, rt)

	all := []string{"scanner-0", "scanner-1", "scanner-2", "scanner-3", "scanner-4"}
	if !rt.HasAll(all) {
		t.Error("HasAll = false with every scanner reported")
	}
	if rt.HasAll(append(all, "scanner-5")) {
		t.Error("HasAll = true with a missing scanner")
	}
	if !rt.HasAll(nil) {
		t.Error("HasAll(nil) should be true")
	}
}

func TestReportTracker_Statuses(t *testing.T) {
	rt := NewReportTracker(DefaultBuildConfig())
	trackExampleReadings(t, rt)

	statuses := rt.Statuses()
	if len(statuses) != 5 {
		t.Fatalf("Statuses = %d entries, want 5", len(statuses))
	}

	wantBeacons := []int{25, 25, 26, 25, 26}
	for i, st := range statuses {
		wantID := fmt.Sprintf("scanner-%d", i)
		if st.ScannerID != wantID {
			t.Errorf("Statuses[%d].ScannerID = %q, want %q (sorted)", i, st.ScannerID, wantID)
		}
		if st.Beacons != wantBeacons[i] {
			t.Errorf("Statuses[%d].Beacons = %d, want %d", i, st.Beacons, wantBeacons[i])
		}
		if st.Timestamp.IsZero() || time.Since(st.Timestamp) > time.Minute {
			t.Errorf("Statuses[%d].Timestamp = %v, want recent", i, st.Timestamp)
		}
	}
}

// ---------------------------------------------------------------------------
// rebuilds
// ---------------------------------------------------------------------------

func TestReportTracker_Rebuild(t *testing.T) {
	rt := NewReportTracker(DefaultBuildConfig())
	trackExampleReadings(t, rt)

	if rt.GetWorldMap() != nil {
		t.Fatal("tracker should have no map before the first rebuild")
	}

	world, err := rt.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if world.BeaconCount() != 79 {
		t.Errorf("BeaconCount = %d, want 79", world.BeaconCount())
	}
	if rt.GetWorldMap() != world {
		t.Error("GetWorldMap should return the rebuilt map")
	}
}

func TestReportTracker_RebuildKeepsPreviousMapOnFailure(t *testing.T) {
	rt := NewReportTracker(DefaultBuildConfig())
	trackExampleReadings(t, rt)

	good, err := rt.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}

	// a stray reading with no overlap makes the next rebuild fail
	stray, err := NewReading([]Vector3{{X: 90000, Y: 90000, Z: 90000}})
	if err != nil {
		t.Fatalf("NewReading: %v", err)
	}
	rt.UpdateReading("scanner-9", stray)

	if _, err := rt.Rebuild(); err == nil {
		t.Fatal("Rebuild with a disconnected reading should fail")
	}
	if rt.GetWorldMap() != good {
		t.Error("failed rebuild replaced the previous complete map")
	}
}

func TestReportTracker_RebuildPartialSet(t *testing.T) {
	// two overlapping scanners are enough for a complete (small) map
	readings := loadExampleReadings(t)
	rt := NewReportTracker(DefaultBuildConfig())
	rt.UpdateReading("scanner-0", readings[0])
	rt.UpdateReading("scanner-1", readings[1])

	world, err := rt.Rebuild()
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if got := len(world.Placements()); got != 2 {
		t.Errorf("Placements = %d, want 2", got)
	}
	// 25 + 25 beacons with 12 shared
	if got := world.BeaconCount(); got != 38 {
		t.Errorf("BeaconCount = %d, want 38", got)
	}
}
