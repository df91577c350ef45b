package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// report parsing
// ---------------------------------------------------------------------------

func TestParseReportFile(t *testing.T) {
	readings, err := ParseReportFile("testdata/example-report.txt")
	require.NoError(t, err)
	require.Len(t, readings, 5)

	wantCounts := []int{25, 25, 26, 25, 26}
	for i, r := range readings {
		assert.Equal(t, wantCounts[i], r.Len(), "reading %d", i)
	}

	assert.True(t, readings[0].Contains(Vector3{X: 404, Y: -588, Z: -901}))
	assert.True(t, readings[4].Contains(Vector3{X: 30, Y: -46, Z: -14}))
}

func TestParseReportFile_Missing(t *testing.T) {
	_, err := ParseReportFile("testdata/does-not-exist.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading report")
}

func TestParseReportText(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantCounts []int
		wantErr    string
	}{
		{
			name:       "two scanners",
			text:       "--- scanner 0 ---\n1,2,3\n4,5,6\n\n--- scanner 1 ---\n7,8,9\n",
			wantCounts: []int{2, 1},
		},
		{
			name:       "no header before beacons",
			text:       "1,2,3\n4,5,6\n",
			wantCounts: []int{2},
		},
		{
			name:       "blank lines and padding ignored",
			text:       "\n--- scanner 0 ---\n\n  1,2,3  \n\n",
			wantCounts: []int{1},
		},
		{
			name:       "empty input",
			text:       "",
			wantCounts: nil,
		},
		{
			name:    "malformed coordinate reports line number",
			text:    "--- scanner 0 ---\n1,2,3\n4,5\n",
			wantErr: "line 3",
		},
		{
			name:    "non-integer coordinate",
			text:    "--- scanner 0 ---\n1,2,three\n",
			wantErr: "invalid coordinate",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			readings, err := ParseReportText(tc.text)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, readings, len(tc.wantCounts))
			for i, want := range tc.wantCounts {
				assert.Equal(t, want, readings[i].Len(), "reading %d", i)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// coordinate parsing
// ---------------------------------------------------------------------------

func TestParseVector3(t *testing.T) {
	v, err := ParseVector3("-618,-824,-621")
	require.NoError(t, err)
	assert.Equal(t, Vector3{X: -618, Y: -824, Z: -621}, v)

	v, err = ParseVector3(" 7 , -33 , -71 ")
	require.NoError(t, err)
	assert.Equal(t, Vector3{X: 7, Y: -33, Z: -71}, v)

	bad := []string{"", "1,2", "1,2,3,4", "a,b,c", "1.5,2,3"}
	for _, s := range bad {
		_, err := ParseVector3(s)
		assert.Error(t, err, "input %q", s)
	}
}

// ---------------------------------------------------------------------------
// summaries
// ---------------------------------------------------------------------------

func TestSummarize(t *testing.T) {
	readings, err := ParseReportFile("testdata/example-report.txt")
	require.NoError(t, err)

	summary := Summarize(readings)
	assert.Equal(t, 5, summary.ReadingCount)
	assert.Equal(t, []int{25, 25, 26, 25, 26}, summary.BeaconCounts)
	assert.Equal(t, 127, summary.TotalBeacons)

	empty := Summarize(nil)
	assert.Zero(t, empty.ReadingCount)
	assert.Zero(t, empty.TotalBeacons)
}
