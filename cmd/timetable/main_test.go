package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-balancer/internal/timetable"
	"github.com/noah-isme/timetable-balancer/pkg/export"
)

const sampleInstance = `
start: 2024-09-02
weeks: 2
capacity: [8, 8]
blackoutWeeks:
  - start: 2024-09-09
    end: 2024-09-13
subjects:
  - symbology: ALG
    meetings: 2
    activities: ["EX"]
  - symbology: PHY
    meetings: 2
`

func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseInstanceBuildsRequest(t *testing.T) {
	file, err := parseInstance([]byte(sampleInstance))
	require.NoError(t, err)

	req, err := file.request(timetable.DefaultBalancerConfig())
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2}, req.Instance.Meetings)
	assert.Nil(t, req.Instance.Lower)
	assert.Equal(t, timetable.FillByShift, req.Order)
	require.Len(t, req.Calendar.BlackoutWeeks, 1)
	assert.Equal(t, "ALG", file.symbology(0))
	assert.Equal(t, "", file.symbology(5))
}

func TestParseInstanceRejectsShapeErrors(t *testing.T) {
	_, err := parseInstance([]byte("start: 2024-09-02\ncapacity: [4]\n"))
	assert.Error(t, err)

	_, err = parseInstance([]byte("start: 2024-09-02\nweeks: 3\ncapacity: [4]\nsubjects:\n  - symbology: A\n    meetings: 1\n"))
	assert.Error(t, err)

	file, err := parseInstance([]byte("start: 2024-09-02\ncapacity: [4, 4]\nsubjects:\n  - symbology: A\n    meetings: 1\n    lower: [1]\n"))
	require.NoError(t, err)
	_, err = file.request(timetable.DefaultBalancerConfig())
	assert.Error(t, err)
}

func TestParseInstanceCustomBoundsAndPolicy(t *testing.T) {
	file, err := parseInstance([]byte(`
start: 2024-09-02
capacity: [6, 6]
policy: walk
fillOrder: day
subjects:
  - symbology: A
    meetings: 2
    upper: [1, 1]
`))
	require.NoError(t, err)
	req, err := file.request(timetable.DefaultBalancerConfig())
	require.NoError(t, err)
	require.NotNil(t, req.Instance.Upper)
	assert.Equal(t, 1, req.Instance.Upper.At(0, 1))
	assert.Equal(t, timetable.DefaultLowerBound, req.Instance.Lower.At(0, 0))
	assert.Equal(t, timetable.PolicyWalk, req.Balancer.Policy)
	assert.Equal(t, timetable.FillByDay, req.Order)
}

func TestSolveCommandWritesCSVAndJSON(t *testing.T) {
	dir := t.TempDir()
	instancePath := filepath.Join(dir, "instance.yaml")
	csvPath := filepath.Join(dir, "slots.csv")
	require.NoError(t, os.WriteFile(instancePath, []byte(sampleInstance), 0o600))

	out, err := executeCmd(t, "solve", "--instance", instancePath, "--seed", "1", "--json", "--csv", csvPath)
	require.NoError(t, err)

	var result summary
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, int64(1), result.Seed)
	assert.Equal(t, 4, result.Placed)
	assert.Empty(t, result.Overflow)
	assert.Equal(t, 1, result.ShiftsPerDay)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	rows, err := export.NewCSVExporter().Parse(data)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.NotEqual(t, "2024-09-09", row.Date)
	}
}

func TestShiftsCommand(t *testing.T) {
	out, err := executeCmd(t, "shifts", "--meetings", "10", "--weeks", "1", "--blackout-days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "3 shifts per day (covers demand: true)")

	_, err = executeCmd(t, "shifts", "--meetings", "10")
	assert.Error(t, err)
}

func TestWeeksCommandPrintsPeriodMath(t *testing.T) {
	out, err := executeCmd(t, "weeks", "--start", "2024-09-04", "--end", "2024-09-28", "--blackout-week", "2024-09-09:2024-09-15")
	require.NoError(t, err)
	assert.Contains(t, out, "period 2024-09-02..2024-09-28\n")
	assert.Contains(t, out, "weeks 4, usable 3\n")
	assert.Contains(t, out, "week 1: 2024-09-02\nweek 2: 2024-09-16\nweek 3: 2024-09-23\n")

	_, err = executeCmd(t, "weeks", "--start", "2024-09-02", "--end", "2024-09-28", "--blackout-week", "2024-09-09")
	assert.Error(t, err)

	_, err = executeCmd(t, "weeks", "--start", "2024-09-02", "--end", "2024-09-06")
	assert.Error(t, err, "periods shorter than three weeks are rejected")
}

func TestParseSubjectsCSV(t *testing.T) {
	subjects, err := parseSubjectsCSV([]byte("symbology,meetings,activities,lower,upper\nALG,3,EX;;QZ,,2;2\nPHY,2,,1;0,\n"))
	require.NoError(t, err)
	require.Len(t, subjects, 2)
	assert.Equal(t, []string{"EX", "", "QZ"}, subjects[0].Activities)
	assert.Equal(t, []int{2, 2}, subjects[0].Upper)
	assert.Nil(t, subjects[0].Lower)
	assert.Equal(t, []int{1, 0}, subjects[1].Lower)

	_, err = parseSubjectsCSV([]byte("symbology,meetings,activities,lower,upper\nALG,3,,x,\n"))
	assert.Error(t, err)
}
