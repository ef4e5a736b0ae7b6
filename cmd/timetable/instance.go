package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/timetable-balancer/internal/timetable"
)

const dateLayout = "2006-01-02"

// instanceFile is the YAML shape accepted by `timetable solve`.
type instanceFile struct {
	Start         string          `yaml:"start"`
	Weeks         int             `yaml:"weeks"`
	Capacity      []int           `yaml:"capacity"`
	Subjects      []subjectEntry  `yaml:"subjects"`
	BlackoutDays  []string        `yaml:"blackoutDays"`
	BlackoutWeeks []blackoutRange `yaml:"blackoutWeeks"`
	Policy        string          `yaml:"policy"`
	FillOrder     string          `yaml:"fillOrder"`
}

type subjectEntry struct {
	Symbology  string   `yaml:"symbology"`
	Meetings   int      `yaml:"meetings"`
	Activities []string `yaml:"activities"`
	Lower      []int    `yaml:"lower"`
	Upper      []int    `yaml:"upper"`
}

type blackoutRange struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

func loadInstance(path string) (*instanceFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance: %w", err)
	}
	return parseInstance(raw)
}

func parseInstance(raw []byte) (*instanceFile, error) {
	var file instanceFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	if len(file.Subjects) == 0 {
		return nil, errors.New("instance has no subjects")
	}
	if file.Weeks <= 0 {
		file.Weeks = len(file.Capacity)
	}
	if len(file.Capacity) != file.Weeks {
		return nil, fmt.Errorf("capacity lists %d weeks, expected %d", len(file.Capacity), file.Weeks)
	}
	return &file, nil
}

// request converts the file into an engine request. cfg supplies the balancer tuning.
func (f *instanceFile) request(cfg timetable.BalancerConfig) (timetable.Request, error) {
	n, m := len(f.Subjects), f.Weeks
	meetings := make([]int, n)
	activities := make([][]string, n)
	lowerRows := make([][]int, n)
	upperRows := make([][]int, n)
	customBounds := false
	for i, s := range f.Subjects {
		meetings[i] = s.Meetings
		activities[i] = s.Activities
		lowerRows[i] = boundRow(s.Lower, m, timetable.DefaultLowerBound)
		upperRows[i] = boundRow(s.Upper, m, timetable.DefaultUpperBound)
		if len(s.Lower) > 0 || len(s.Upper) > 0 {
			customBounds = true
		}
		if len(s.Lower) > 0 && len(s.Lower) != m {
			return timetable.Request{}, fmt.Errorf("subject %s: lower bounds list %d weeks, expected %d", s.Symbology, len(s.Lower), m)
		}
		if len(s.Upper) > 0 && len(s.Upper) != m {
			return timetable.Request{}, fmt.Errorf("subject %s: upper bounds list %d weeks, expected %d", s.Symbology, len(s.Upper), m)
		}
	}

	in := timetable.Instance{Meetings: meetings, Capacity: f.Capacity}
	if customBounds {
		lower, err := timetable.MatrixFromRows(lowerRows)
		if err != nil {
			return timetable.Request{}, err
		}
		upper, err := timetable.MatrixFromRows(upperRows)
		if err != nil {
			return timetable.Request{}, err
		}
		in.Lower, in.Upper = lower, upper
	}

	cal, err := f.calendar()
	if err != nil {
		return timetable.Request{}, err
	}

	if f.Policy != "" {
		policy, err := timetable.ParsePolicy(f.Policy)
		if err != nil {
			return timetable.Request{}, err
		}
		cfg.Policy = policy
	}
	order := timetable.FillByShift
	if strings.EqualFold(f.FillOrder, string(timetable.FillByDay)) {
		order = timetable.FillByDay
	}

	return timetable.Request{
		Instance:   in,
		Activities: activities,
		Calendar:   cal,
		Balancer:   cfg,
		Order:      order,
	}, nil
}

func (f *instanceFile) calendar() (timetable.Calendar, error) {
	start, err := time.Parse(dateLayout, f.Start)
	if err != nil {
		return timetable.Calendar{}, fmt.Errorf("invalid start date %q: %w", f.Start, err)
	}
	cal := timetable.Calendar{Start: start}
	for _, raw := range f.BlackoutDays {
		day, err := time.Parse(dateLayout, raw)
		if err != nil {
			return timetable.Calendar{}, fmt.Errorf("invalid blackout day %q: %w", raw, err)
		}
		cal.BlackoutDays = append(cal.BlackoutDays, day)
	}
	for _, r := range f.BlackoutWeeks {
		rng, err := parseRange(r.Start, r.End)
		if err != nil {
			return timetable.Calendar{}, err
		}
		cal.BlackoutWeeks = append(cal.BlackoutWeeks, rng)
	}
	return cal, nil
}

// subjectRow is one line of a subjects CSV. List columns are separated by semicolons.
type subjectRow struct {
	Symbology  string `csv:"symbology"`
	Meetings   int    `csv:"meetings"`
	Activities string `csv:"activities"`
	Lower      string `csv:"lower"`
	Upper      string `csv:"upper"`
}

func loadSubjectsCSV(path string) ([]subjectEntry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subjects: %w", err)
	}
	return parseSubjectsCSV(raw)
}

func parseSubjectsCSV(raw []byte) ([]subjectEntry, error) {
	var rows []subjectRow
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode subjects csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("subjects csv has no rows")
	}
	out := make([]subjectEntry, 0, len(rows))
	for line, row := range rows {
		lower, err := splitInts(row.Lower)
		if err != nil {
			return nil, fmt.Errorf("subjects csv row %d lower: %w", line+1, err)
		}
		upper, err := splitInts(row.Upper)
		if err != nil {
			return nil, fmt.Errorf("subjects csv row %d upper: %w", line+1, err)
		}
		entry := subjectEntry{Symbology: row.Symbology, Meetings: row.Meetings, Lower: lower, Upper: upper}
		if row.Activities != "" {
			entry.Activities = strings.Split(row.Activities, ";")
		}
		out = append(out, entry)
	}
	return out, nil
}

func splitInts(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ";")
	values := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func (f *instanceFile) symbology(subject int) string {
	if subject < 0 || subject >= len(f.Subjects) {
		return ""
	}
	return f.Subjects[subject].Symbology
}

func parseRange(startRaw, endRaw string) (timetable.DateRange, error) {
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return timetable.DateRange{}, fmt.Errorf("invalid range start %q: %w", startRaw, err)
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return timetable.DateRange{}, fmt.Errorf("invalid range end %q: %w", endRaw, err)
	}
	if end.Before(start) {
		return timetable.DateRange{}, fmt.Errorf("range %s..%s ends before it starts", startRaw, endRaw)
	}
	return timetable.DateRange{Start: start, End: end}, nil
}

func boundRow(values []int, weeks, fallback int) []int {
	row := make([]int, weeks)
	for j := range row {
		if j < len(values) {
			row[j] = values[j]
			continue
		}
		row[j] = fallback
	}
	return row
}
