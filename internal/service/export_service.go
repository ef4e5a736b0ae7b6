package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-balancer/internal/models"
	"github.com/noah-isme/timetable-balancer/internal/timetable"
	"github.com/noah-isme/timetable-balancer/pkg/export"
	"github.com/noah-isme/timetable-balancer/pkg/storage"
)

type exportScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(rows []export.SlotRow) ([]byte, error)
}

type pdfRenderer interface {
	Render(grid export.Grid) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders stored schedules and persists the files behind signed URLs.
type ExportService struct {
	schedules  exportScheduleReader
	classTimes classTimeReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(schedules exportScheduleReader, classTimes classTimeReader, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		schedules:  schedules,
		classTimes: classTimes,
		storage:    storage,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate renders the job's schedule and stores the file.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	schedule, err := s.schedules.FindByID(ctx, job.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule %s: %w", job.ScheduleID, err)
	}
	views, err := s.classTimes.ListViewBySchedule(ctx, job.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("load class times: %w", err)
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(slotRows(views))
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(scheduleGrid(schedule, views))
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		return nil, err
	}

	token, grant, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/exports/download/%s", signedURL, token)

	s.logger.Debug("export rendered",
		zap.String("job_id", job.ID),
		zap.String("schedule_id", job.ScheduleID),
		zap.Int("class_times", len(views)),
		zap.Int("bytes", len(payload)),
	)
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Format,
		ExpiresAt:    grant.ExpiresAt,
	}, nil
}

// ParseToken verifies a download token and returns the file grant it carries.
func (s *ExportService) ParseToken(token string, allowExpired bool) (storage.Grant, error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("schedule_%s_%s.%s", sanitizeFilename(job.ScheduleID), timestamp, job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func slotRows(views []models.ClassTimeView) []export.SlotRow {
	rows := make([]export.SlotRow, 0, len(views))
	for _, v := range views {
		teacher := ""
		if v.TeacherName != nil {
			teacher = *v.TeacherName
		}
		rows = append(rows, export.SlotRow{
			Week:       v.Week,
			Date:       v.Day.Format(dateLayout),
			Weekday:    v.Day.Weekday().String(),
			Shift:      v.Number,
			Subject:    v.SubjectName,
			Symbology:  v.SubjectSymbology,
			Teacher:    teacher,
			Activities: strings.Join(v.Activities, ","),
		})
	}
	return rows
}

var gridDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// scheduleGrid lays class times out one block per week. Saturday only gets a
// column when something is scheduled on it.
func scheduleGrid(schedule *models.Schedule, views []models.ClassTimeView) export.Grid {
	days := 5
	shifts := 0
	weeks := make(map[int][]models.ClassTimeView)
	for _, v := range views {
		weeks[v.Week] = append(weeks[v.Week], v)
		if idx := timetable.WeekdayIndex(v.Day); idx >= days {
			days = idx + 1
		}
		if v.Number > shifts {
			shifts = v.Number
		}
	}
	if days > len(gridDays) {
		days = len(gridDays)
	}

	order := make([]int, 0, len(weeks))
	for w := range weeks {
		order = append(order, w)
	}
	sort.Ints(order)

	grid := export.Grid{
		Title:    "Timetable",
		Subtitle: fmt.Sprintf("Career %s / Year %s", schedule.CareerID, schedule.YearID),
		Days:     gridDays[:days],
	}
	if schedule.Group != nil && *schedule.Group != "" {
		grid.Subtitle += " / Group " + *schedule.Group
	}
	for _, w := range order {
		cells := make([][]string, shifts)
		for i := range cells {
			cells[i] = make([]string, days)
		}
		monday := ""
		for _, v := range weeks[w] {
			d := timetable.WeekdayIndex(v.Day)
			if d >= days || v.Number < 1 {
				continue
			}
			if monday == "" {
				monday = v.Day.AddDate(0, 0, -d).Format("01/02")
			}
			text := v.SubjectSymbology
			if len(v.Activities) > 0 {
				text += " (" + strings.Join(v.Activities, ",") + ")"
			}
			if existing := cells[v.Number-1][d]; existing != "" {
				text = existing + " / " + text
			}
			cells[v.Number-1][d] = text
		}
		grid.Weeks = append(grid.Weeks, export.GridWeek{Label: fmt.Sprintf("W%d %s", w, monday), Cells: cells})
	}
	return grid
}
