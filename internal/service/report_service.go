package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openvolunteer/vms-api/internal/dto"
	"github.com/openvolunteer/vms-api/internal/models"
	"github.com/openvolunteer/vms-api/internal/repository"
	appErrors "github.com/openvolunteer/vms-api/pkg/errors"
	"github.com/openvolunteer/vms-api/pkg/export"
	"github.com/openvolunteer/vms-api/pkg/timeutil"
)

type reportRepository interface {
	Rows(ctx context.Context, filter dto.ReportFilter, volunteerID string) ([]dto.ReportRow, error)
	Create(ctx context.Context, report *models.Report, volunteerShiftIDs []string) error
	List(ctx context.Context, status *models.ReportStatus) ([]models.ReportDetail, error)
	ListByVolunteer(ctx context.Context, volunteerID string) ([]models.ReportDetail, error)
	FindByID(ctx context.Context, id string) (*models.ReportDetail, error)
	MemberRows(ctx context.Context, reportID string) ([]dto.ReportRow, error)
	SetStatus(ctx context.Context, id string, status models.ReportStatus) error
}

// StoredReport pairs a persisted report with its member rows.
type StoredReport struct {
	models.ReportDetail
	Rows []dto.ReportRow `json:"rows"`
}

// ReportService generates on-the-fly hour summaries and manages the
// persisted report lifecycle.
type ReportService struct {
	repo      reportRepository
	assocs    associationReader
	cache     cacheStore
	cacheTTL  time.Duration
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReportService constructs ReportService.
func NewReportService(repo reportRepository, assocs associationReader, cache cacheStore, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ReportService{
		repo:      repo,
		assocs:    assocs,
		cache:     cache,
		cacheTTL:  cacheTTL,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
		logger:    logger,
	}
}

// Generate computes a summary over logged hours matching the filter.
// The summary is pure: nothing is persisted. Results are cached
// briefly keyed by the filter.
func (s *ReportService) Generate(ctx context.Context, filter dto.ReportFilter, scope dto.ReportScope, volunteerID string) (*dto.ReportSummary, error) {
	if scope == dto.ScopeSingleVolunteer && volunteerID == "" {
		return nil, appErrors.Validation(map[string]string{"volunteer_id": "volunteer is required for a single-volunteer report"})
	}
	if scope == dto.ScopeAllVolunteers {
		volunteerID = ""
	}

	key := s.cacheKey(filter, scope, volunteerID)
	if s.cache != nil {
		var cached dto.ReportSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	rows, err := s.repo.Rows(ctx, filter, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to query report rows")
	}
	summary := &dto.ReportSummary{Rows: rows}
	total := 0.0
	for i := range summary.Rows {
		hours, err := timeutil.DurationHours(summary.Rows[i].StartTime, summary.Rows[i].EndTime)
		if err != nil {
			s.logger.Warn("skipping unparseable logged hours",
				zap.String("signup_id", summary.Rows[i].VolunteerShiftID), zap.Error(err))
			continue
		}
		summary.Rows[i].Duration = hours
		total += hours
	}
	summary.TotalHours = timeutil.Round2(total)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache report summary", zap.Error(err))
		}
	}
	return summary, nil
}

// Submit persists a pending report over the listed associations. Every
// association must belong to the volunteer, carry hours, and not be
// claimed by another report.
func (s *ReportService) Submit(ctx context.Context, req dto.SubmitReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report payload")
	}

	total := 0.0
	for _, vsID := range req.VolunteerShiftIDs {
		assoc, err := s.assocs.FindByID(ctx, vsID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "signup not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signup")
		}
		if assoc.VolunteerID != req.VolunteerID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "signup belongs to another volunteer")
		}
		if !assoc.HasHours() {
			return nil, appErrors.Clone(appErrors.ErrStateInvalid, "signup has no logged hours")
		}
		if assoc.Reported {
			return nil, appErrors.Clone(appErrors.ErrStateInvalid, "signup already claimed by a report")
		}
		hours, err := timeutil.DurationHours(*assoc.StartTime, *assoc.EndTime)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute hours")
		}
		total += hours
	}

	report := &models.Report{
		VolunteerID: req.VolunteerID,
		TotalHours:  timeutil.Round2(total),
	}
	if err := s.repo.Create(ctx, report, req.VolunteerShiftIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit report")
	}
	s.invalidate(ctx)
	return report, nil
}

// List returns reports, optionally narrowed to one status.
func (s *ReportService) List(ctx context.Context, status *models.ReportStatus) ([]models.ReportDetail, error) {
	if status != nil && !status.Valid() {
		return nil, appErrors.Validation(map[string]string{"status": "unknown report status"})
	}
	reports, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// ListForVolunteer returns the volunteer's own reports.
func (s *ReportService) ListForVolunteer(ctx context.Context, volunteerID string) ([]models.ReportDetail, error) {
	reports, err := s.repo.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}

// Get returns a persisted report with its member rows.
func (s *ReportService) Get(ctx context.Context, id string) (*StoredReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}
	rows, err := s.repo.MemberRows(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report rows")
	}
	for i := range rows {
		if hours, err := timeutil.DurationHours(rows[i].StartTime, rows[i].EndTime); err == nil {
			rows[i].Duration = hours
		}
	}
	return &StoredReport{ReportDetail: *report, Rows: rows}, nil
}

// SetStatus decides a pending report. Only approved and rejected are
// legal targets; deciding twice is refused.
func (s *ReportService) SetStatus(ctx context.Context, id string, status models.ReportStatus) (*models.ReportDetail, error) {
	if status != models.ReportApproved && status != models.ReportRejected {
		return nil, appErrors.Validation(map[string]string{"status": "status must be approved or rejected"})
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		case errors.Is(err, repository.ErrNotPending):
			return nil, appErrors.Clone(appErrors.ErrStateInvalid, "report already decided")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report")
	}
	s.invalidate(ctx)
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload report")
	}
	return report, nil
}

// ExportCSV renders a generated summary as CSV.
func (s *ReportService) ExportCSV(ctx context.Context, filter dto.ReportFilter, scope dto.ReportScope, volunteerID string) ([]byte, error) {
	summary, err := s.Generate(ctx, filter, scope, volunteerID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(s.dataset(summary))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return payload, nil
}

// ExportPDF renders a generated summary as a tabular PDF.
func (s *ReportService) ExportPDF(ctx context.Context, filter dto.ReportFilter, scope dto.ReportScope, volunteerID string) ([]byte, error) {
	summary, err := s.Generate(ctx, filter, scope, volunteerID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(s.dataset(summary), "Volunteer Hours Report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return payload, nil
}

func (s *ReportService) dataset(summary *dto.ReportSummary) export.Dataset {
	data := export.Dataset{
		Headers: []string{"Volunteer", "Event", "Job", "Date", "Start", "End", "Hours"},
	}
	for _, row := range summary.Rows {
		data.Rows = append(data.Rows, map[string]string{
			"Volunteer": row.FirstName + " " + row.LastName,
			"Event":     row.EventName,
			"Job":       row.JobName,
			"Date":      timeutil.FormatDate(row.ShiftDate),
			"Start":     row.StartTime,
			"End":       row.EndTime,
			"Hours":     fmt.Sprintf("%.2f", row.Duration),
		})
	}
	data.Rows = append(data.Rows, map[string]string{
		"Volunteer": "Total",
		"Hours":     fmt.Sprintf("%.2f", summary.TotalHours),
	})
	return data
}

func (s *ReportService) cacheKey(filter dto.ReportFilter, scope dto.ReportScope, volunteerID string) string {
	payload, _ := json.Marshal(struct {
		Filter      dto.ReportFilter `json:"filter"`
		Scope       dto.ReportScope  `json:"scope"`
		VolunteerID string           `json:"volunteer_id"`
	}{filter, scope, volunteerID})
	sum := sha256.Sum256(payload)
	return "reports:summary:" + hex.EncodeToString(sum[:8])
}

func (s *ReportService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "reports:summary:*"); err != nil {
		s.logger.Warn("failed to invalidate report cache", zap.Error(err))
	}
}
