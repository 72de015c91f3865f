package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/schola-blog/schola-api/internal/models"
	"github.com/schola-blog/schola-api/pkg/export"
	appErrors "github.com/schola-blog/schola-api/pkg/errors"
)

// ExportFormat identifies a supported export rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type exportUserRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.UserWithRoles, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportPayload carries rendered export bytes and their content type.
type ExportPayload struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExportService renders the filtered user list as CSV or PDF.
type ExportService struct {
	users  exportUserRepository
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(users exportUserRepository, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{users: users, csv: csv, pdf: pdf, logger: logger}
}

// ExportUsers renders the filtered user list in the requested format. The
// filter page size is widened to the cap so an export covers a full page
// of administration data.
func (s *ExportService) ExportUsers(ctx context.Context, filter models.UserFilter, format ExportFormat) (*ExportPayload, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	if filter.PageSize <= 0 {
		filter.PageSize = 100
	}
	users, _, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users for export")
	}

	dataset := buildUserDataset(users)

	var payload []byte
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Users")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	contentType := "text/csv"
	if format == ExportFormatPDF {
		contentType = "application/pdf"
	}

	return &ExportPayload{
		Data:        payload,
		ContentType: contentType,
		Filename:    "users." + string(format),
	}, nil
}

func buildUserDataset(users []models.UserWithRoles) export.Dataset {
	headers := []string{"Username", "Name", "Email", "Active", "Admin", "Teacher", "Student"}
	rows := make([]map[string]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, map[string]string{
			"Username": u.Username,
			"Name":     u.FullName,
			"Email":    u.Email,
			"Active":   strconv.FormatBool(u.Active),
			"Admin":    strconv.FormatBool(u.IsAdmin),
			"Teacher":  strconv.FormatBool(u.IsTeacher),
			"Student":  strconv.FormatBool(u.IsStudent),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
