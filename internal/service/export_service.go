package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/sanzad/portal-api/internal/models"
	appErrors "github.com/sanzad/portal-api/pkg/errors"
	"github.com/sanzad/portal-api/pkg/export"
)

// Supported export formats for the admin console download endpoints.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

type exportAccountLister interface {
	List(ctx context.Context, filter models.AccountFilter) ([]models.AccountSummary, error)
}

type exportInstitutionLister interface {
	List(ctx context.Context, status *models.InstitutionStatus) ([]models.Institution, error)
}

// ExportResult carries a rendered download.
type ExportResult struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ExportService renders the account directory and institution registry
// as CSV or PDF downloads for the super-admin console.
type ExportService struct {
	accounts     exportAccountLister
	institutions exportInstitutionLister
	csv          *export.CSVExporter
	pdf          *export.PDFExporter
	logger       *zap.Logger
}

// NewExportService creates an instance of ExportService.
func NewExportService(accounts exportAccountLister, institutions exportInstitutionLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		accounts:     accounts,
		institutions: institutions,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
		logger:       logger,
	}
}

// ExportAccounts renders the full account directory.
func (s *ExportService) ExportAccounts(ctx context.Context, format string) (*ExportResult, error) {
	accounts, err := s.accounts.List(ctx, models.AccountFilter{})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accounts")
	}

	headers := []string{"ID", "Code", "Full Name", "Email", "Role", "Phone", "Institution", "Status"}
	rows := make([]map[string]string, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, map[string]string{
			"ID":          strconv.FormatInt(a.ID, 10),
			"Code":        a.Code,
			"Full Name":   a.FullName,
			"Email":       a.Email,
			"Role":        string(a.Role),
			"Phone":       a.Phone,
			"Institution": a.InstitutionName,
			"Status":      string(a.Status),
		})
	}

	return s.render(format, "accounts", "Account Directory", export.Dataset{Headers: headers, Rows: rows})
}

// ExportInstitutions renders the institution registry.
func (s *ExportService) ExportInstitutions(ctx context.Context, format string) (*ExportResult, error) {
	institutions, err := s.institutions.List(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list institutions")
	}

	headers := []string{"ID", "Name", "Code", "Status", "Country", "City"}
	rows := make([]map[string]string, 0, len(institutions))
	for _, inst := range institutions {
		rows = append(rows, map[string]string{
			"ID":      strconv.FormatInt(inst.ID, 10),
			"Name":    inst.Name,
			"Code":    inst.Code,
			"Status":  string(inst.Status),
			"Country": inst.Country,
			"City":    inst.City,
		})
	}

	return s.render(format, "institutions", "Institution Registry", export.Dataset{Headers: headers, Rows: rows})
}

func (s *ExportService) render(format, name, title string, data export.Dataset) (*ExportResult, error) {
	switch format {
	case FormatCSV:
		content, err := s.csv.Render(data)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Filename: name + ".csv", ContentType: "text/csv", Content: content}, nil
	case FormatPDF:
		content, err := s.pdf.Render(data, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Filename: name + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown export format %q", format))
	}
}
