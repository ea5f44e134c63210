package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
	"github.com/noah-isme/ug1-portal-api/pkg/export"
)

type pdfFormStore interface {
	FindByID(ctx context.Context, id string) (*models.UGForm, error)
	MarkPDFGenerated(ctx context.Context, id string, variant models.PDFCopy) error
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type documentRenderer interface {
	Render(doc export.Document) ([]byte, error)
}

type downloadSigner interface {
	Generate(ref, relPath string) (string, time.Time, error)
	Parse(token string) (ref, relPath string, expiresAt time.Time, err error)
}

// PDFConfig tunes copy rendering and download links.
type PDFConfig struct {
	APIPrefix string
	Retention time.Duration
}

var copyTitles = map[models.PDFCopy]string{
	models.PDFCopyStudent:  "Student copy",
	models.PDFCopyAdvisor:  "Advisor copy",
	models.PDFCopyControl:  "Controller of examinations copy",
	models.PDFCopyDirector: "Director copy",
}

// UGFormPDFService renders printable copies of approved forms and serves them through signed links.
type UGFormPDFService struct {
	repo     pdfFormStore
	storage  fileStorage
	renderer documentRenderer
	signer   downloadSigner
	audit    auditLogWriter
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      PDFConfig
}

// NewUGFormPDFService constructs the PDF dispatch service.
func NewUGFormPDFService(repo pdfFormStore, storage fileStorage, signer downloadSigner, audit auditLogWriter, metrics *MetricsService, renderer documentRenderer, cfg PDFConfig, logger *zap.Logger) *UGFormPDFService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	return &UGFormPDFService{repo: repo, storage: storage, renderer: renderer, signer: signer, audit: audit, metrics: metrics, logger: logger, cfg: cfg}
}

// Generate renders one copy of an approved form. Managers may print any copy of their
// department's forms; students only their own student copy.
func (s *UGFormPDFService) Generate(ctx context.Context, actor *models.JWTClaims, formID, rawCopy string, meta models.RequestMeta) (*dto.PDFLinkResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if strings.TrimSpace(rawCopy) == "" {
		rawCopy = string(models.PDFCopyStudent)
	}
	variant, ok := models.ParsePDFCopy(strings.ToLower(strings.TrimSpace(rawCopy)))
	if !ok {
		return nil, appErrors.Validation("copy", "copy must be one of student, advisor, control, director")
	}

	form, err := s.repo.FindByID(ctx, strings.TrimSpace(formID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
		}
		return nil, appErrors.Internal(err, "failed to load form")
	}

	switch actor.Role {
	case models.RoleManager:
		if !managerOwns(actor, form) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "form belongs to another department")
		}
	case models.RoleStudent:
		if !strings.EqualFold(form.RegisteredNo, actor.RegistrationNumber) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "form not found")
		}
		if variant != models.PDFCopyStudent {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only print the student copy")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to print forms")
	}

	if form.Status != models.UGFormStatusManagerApproved {
		return nil, invalidState(form.Status, "copies are available once the form is approved")
	}

	payload, err := s.renderer.Render(buildDocument(form, variant))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render pdf")
	}
	relPath, err := s.storage.Save(path.Join("ugforms", sanitizeSegment(form.FormNumber), string(variant)+".pdf"), payload)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store pdf")
	}

	if err := s.repo.MarkPDFGenerated(ctx, form.ID, variant); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, invalidState(form.Status, "form changed while rendering")
		}
		return nil, appErrors.Internal(err, "failed to record pdf generation")
	}
	flags := models.PDFFlags{}
	if form.PDFGenerated != nil {
		flags = *form.PDFGenerated
	}
	flags.Mark(variant)
	s.metrics.RecordPDFRender(string(variant))

	token, expiresAt, err := s.signer.Generate(form.ID, relPath)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign download link")
	}

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionUGFormPDF,
			Resource:   "ugforms",
			ResourceID: &form.ID,
			NewValues:  []byte(fmt.Sprintf(`{"copy":%q}`, variant)),
			IPAddress:  meta.IP,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			s.logger.Warn("failed to record pdf audit log", zap.String("form_id", form.ID), zap.Error(err))
		}
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api"
	}
	return &dto.PDFLinkResponse{
		FormID:    form.ID,
		Copy:      variant,
		URL:       fmt.Sprintf("%s/downloads/%s", prefix, token),
		ExpiresAt: expiresAt,
		Generated: flags,
	}, nil
}

// Download validates a signed token and opens the referenced file.
func (s *UGFormPDFService) Download(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		e := appErrors.Clone(appErrors.ErrInvalidCredential, "download link is invalid or expired")
		e.Err = err
		return nil, "", e
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file no longer available")
	}
	return file, path.Base(path.Dir(relPath)) + "-" + path.Base(relPath), nil
}

// Cleanup removes stored copies older than the retention window.
func (s *UGFormPDFService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.Retention)
}

// RunCleanup calls Cleanup every interval until ctx is cancelled.
func (s *UGFormPDFService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.Cleanup()
			if err != nil {
				s.logger.Warn("pdf cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("pdf cleanup", zap.Int("deleted", len(deleted)))
			}
		}
	}
}

func buildDocument(form *models.UGForm, variant models.PDFCopy) export.Document {
	rows := make([]map[string]string, 0, len(form.Subjects)+len(form.ExtraSubjects))
	appendRows := func(list models.SubjectList) {
		for _, subj := range list {
			kind := "Regular"
			if subj.IsExtra {
				kind = "Extra"
			}
			credits := subj.CreditHours
			if credits == "" {
				credits = fmt.Sprintf("%d(%d-%d)", subj.TotalCredits, subj.TheoryHours, subj.PracticalHours)
			}
			rows = append(rows, map[string]string{
				"Code":    subj.Code,
				"Title":   subj.Name,
				"Credits": credits,
				"Type":    kind,
			})
		}
	}
	appendRows(form.Subjects)
	appendRows(form.ExtraSubjects)

	signature := ""
	if form.TutorSignature != nil {
		signature = *form.TutorSignature
	}
	return export.Document{
		Title:    "UG-1 Course Registration Form",
		Subtitle: copyTitles[variant],
		Fields: []export.Field{
			{Label: "Form No", Value: form.FormNumber},
			{Label: "Registered No", Value: form.RegisteredNo},
			{Label: "Student", Value: form.StudentName},
			{Label: "Father", Value: form.FatherName},
			{Label: "Department", Value: form.DepartmentName},
			{Label: "Degree", Value: form.DegreeName},
			{Label: "Semester / Section", Value: strconv.Itoa(form.Semester) + " / " + form.Section},
			{Label: "Session", Value: form.Session},
			{Label: "Admission Term", Value: form.AdmissionTerm},
			{Label: "Tutor", Value: form.TutorName},
		},
		Table: export.Dataset{
			Headers: []string{"Code", "Title", "Credits", "Type"},
			Rows:    rows,
		},
		Summary: []export.Field{
			{Label: "Total Credit Hours", Value: strconv.Itoa(form.TotalCreditHours)},
			{Label: "Tutor Signature", Value: signature},
			{Label: "Approved At", Value: formatTime(form.ManagerApprovedAt)},
		},
		Signatures: []string{"Student", "Tutor", "Manager"},
	}
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func sanitizeSegment(raw string) string {
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", "..", ".")
	result := replacer.Replace(raw)
	if result == "" {
		return "unnumbered"
	}
	return result
}
