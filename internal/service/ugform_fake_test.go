package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	"github.com/noah-isme/ug1-portal-api/internal/repository"
)

// fakeUGFormRepo is an in-memory form store honouring the conditional update contract.
type fakeUGFormRepo struct {
	mu         sync.Mutex
	forms      map[string]*models.UGForm
	seq        int
	writes     int
	countCalls int
	nextID     int
}

func newFakeUGFormRepo(forms ...*models.UGForm) *fakeUGFormRepo {
	repo := &fakeUGFormRepo{forms: map[string]*models.UGForm{}}
	for _, f := range forms {
		repo.forms[f.ID] = f
	}
	return repo
}

func (f *fakeUGFormRepo) get(id string) models.UGForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.forms[id]
}

func (f *fakeUGFormRepo) NextFormNumber(ctx context.Context, year int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return fmt.Sprintf("UG1-%d-%05d", year, f.seq), nil
}

func (f *fakeUGFormRepo) Create(ctx context.Context, form *models.UGForm) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.forms {
		if existing.RegisteredNo == form.RegisteredNo && existing.Semester == form.Semester &&
			existing.DegreeName == form.DegreeName && existing.Session == form.Session && isActive(existing.Status) {
			return repository.ErrDuplicateActiveForm
		}
	}
	f.nextID++
	if form.ID == "" {
		form.ID = fmt.Sprintf("form-%d", f.nextID)
	}
	if form.Status == "" {
		form.Status = models.UGFormStatusSubmitted
	}
	clone := *form
	f.forms[form.ID] = &clone
	f.writes++
	return nil
}

func (f *fakeUGFormRepo) FindByID(ctx context.Context, id string) (*models.UGForm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	form, ok := f.forms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *form
	return &clone, nil
}

func (f *fakeUGFormRepo) FindActiveByTuple(ctx context.Context, registeredNo string, semester int, degree, session string) (*models.UGForm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, form := range f.forms {
		if form.RegisteredNo == registeredNo && form.Semester == semester && form.DegreeName == degree &&
			form.Session == session && isActive(form.Status) {
			clone := *form
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUGFormRepo) LatestByRegisteredNo(ctx context.Context, registeredNo string) (*models.UGForm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.UGForm
	for _, form := range f.forms {
		if form.RegisteredNo != registeredNo {
			continue
		}
		if latest == nil || form.CreatedAt.After(latest.CreatedAt) {
			latest = form
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	clone := *latest
	return &clone, nil
}

func (f *fakeUGFormRepo) List(ctx context.Context, filter models.UGFormFilter) ([]models.UGForm, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.UGForm
	for _, form := range f.forms {
		if !inScope(form, filter.Scope) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, form.Status) {
			continue
		}
		out = append(out, *form)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (f *fakeUGFormRepo) CountByStatus(ctx context.Context, scope models.UGFormScope) (models.UGFormStatusCounts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countCalls++
	counts := models.UGFormStatusCounts{}
	for _, form := range f.forms {
		if inScope(form, scope) {
			counts[form.Status]++
		}
	}
	return counts, nil
}

func (f *fakeUGFormRepo) ApplyTransition(ctx context.Context, t models.UGFormTransition) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	form, ok := f.forms[t.ID]
	if !ok || form.Status != t.From {
		return sql.ErrNoRows
	}
	t.Apply(form)
	f.writes++
	return nil
}

func (f *fakeUGFormRepo) MarkPDFGenerated(ctx context.Context, id string, variant models.PDFCopy) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	form, ok := f.forms[id]
	if !ok || form.Status != models.UGFormStatusManagerApproved {
		return sql.ErrNoRows
	}
	if form.PDFGenerated == nil {
		form.PDFGenerated = &models.PDFFlags{}
	}
	form.PDFGenerated.Mark(variant)
	return nil
}

func isActive(status models.UGFormStatus) bool {
	return containsStatus(models.ActiveUGFormStatuses, status)
}

func containsStatus(list []models.UGFormStatus, status models.UGFormStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

func inScope(form *models.UGForm, scope models.UGFormScope) bool {
	if scope.TutorEmail != "" && !strings.EqualFold(scope.TutorEmail, form.TutorEmail) {
		return false
	}
	if scope.DepartmentName != "" && scope.DepartmentName != form.DepartmentName {
		return false
	}
	if scope.RegisteredNo != "" && scope.RegisteredNo != form.RegisteredNo {
		return false
	}
	return true
}

type fakeAuditWriter struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *fakeAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func (a *fakeAuditWriter) ListAuditLogs(ctx context.Context, resource, resourceID string) ([]models.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditLog
	for _, l := range a.logs {
		if l.Resource == resource && l.ResourceID != nil && *l.ResourceID == resourceID {
			out = append(out, *l)
		}
	}
	return out, nil
}

type fakeNotificationStore struct {
	mu    sync.Mutex
	items []models.Notification
}

func (n *fakeNotificationStore) Create(ctx context.Context, item *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, *item)
	return nil
}

func (n *fakeNotificationStore) ListForRecipient(ctx context.Context, userID, email string, limit int) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []models.Notification
	for _, item := range n.items {
		if (item.RecipientID != nil && *item.RecipientID == userID) || (item.RecipientEmail != nil && strings.EqualFold(*item.RecipientEmail, email)) {
			out = append(out, item)
		}
	}
	return out, nil
}

func submittedForm(id string) *models.UGForm {
	return &models.UGForm{
		ID:             id,
		FormNumber:     "UG1-2026-00001",
		RegisteredNo:   "2021-ag-001",
		StudentName:    "Ali",
		DepartmentName: "CS",
		DegreeName:     "BS Computer Science",
		Semester:       3,
		Session:        "2024-2025",
		TutorEmail:     "tutor@uni.edu",
		Status:         models.UGFormStatusSubmitted,
		SubmittedBy:    "student-1",
	}
}

var (
	tutorActor   = &models.JWTClaims{UserID: "tutor-1", Role: models.RoleTutor, Email: "Tutor@Uni.edu", Department: "CS"}
	otherTutor   = &models.JWTClaims{UserID: "tutor-2", Role: models.RoleTutor, Email: "other@uni.edu", Department: "CS"}
	managerActor = &models.JWTClaims{UserID: "manager-1", Role: models.RoleManager, Email: "manager@uni.edu", Department: "CS"}
	otherManager = &models.JWTClaims{UserID: "manager-2", Role: models.RoleManager, Email: "mgr@uni.edu", Department: "EE"}
	studentActor = &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent, RegistrationNumber: "2021-ag-001", FullName: "Ali"}
)
