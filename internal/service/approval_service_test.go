package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ug1-portal-api/internal/dto"
	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type approvalFixture struct {
	repo          *fakeUGFormRepo
	audit         *fakeAuditWriter
	notifications *fakeNotificationStore
	cache         *memoryCacheRepo
	svc           *ApprovalService
}

func newApprovalFixture(forms ...*models.UGForm) approvalFixture {
	repo := newFakeUGFormRepo(forms...)
	audit := &fakeAuditWriter{}
	store := &fakeNotificationStore{}
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	notifier := NewNotificationService(store, nil, nil)
	svc := NewApprovalService(repo, NewUGFormWorkflow(repo), audit, cache, nil, notifier, nil)
	return approvalFixture{repo: repo, audit: audit, notifications: store, cache: cacheRepo, svc: svc}
}

func formWith(id string, mutate func(f *models.UGForm)) *models.UGForm {
	f := submittedForm(id)
	mutate(f)
	return f
}

func TestApprovalSignThenApprove(t *testing.T) {
	fx := newApprovalFixture(submittedForm("f1"))
	ctx := context.Background()
	meta := models.RequestMeta{IP: "10.0.0.1", UserAgent: "test"}

	signed, err := fx.svc.TutorDecide(ctx, tutorActor, dto.TutorActionRequest{FormID: "f1", Action: "sign", TutorSignature: "J. Doe"}, meta)
	require.NoError(t, err)
	assert.Equal(t, models.UGFormStatusSubmitted, signed.PreviousStatus)
	assert.Equal(t, models.UGFormStatusTutorApproved, signed.Status)
	assert.NotNil(t, signed.Form.TutorSignedAt)

	approved, err := fx.svc.ManagerDecide(ctx, managerActor, dto.ManagerActionRequest{FormID: "f1", Action: "approve"}, meta)
	require.NoError(t, err)
	assert.Equal(t, models.UGFormStatusManagerApproved, approved.Status)
	require.NotNil(t, approved.Form.CompletedAt)
	require.NotNil(t, approved.Form.PDFGenerated)
	assert.Equal(t, models.PDFFlags{}, *approved.Form.PDFGenerated)

	require.Len(t, fx.audit.logs, 2)
	assert.Equal(t, models.AuditActionUGFormTutorSign, fx.audit.logs[0].Action)
	assert.Equal(t, models.AuditActionUGFormManagerApprove, fx.audit.logs[1].Action)
	assert.Equal(t, "ugforms", fx.audit.logs[1].Resource)
	assert.Equal(t, "10.0.0.1", fx.audit.logs[1].IPAddress)
	assert.JSONEq(t, `{"status":"tutor_approved"}`, string(fx.audit.logs[1].OldValues))

	events := make([]string, 0, len(fx.notifications.items))
	for _, n := range fx.notifications.items {
		require.NotNil(t, n.RecipientID)
		assert.Equal(t, "student-1", *n.RecipientID)
		events = append(events, n.Event)
	}
	assert.Equal(t, []string{"tutor_approved", "manager_approved"}, events)
}

func TestApprovalManagerApproveBeforeTutor(t *testing.T) {
	fx := newApprovalFixture(submittedForm("f1"))

	_, err := fx.svc.ManagerDecide(context.Background(), managerActor, dto.ManagerActionRequest{FormID: "f1", Action: "approve"}, models.RequestMeta{})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)
	assert.Equal(t, models.UGFormStatusSubmitted, fx.repo.get("f1").Status)
	assert.Empty(t, fx.audit.logs)
	assert.Empty(t, fx.notifications.items)
}

func TestApprovalOtherTutorForbidden(t *testing.T) {
	fx := newApprovalFixture(submittedForm("f1"))

	_, err := fx.svc.TutorDecide(context.Background(), otherTutor, dto.TutorActionRequest{FormID: "f1", Action: "sign", TutorSignature: "B"}, models.RequestMeta{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Equal(t, models.UGFormStatusSubmitted, fx.repo.get("f1").Status)
}

func TestApprovalRejectRequiresReason(t *testing.T) {
	fx := newApprovalFixture(submittedForm("f1"))

	_, err := fx.svc.TutorDecide(context.Background(), tutorActor, dto.TutorActionRequest{FormID: "f1", Action: "reject"}, models.RequestMeta{})
	require.Error(t, err)
	assert.Equal(t, "rejectionReason", appErrors.FromError(err).Field)

	res, err := fx.svc.TutorDecide(context.Background(), tutorActor, dto.TutorActionRequest{FormID: "f1", Action: "Reject", RejectionReason: "wrong subjects"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.UGFormStatusTutorRejected, res.Status)
	require.NotNil(t, res.Form.RejectionReason)
	assert.Equal(t, "wrong subjects", *res.Form.RejectionReason)
}

func TestApprovalUnknownAction(t *testing.T) {
	fx := newApprovalFixture(submittedForm("f1"))

	_, err := fx.svc.TutorDecide(context.Background(), tutorActor, dto.TutorActionRequest{FormID: "f1", Action: "approve"}, models.RequestMeta{})
	assert.Equal(t, "action", appErrors.FromError(err).Field)
	_, err = fx.svc.ManagerDecide(context.Background(), managerActor, dto.ManagerActionRequest{FormID: "f1", Action: "sign"}, models.RequestMeta{})
	assert.Equal(t, "action", appErrors.FromError(err).Field)
}

func TestTutorQueueScopedStats(t *testing.T) {
	fx := newApprovalFixture(
		submittedForm("f1"),
		formWith("f2", func(f *models.UGForm) { f.Status = models.UGFormStatusTutorApproved }),
		formWith("f3", func(f *models.UGForm) { f.Status = models.UGFormStatusManagerApproved }),
		formWith("f4", func(f *models.UGForm) { f.Status = models.UGFormStatusTutorRejected }),
		formWith("f5", func(f *models.UGForm) { f.TutorEmail = "other@uni.edu" }),
	)

	queue, err := fx.svc.TutorQueue(context.Background(), tutorActor, dto.QueueQuery{})
	require.NoError(t, err)
	assert.Len(t, queue.Forms, 4)
	assert.Equal(t, dto.TutorStats{Pending: 1, Signed: 2, Rejected: 1, Total: 4}, queue.Stats)
	assert.Equal(t, 4, queue.Pagination.TotalCount)

	pending, err := fx.svc.TutorQueue(context.Background(), tutorActor, dto.QueueQuery{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending.Forms, 1)
	assert.Equal(t, "f1", pending.Forms[0].ID)

	_, err = fx.svc.TutorQueue(context.Background(), tutorActor, dto.QueueQuery{Status: "archived"})
	assert.Equal(t, "status", appErrors.FromError(err).Field)

	_, err = fx.svc.TutorQueue(context.Background(), managerActor, dto.QueueQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestManagerQueueScopedToDepartment(t *testing.T) {
	fx := newApprovalFixture(
		submittedForm("f1"),
		formWith("f2", func(f *models.UGForm) { f.Status = models.UGFormStatusTutorApproved }),
		formWith("f3", func(f *models.UGForm) { f.Status = models.UGFormStatusCollectorRejected }),
		formWith("f4", func(f *models.UGForm) {
			f.Status = models.UGFormStatusTutorApproved
			f.DepartmentName = "EE"
		}),
	)

	queue, err := fx.svc.ManagerQueue(context.Background(), managerActor, dto.QueueQuery{})
	require.NoError(t, err)
	require.Len(t, queue.Forms, 2)
	assert.Equal(t, dto.ManagerStats{Pending: 1, Approved: 0, Rejected: 1, Total: 2}, queue.Stats)

	ee, err := fx.svc.ManagerQueue(context.Background(), otherManager, dto.QueueQuery{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, ee.Forms, 1)
	assert.Equal(t, "f4", ee.Forms[0].ID)
}

func TestQueueStatsCachedUntilTransition(t *testing.T) {
	fx := newApprovalFixture(submittedForm("f1"))
	ctx := context.Background()

	_, err := fx.svc.TutorQueue(ctx, tutorActor, dto.QueueQuery{})
	require.NoError(t, err)
	_, err = fx.svc.TutorQueue(ctx, tutorActor, dto.QueueQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, fx.repo.countCalls)

	_, err = fx.svc.TutorDecide(ctx, tutorActor, dto.TutorActionRequest{FormID: "f1", Action: "sign", TutorSignature: "J. Doe"}, models.RequestMeta{})
	require.NoError(t, err)
	assert.Contains(t, fx.cache.deletes, "ugform:stats:*")

	queue, err := fx.svc.TutorQueue(ctx, tutorActor, dto.QueueQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, fx.repo.countCalls)
	assert.Equal(t, 1, queue.Stats.Signed)
}
