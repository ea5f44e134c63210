package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/ug1-portal-api/internal/models"
	appErrors "github.com/noah-isme/ug1-portal-api/pkg/errors"
	"github.com/noah-isme/ug1-portal-api/pkg/jobs"
)

type failingQueue struct{}

func (failingQueue) Enqueue(job jobs.Job) error { return errors.New("queue full") }

func TestNotificationDeliveredThroughQueue(t *testing.T) {
	store := &fakeNotificationStore{}
	svc := NewNotificationService(store, NewMetricsService(), nil)

	queue := jobs.NewQueue("notifications", svc.Handle, jobs.QueueConfig{Workers: 1, RetryDelay: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	queue.Start(ctx)
	defer queue.Stop()
	svc.AttachQueue(queue)

	form := submittedForm("f1")
	svc.FormEvent(context.Background(), form, string(models.UGFormStatusSubmitted))

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.items) == 2
	}, time.Second, 10*time.Millisecond)

	student, err := svc.ListMine(context.Background(), studentActor)
	require.NoError(t, err)
	require.Len(t, student, 1)
	assert.Contains(t, student[0].Message, "UG1-2026-00001")

	tutor, err := svc.ListMine(context.Background(), tutorActor)
	require.NoError(t, err)
	require.Len(t, tutor, 1)
	assert.Equal(t, "submitted", tutor[0].Event)
}

func TestNotificationFallsBackInline(t *testing.T) {
	store := &fakeNotificationStore{}
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewNotificationService(store, nil, zap.New(core))
	svc.AttachQueue(failingQueue{})

	form := submittedForm("f1")
	form.Status = models.UGFormStatusManagerApproved
	svc.FormEvent(context.Background(), form, string(models.UGFormStatusManagerApproved))

	require.Len(t, store.items, 1)
	assert.Contains(t, store.items[0].Message, "approved")
	assert.Equal(t, 1, logs.FilterMessage("notification queue unavailable, delivering inline").Len())
}

func TestNotificationListRequiresActor(t *testing.T) {
	svc := NewNotificationService(&fakeNotificationStore{}, nil, nil)
	_, err := svc.ListMine(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	items, err := svc.ListMine(context.Background(), studentActor)
	require.NoError(t, err)
	assert.NotNil(t, items)
}
