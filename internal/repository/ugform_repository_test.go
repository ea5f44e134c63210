package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ug1-portal-api/internal/models"
)

var ugformRowColumns = []string{"id", "form_number", "registered_no", "student_name", "father_name", "department_name", "degree_name",
	"semester", "section", "session", "admission_term", "tutor_name", "tutor_email", "subjects", "extra_subjects", "total_credit_hours",
	"status", "tutor_signature", "tutor_signed_at", "tutor_action_at", "rejection_reason", "verification_notes", "manager_approved_at",
	"collector_rejected_at", "completed_at", "pdf_generated", "submitted_by", "created_at", "updated_at"}

func ugformRow(id string, status models.UGFormStatus) []driver.Value {
	now := time.Now()
	return []driver.Value{id, "UG1-2026-00001", "2021-ag-001", "Ali", "Khan", "CS", "BS Computer Science",
		3, "A", "2024-2025", "Fall", "J. Doe", "tutor@uni.edu",
		[]byte(`[{"code":"CS-301","name":"Databases","creditHours":"3(2-1)","theoryHours":2,"practicalHours":1,"totalCredits":3,"isExtra":false}]`),
		[]byte(`[]`), 3, string(status), nil, nil, nil, nil, nil, nil, nil, nil, nil, "student-1", now, now}
}

func TestUGFormRepositoryNextFormNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO form_sequences (year, value) VALUES ($1, 1)")).
		WithArgs(2026).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(42))

	number, err := repo.NextFormNumber(context.Background(), 2026)
	require.NoError(t, err)
	assert.Equal(t, "UG1-2026-00042", number)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectExec("INSERT INTO ugforms").WillReturnResult(sqlmock.NewResult(1, 1))
	form := &models.UGForm{FormNumber: "UG1-2026-00001", RegisteredNo: "2021-ag-001", Semester: 3,
		Subjects: models.SubjectList{{Code: "CS-301", Name: "Databases", TotalCredits: 3}}}
	require.NoError(t, repo.Create(context.Background(), form))
	assert.NotEmpty(t, form.ID)
	assert.Equal(t, models.UGFormStatusSubmitted, form.Status)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ugforms WHERE id = $1")).
		WithArgs(form.ID).
		WillReturnRows(sqlmock.NewRows(ugformRowColumns).AddRow(ugformRow(form.ID, models.UGFormStatusSubmitted)...))

	found, err := repo.FindByID(context.Background(), form.ID)
	require.NoError(t, err)
	require.Len(t, found.Subjects, 1)
	assert.Equal(t, "3(2-1)", found.Subjects[0].CreditHours)
	assert.Nil(t, found.PDFGenerated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryCreateDuplicateTuple(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectExec("INSERT INTO ugforms").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "ugforms_active_tuple_idx"})

	err := repo.Create(context.Background(), &models.UGForm{FormNumber: "UG1-2026-00002"})
	assert.ErrorIs(t, err, ErrDuplicateActiveForm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryFindActiveByTuple(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(registered_no) = LOWER($1) AND semester = $2")+".*"+regexp.QuoteMeta("status IN ($5, $6)")).
		WithArgs("2021-ag-001", 3, "BS Computer Science", "2024-2025", models.UGFormStatusSubmitted, models.UGFormStatusTutorApproved).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByTuple(context.Background(), "2021-ag-001", 3, "BS Computer Science", "2024-2025")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryListScoped(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ugforms WHERE LOWER(tutor_email) = LOWER($1) AND status IN ($2) ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("tutor@uni.edu", models.UGFormStatusSubmitted).
		WillReturnRows(sqlmock.NewRows(ugformRowColumns).AddRow(ugformRow("f1", models.UGFormStatusSubmitted)...))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ugforms WHERE LOWER(tutor_email) = LOWER($1) AND status IN ($2)")).
		WithArgs("tutor@uni.edu", models.UGFormStatusSubmitted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	forms, total, err := repo.List(context.Background(), models.UGFormFilter{
		Scope:    models.UGFormScope{TutorEmail: "tutor@uni.edu"},
		Statuses: []models.UGFormStatus{models.UGFormStatusSubmitted},
	})
	require.NoError(t, err)
	assert.Len(t, forms, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) AS total FROM ugforms WHERE department_name = $1 GROUP BY status")).
		WithArgs("CS").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow("tutor_approved", 4).
			AddRow("manager_approved", 2))

	counts, err := repo.CountByStatus(context.Background(), models.UGFormScope{DepartmentName: "CS"})
	require.NoError(t, err)
	assert.Equal(t, 4, counts[models.UGFormStatusTutorApproved])
	assert.Equal(t, 6, counts.Total())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryApplyTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	now := time.Now().UTC()
	signature := "J. Doe"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE ugforms SET status = ?, updated_at = ?, tutor_signature = ?, tutor_signed_at = ?, tutor_action_at = ? WHERE id = ? AND status = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.ApplyTransition(context.Background(), models.UGFormTransition{
		ID: "f1", From: models.UGFormStatusSubmitted, To: models.UGFormStatusTutorApproved,
		TutorSignature: &signature, TutorSignedAt: &now, TutorActionAt: &now, UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryApplyTransitionLostRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectExec("UPDATE ugforms SET status").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyTransition(context.Background(), models.UGFormTransition{
		ID: "f1", From: models.UGFormStatusSubmitted, To: models.UGFormStatusTutorRejected, UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUGFormRepositoryMarkPDFGenerated(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUGFormRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("jsonb_set(COALESCE(pdf_generated, '{}'::jsonb), ARRAY[$2::text], 'true'::jsonb)")).
		WithArgs("f1", "advisor", sqlmock.AnyArg(), models.UGFormStatusManagerApproved).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkPDFGenerated(context.Background(), "f1", models.PDFCopyAdvisor))
	assert.NoError(t, mock.ExpectationsWereMet())
}
