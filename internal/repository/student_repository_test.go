package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightpath-labs/campus-ops-api/internal/models"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestStudentRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "nis", "full_name", "program_id", "hours_completed", "hours_scheduled",
		"current_sap_status", "status_version", "active", "created_at", "updated_at",
	}).AddRow("student-1", "2026-0042", "Siti Rahma", "program-1", 450.0, 460.0,
		"WARNING", int64(3), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nis, full_name")).
		WithArgs("student-1").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "Siti Rahma", student.FullName)
	assert.Equal(t, int64(3), student.StatusVersion)
	assert.Equal(t, models.SAPStatusWarning, student.SAPStatusOrDefault())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDLegacyStatus(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "nis", "full_name", "program_id", "hours_completed", "hours_scheduled",
		"current_sap_status", "status_version", "active", "created_at", "updated_at",
	}).AddRow("student-1", "2019-0007", "Budi Santoso", "program-1", 0.0, 0.0,
		nil, int64(0), true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nis, full_name")).
		WithArgs("student-1").
		WillReturnRows(rows)

	student, err := repo.FindByID(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Nil(t, student.CurrentSAPStatus)
	assert.Equal(t, models.SAPStatusSatisfactory, student.SAPStatusOrDefault())
}

func TestStudentRepositoryGetCumulativeHours(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"hours_completed", "hours_scheduled"}).AddRow(450.5, 460.0)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT hours_completed, hours_scheduled FROM students")).
		WithArgs("student-1").
		WillReturnRows(rows)

	hours, err := repo.GetCumulativeHours(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, 450.5, hours.Completed)
	assert.Equal(t, 460.0, hours.Scheduled)
}

func TestStudentRepositoryAddHours(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students")).
		WithArgs("student-1", 2.5, 3.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AddHours(context.Background(), "student-1", 2.5, 3.0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryAddHoursMissingStudent(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students")).
		WithArgs("missing", 2.5, 3.0).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.Error(t, repo.AddHours(context.Background(), "missing", 2.5, 3.0))
}

func TestStudentRepositoryListActiveIDs(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()

	repo := NewStudentRepository(db)
	rows := sqlmock.NewRows([]string{"id"}).AddRow("student-1").AddRow("student-2")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM students WHERE active = TRUE")).
		WillReturnRows(rows)

	ids, err := repo.ListActiveIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"student-1", "student-2"}, ids)
}
