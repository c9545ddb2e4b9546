package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pal-track-api/internal/models"
	appErrors "github.com/noah-isme/pal-track-api/pkg/errors"
)

// faultyCreateUserRepo lets a fixed number of creates through, then fails as
// if the database went away.
type faultyCreateUserRepo struct {
	*mockAuditUserRepo
	failAfter int
	created   int
}

func (f *faultyCreateUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.created >= f.failAfter {
		return errors.New("connection reset by peer")
	}
	f.created++
	return f.mockAuditUserRepo.Create(ctx, user)
}

func importBatch() []ImportRecord {
	return []ImportRecord{
		{Email: "a@x.edu", FirstName: "Aisha", LastName: "Khan", Password: "pw-one-1"},
		{Email: "b@x.edu", FirstName: "Ben", LastName: "Osei", Password: "pw-two-2"},
		{Email: "c@x.edu", FirstName: "Carla", LastName: "Diaz", Password: "pw-three"},
	}
}

func TestReconcileAllSucceed(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(users, nil, 100)

	result, err := svc.Reconcile(context.Background(), "admin-1", importBatch())
	require.NoError(t, err)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Empty(t, result.Errors)
	assert.Len(t, users.users, 3)
}

func TestReconcileBestEffortWithRowErrors(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(users, nil, 100)

	batch := importBatch()
	batch[1].Email = "" // row 2 missing a required field
	result, err := svc.Reconcile(context.Background(), "admin-1", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "missing required fields", result.Errors[0].Error)
}

func TestReconcileDuplicateWithinBatch(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(users, nil, 100)

	batch := importBatch()
	batch[2].Email = batch[0].Email
	result, err := svc.Reconcile(context.Background(), "admin-1", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, "email already exists", result.Errors[0].Error)
}

func TestReconcileRerunReportsOnlyConflicts(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(users, nil, 100)

	batch := importBatch()
	first, err := svc.Reconcile(context.Background(), "admin-1", batch)
	require.NoError(t, err)
	require.Equal(t, 3, first.SuccessCount)

	second, err := svc.Reconcile(context.Background(), "admin-1", batch)
	require.NoError(t, err)
	assert.Equal(t, 0, second.SuccessCount)
	assert.Equal(t, 3, second.ErrorCount)
	for i, rowErr := range second.Errors {
		assert.Equal(t, i+1, rowErr.Row)
		assert.Equal(t, "email already exists", rowErr.Error)
	}
	assert.Len(t, users.users, 3, "rerun does not duplicate accounts")
}

func TestReconcileRejectsOversizedBatch(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(users, nil, 2)

	_, err := svc.Reconcile(context.Background(), "admin-1", importBatch())
	require.Error(t, err)
}

func TestReconcileAbortsOnPersistenceFault(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(&faultyCreateUserRepo{mockAuditUserRepo: users, failAfter: 1}, nil, 100)

	result, err := svc.Reconcile(context.Background(), "admin-1", importBatch())
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.Nil(t, result)
	assert.Len(t, users.users, 1, "rows committed before the fault stay committed")
}

func TestReconcileUnknownRole(t *testing.T) {
	users := newMockAuditUserRepo()
	svc := NewImportService(users, nil, 100)

	batch := importBatch()
	batch[0].Role = "WIZARD"
	result, err := svc.Reconcile(context.Background(), "admin-1", batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Error, "unknown role")
}
