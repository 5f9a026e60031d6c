package items

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	pkgerrors "github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:items_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AssetItem{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedItem(t *testing.T, svc Service, tag string) *models.AssetItem {
	t.Helper()
	item, err := svc.Create(context.Background(), CreateItemInput{
		CategoryID: uuid.New(),
		Tag:        tag,
		Name:       "Dell Latitude 7450",
	})
	require.NoError(t, err)
	return item
}

func TestCreate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	item, err := svc.Create(ctx, CreateItemInput{
		CategoryID: uuid.New(),
		Tag:        "LT-0001",
		Name:       "  Dell Latitude 7450  ",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusAvailable, item.Status)
	assert.Equal(t, enums.AssetConditionGood, item.Condition)
	assert.Equal(t, "Dell Latitude 7450", item.Name)
	assert.True(t, item.IsOperational)
	assert.Zero(t, item.AssignedCount)
	assert.Zero(t, item.LockVersion)

	_, err = svc.Create(ctx, CreateItemInput{CategoryID: uuid.New(), Tag: "LT-0001", Name: "Other"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateItemInput{CategoryID: uuid.New(), Tag: "  ", Name: "Other"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCommitAssignmentState(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0002")

	updated, err := svc.CommitAssignmentState(ctx, item, enums.AssetStatusAssigned, 1)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusAssigned, updated.Status)
	assert.Equal(t, 1, updated.AssignedCount)
	assert.Equal(t, int64(1), updated.LockVersion)

	reloaded, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.LockVersion)
}

func TestCommitAssignmentStateStaleVersion(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0003")

	stale := *item
	_, err := svc.CommitAssignmentState(ctx, item, enums.AssetStatusAssigned, 1)
	require.NoError(t, err)

	// The stale copy still carries lock_version 0 and must lose.
	_, err = svc.CommitAssignmentState(ctx, &stale, enums.AssetStatusAssigned, 1)
	require.Error(t, err)
	conflict := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeConflict, conflict.Code())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestMaintenanceTransitions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0004")

	down, err := svc.MarkUnderMaintenance(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusUnderMaintenance, down.Status)

	_, err = svc.MarkUnderMaintenance(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	back, err := svc.ReturnToService(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusAvailable, back.Status)

	_, err = svc.ReturnToService(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestMaintenanceRequiresUnassigned(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0005")

	_, err := svc.CommitAssignmentState(ctx, item, enums.AssetStatusAssigned, 1)
	require.NoError(t, err)

	_, err = svc.MarkUnderMaintenance(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRetire(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0006")

	retired, err := svc.Retire(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusRetired, retired.Status)
	require.NotNil(t, retired.RetiredAt)

	// Tombstone, not delete: the row remains readable.
	reloaded, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusRetired, reloaded.Status)

	_, err = svc.Retire(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	name := "New name"
	_, err = svc.UpdateDetails(ctx, item.ID, UpdateItemInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRetireRequiresUnassigned(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0007")

	_, err := svc.CommitAssignmentState(ctx, item, enums.AssetStatusAssigned, 1)
	require.NoError(t, err)

	_, err = svc.Retire(ctx, item.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestUpdateDetails(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0008")

	condition := enums.AssetConditionFair
	operational := false
	notes := "screen flicker reported"
	updated, err := svc.UpdateDetails(ctx, item.ID, UpdateItemInput{
		Condition:     &condition,
		IsOperational: &operational,
		Notes:         &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.AssetConditionFair, updated.Condition)
	assert.False(t, updated.IsOperational)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)

	// Descriptive edits never touch the concurrency token.
	assert.Equal(t, item.LockVersion, updated.LockVersion)

	bad := enums.AssetCondition("pristine")
	_, err = svc.UpdateDetails(ctx, item.ID, UpdateItemInput{Condition: &bad})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestGetByTag(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	item := seedItem(t, svc, "LT-0009")

	found, err := svc.GetByTag(ctx, "LT-0009")
	require.NoError(t, err)
	assert.Equal(t, item.ID, found.ID)

	_, err = svc.GetByTag(ctx, "LT-9999")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
