package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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
	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.AssetCategory{}, &models.AssetItem{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func seedCategory(t *testing.T, svc Service, name string) *models.AssetCategory {
	t.Helper()
	category, err := svc.Create(context.Background(), CreateCategoryInput{Name: name})
	require.NoError(t, err)
	return category
}

func seedItemWithStatus(t *testing.T, db *gorm.DB, categoryID uuid.UUID, status enums.AssetStatus) {
	t.Helper()
	item := &models.AssetItem{
		ID:         uuid.New(),
		CategoryID: categoryID,
		Tag:        "TAG-" + uuid.NewString()[:8],
		Name:       "test item",
		Status:     status,
		Condition:  enums.AssetConditionGood,
	}
	require.NoError(t, db.Create(item).Error)
}

func TestCreateCategory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	category, err := svc.Create(ctx, CreateCategoryInput{Name: "Laptops"})
	require.NoError(t, err)
	assert.Equal(t, enums.AssigneeTypeEmployee, category.AssignableTo)
	assert.False(t, category.AllowMultipleAssignments)
	assert.Equal(t, 1, category.MaxAssignments)
	assert.True(t, category.UtilizationRate.IsZero())

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Laptops"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateCategoryPolicyValidation(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	// Shared pools may carry a higher cap only when multiples are allowed.
	shared, err := svc.Create(ctx, CreateCategoryInput{
		Name:                     "Meeting Room Gear",
		AssignableTo:             enums.AssigneeTypeDepartment,
		AllowMultipleAssignments: true,
		MaxAssignments:           5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, shared.MaxAssignments)

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Bad Cap", MaxAssignments: 3})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateCategoryInput{
		Name:                     "Negative Cap",
		AllowMultipleAssignments: true,
		MaxAssignments:           -1,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Bad Type", AssignableTo: "robot"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteCategory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	empty := seedCategory(t, svc, "Empty")
	require.NoError(t, svc.Delete(ctx, empty.ID))
	_, err := svc.Get(ctx, empty.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	populated := seedCategory(t, svc, "Populated")
	seedItemWithStatus(t, db, populated.ID, enums.AssetStatusRetired)
	err = svc.Delete(ctx, populated.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestRecomputeAggregates(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	category := seedCategory(t, svc, "Laptops")

	seedItemWithStatus(t, db, category.ID, enums.AssetStatusAvailable)
	seedItemWithStatus(t, db, category.ID, enums.AssetStatusAssigned)
	seedItemWithStatus(t, db, category.ID, enums.AssetStatusAssigned)
	seedItemWithStatus(t, db, category.ID, enums.AssetStatusUnderMaintenance)
	seedItemWithStatus(t, db, category.ID, enums.AssetStatusRetired)

	stats, err := svc.Stats(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalItems, "retired items do not count as inventory")
	assert.Equal(t, 2, stats.AssignedItems)
	assert.Equal(t, 1, stats.UnderMaintenanceItems)
	assert.True(t, stats.UtilizationRate.Equal(decimal.RequireFromString("0.5")),
		"got %s", stats.UtilizationRate)

	// Recompute is idempotent: a second pass over unchanged rows writes the
	// same values.
	again, err := svc.RecomputeAggregates(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, stats.TotalItems, again.TotalItems)
	assert.Equal(t, stats.AssignedItems, again.AssignedItems)
	assert.True(t, stats.UtilizationRate.Equal(again.UtilizationRate))
}

func TestRecomputeAggregatesNoCrossCategoryLeak(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	laptops := seedCategory(t, svc, "Laptops")
	monitors := seedCategory(t, svc, "Monitors")
	seedItemWithStatus(t, db, laptops.ID, enums.AssetStatusAssigned)
	seedItemWithStatus(t, db, monitors.ID, enums.AssetStatusAvailable)

	stats, err := svc.Stats(ctx, monitors.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalItems)
	assert.Zero(t, stats.AssignedItems)
	assert.True(t, stats.UtilizationRate.IsZero())
}

func TestRecomputeAggregatesEmptyCategory(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()
	category := seedCategory(t, svc, "Empty")

	stats, err := svc.Stats(ctx, category.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalItems)
	assert.True(t, stats.UtilizationRate.IsZero())
}
