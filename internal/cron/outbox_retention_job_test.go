package cron

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/db/models"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/enums"
	"github.com/Devanshu-pal-github/my-asset-app-sub000/pkg/outbox"
)

func seedOutboxRow(t *testing.T, db *gorm.DB, publishedAt *time.Time, createdAt time.Time) models.OutboxEvent {
	t.Helper()
	row := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventAssetAssigned,
		AggregateType: enums.AggregateAssetItem,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
		CreatedAt:     createdAt,
		PublishedAt:   publishedAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestOutboxRetentionDeletesOnlyOldPublishedRows(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	now := time.Now().UTC()
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-24 * time.Hour)

	oldPublished := seedOutboxRow(t, db, &old, old)
	recentPublished := seedOutboxRow(t, db, &recent, recent)
	unpublished := seedOutboxRow(t, db, nil, old)

	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:     testLogger(),
		DB:         &testTxRunner{db: db},
		Repository: outbox.NewRepository(db),
		Retention:  30,
	})
	require.NoError(t, err)

	require.NoError(t, job.Run(context.Background()))

	var remaining []models.OutboxEvent
	require.NoError(t, db.Find(&remaining).Error)
	require.Len(t, remaining, 2)

	ids := map[uuid.UUID]bool{}
	for _, row := range remaining {
		ids[row.ID] = true
	}
	require.False(t, ids[oldPublished.ID])
	require.True(t, ids[recentPublished.ID])
	require.True(t, ids[unpublished.ID])
}
