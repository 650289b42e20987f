package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestEmitQueuesEventInsideTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)

	aggregateID := uuid.New()
	actorID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return service.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventPickupCreated,
			AggregateType: enums.AggregatePickup,
			AggregateID:   aggregateID,
			Version:       1,
			Actor:         &ActorRef{UserID: actorID, Role: "customer"},
			Data:          map[string]string{"status": "pending"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventPickupCreated, rows[0].EventType)
	assert.Equal(t, aggregateID, rows[0].AggregateID)
	assert.Nil(t, rows[0].PublishedAt)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.UserID)
}

func TestEmitAllowsRepeatedEventsForSameAggregate(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)

	// Accruals repeat per profile aggregate, so back-to-back emissions of
	// the same event type must both queue.
	aggregateID := uuid.New()
	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return service.Emit(context.Background(), tx, DomainEvent{
				EventType:     enums.EventRewardsAccrued,
				AggregateType: enums.AggregateProfile,
				AggregateID:   aggregateID,
				Version:       1,
				Data:          map[string]int{"points": 10},
			})
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ?", aggregateID).
		Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestEmitRequiresTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)

	err := service.Emit(context.Background(), nil, DomainEvent{
		EventType:     enums.EventPickupCreated,
		AggregateType: enums.AggregatePickup,
		AggregateID:   uuid.New(),
	})
	require.Error(t, err)
}
