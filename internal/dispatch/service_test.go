package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/internal/pickups"
	"github.com/greenloop/greenloop-backend/internal/prices"
	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/internal/rewards"
	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
)

func setupDispatchTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS pickups (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  waste_type TEXT NOT NULL,
  ai_identified_type TEXT,
  address TEXT NOT NULL,
  latitude REAL,
  longitude REAL,
  pickup_date DATETIME NOT NULL,
  pickup_time_slot TEXT,
  notes TEXT,
  image_url TEXT,
  estimated_weight_kg REAL,
  actual_weight_kg REAL,
  estimated_price REAL,
  final_price REAL,
  recycling_company_id TEXT,
  status TEXT NOT NULL DEFAULT 'pending',
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS delivery_assignments (
  id TEXT PRIMARY KEY,
  pickup_id TEXT NOT NULL,
  delivery_partner_id TEXT NOT NULL,
  assigned_by_user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'assigned',
  active INTEGER NOT NULL DEFAULT 1,
  route_order INTEGER NOT NULL DEFAULT 0,
  assigned_at DATETIME,
  started_at DATETIME,
  completed_at DATETIME,
  unassigned_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  address TEXT,
  avatar_url TEXT,
  reward_points INTEGER NOT NULL DEFAULT 0,
  total_recycled_kg REAL NOT NULL DEFAULT 0,
  total_co2_saved_kg REAL NOT NULL DEFAULT 0,
  is_available INTEGER NOT NULL DEFAULT 0,
  vehicle_type TEXT,
  vehicle_number TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS waste_prices (
  id TEXT PRIMARY KEY,
  waste_type TEXT NOT NULL UNIQUE,
  price_per_kg NUMERIC NOT NULL,
  points_per_kg INTEGER NOT NULL DEFAULT 0,
  co2_saved_per_kg REAL NOT NULL DEFAULT 0,
  updated_by_id TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	}
	for _, schema := range schemas {
		require.NoError(t, db.Exec(schema).Error)
	}
	return db
}

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error { return fn(tx) })
}

type fakeRoleResolver struct {
	roles map[uuid.UUID]enums.AppRole
}

func (f *fakeRoleResolver) Resolve(ctx context.Context, userID uuid.UUID) (enums.AppRole, error) {
	if role, ok := f.roles[userID]; ok {
		return role, nil
	}
	return enums.AppRoleCustomer, nil
}

type recordingOutbox struct {
	events []outbox.DomainEvent
}

func (r *recordingOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	r.events = append(r.events, event)
	return nil
}

func (r *recordingOutbox) types() []enums.OutboxEventType {
	out := make([]enums.OutboxEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

type dispatchHarness struct {
	db       *gorm.DB
	svc      Service
	outbox   *recordingOutbox
	roles    *fakeRoleResolver
	pickups  pickups.Repository
	profiles profiles.Repository
}

func newDispatchHarness(t *testing.T) *dispatchHarness {
	t.Helper()

	db := setupDispatchTestDB(t)
	ob := &recordingOutbox{}
	roleResolver := &fakeRoleResolver{roles: map[uuid.UUID]enums.AppRole{}}

	pickupRepo := pickups.NewRepository(db)
	profileRepo := profiles.NewRepository(db)

	rewardSvc, err := rewards.NewService(func(tx *gorm.DB) rewards.PriceLookup {
		return prices.NewRepository(tx)
	}, profileRepo, ob)
	require.NoError(t, err)

	svc, err := NewService(NewRepository(db), pickupRepo, profileRepo, roleResolver, rewardSvc, dbTxRunner{db: db}, ob)
	require.NoError(t, err)

	return &dispatchHarness{
		db:       db,
		svc:      svc,
		outbox:   ob,
		roles:    roleResolver,
		pickups:  pickupRepo,
		profiles: profileRepo,
	}
}

func (h *dispatchHarness) newPartner(t *testing.T, available bool) uuid.UUID {
	t.Helper()

	partnerID := uuid.New()
	h.roles.roles[partnerID] = enums.AppRoleDeliveryPartner
	profile := &models.Profile{
		ID:          uuid.New(),
		UserID:      partnerID,
		IsAvailable: available,
	}
	require.NoError(t, h.db.Create(profile).Error)
	return partnerID
}

func (h *dispatchHarness) newPendingPickup(t *testing.T, userID uuid.UUID) *models.Pickup {
	t.Helper()

	pickup := &models.Pickup{
		ID:         uuid.New(),
		UserID:     userID,
		WasteType:  enums.WasteTypePlastics,
		Address:    "4 Shore Road",
		PickupDate: time.Now().UTC().Add(24 * time.Hour),
		Status:     enums.PickupStatusPending,
	}
	require.NoError(t, h.db.Create(pickup).Error)

	profile := &models.Profile{ID: uuid.New(), UserID: userID}
	require.NoError(t, h.db.Create(profile).Error)
	return pickup
}

func (h *dispatchHarness) seedPrice(t *testing.T, wasteType enums.WasteType, pricePerKg float64, pointsPerKg int, co2PerKg float64) {
	t.Helper()

	price := &models.WastePrice{
		ID:            uuid.New(),
		WasteType:     wasteType,
		PricePerKg:    decimal.NewFromFloat(pricePerKg),
		PointsPerKg:   pointsPerKg,
		CO2SavedPerKg: co2PerKg,
	}
	require.NoError(t, h.db.Create(price).Error)
}

func TestDispatchLifecycle(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	adminID := uuid.New()
	customerID := uuid.New()
	partnerID := h.newPartner(t, true)
	pickup := h.newPendingPickup(t, customerID)
	h.seedPrice(t, enums.WasteTypePlastics, 2.50, 10, 1.5)

	assignment, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: adminID})
	require.NoError(t, err)
	assert.True(t, assignment.Active)
	assert.Equal(t, enums.AssignmentStatusAssigned, assignment.Status)

	stored, err := h.pickups.FindByID(ctx, pickup.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PickupStatusAssigned, stored.Status)
	require.Len(t, stored.Assignments, 1)

	require.NoError(t, h.svc.Start(ctx, partnerID, assignment.ID))
	stored, err = h.pickups.FindByID(ctx, pickup.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PickupStatusInProgress, stored.Status)

	accrual, err := h.svc.Complete(ctx, CompleteInput{AssignmentID: assignment.ID, PartnerID: partnerID, ActualWeightKg: 4.0})
	require.NoError(t, err)
	assert.Equal(t, 40, accrual.Points)
	assert.Equal(t, 10.0, accrual.FinalPrice)
	assert.Equal(t, 6.0, accrual.CO2SavedKg)

	stored, err = h.pickups.FindByID(ctx, pickup.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PickupStatusCompleted, stored.Status)
	require.NotNil(t, stored.ActualWeightKg)
	assert.Equal(t, 4.0, *stored.ActualWeightKg)
	require.NotNil(t, stored.FinalPrice)
	assert.Equal(t, 10.0, *stored.FinalPrice)

	profile, err := h.profiles.FindByUserID(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 40, profile.RewardPoints)
	assert.Equal(t, 4.0, profile.TotalRecycledKg)

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventPickupAssigned,
		enums.EventPickupStarted,
		enums.EventRewardsAccrued,
		enums.EventPickupCompleted,
	}, h.outbox.types())
}

func TestAssignRejectsUnavailablePartner(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, false)
	pickup := h.newPendingPickup(t, uuid.New())

	_, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: uuid.New()})
	te := pkgerrors.As(err)
	require.NotNil(t, te)
	assert.Equal(t, pkgerrors.CodeValidation, te.Code())
}

func TestAssignRejectsNonPartner(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	customer := uuid.New()
	h.roles.roles[customer] = enums.AppRoleCustomer
	pickup := h.newPendingPickup(t, uuid.New())

	_, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: customer, AdminID: uuid.New()})
	te := pkgerrors.As(err)
	require.NotNil(t, te)
	assert.Equal(t, pkgerrors.CodeValidation, te.Code())
}

func TestAssignRejectsNonPendingPickup(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, true)
	pickup := h.newPendingPickup(t, uuid.New())
	require.NoError(t, h.db.Model(&models.Pickup{}).Where("id = ?", pickup.ID).Update("status", enums.PickupStatusCancelled).Error)

	_, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: uuid.New()})
	te := pkgerrors.As(err)
	require.NotNil(t, te)
	assert.Equal(t, pkgerrors.CodeStateConflict, te.Code())

	// The failed swap must roll back cleanly with no assignment row.
	var count int64
	require.NoError(t, h.db.Model(&models.DeliveryAssignment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCompleteHiddenFromOtherPartners(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, true)
	pickup := h.newPendingPickup(t, uuid.New())
	h.seedPrice(t, enums.WasteTypePlastics, 2.50, 10, 1.5)

	assignment, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, h.svc.Start(ctx, partnerID, assignment.ID))

	stranger := h.newPartner(t, true)
	_, err = h.svc.Complete(ctx, CompleteInput{AssignmentID: assignment.ID, PartnerID: stranger, ActualWeightKg: 4.0})
	te := pkgerrors.As(err)
	require.NotNil(t, te)
	assert.Equal(t, pkgerrors.CodeNotFound, te.Code())
}

func TestCompleteRetryDoesNotDoubleCredit(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	customerID := uuid.New()
	partnerID := h.newPartner(t, true)
	pickup := h.newPendingPickup(t, customerID)
	h.seedPrice(t, enums.WasteTypePlastics, 2.50, 10, 1.5)

	assignment, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, h.svc.Start(ctx, partnerID, assignment.ID))

	_, err = h.svc.Complete(ctx, CompleteInput{AssignmentID: assignment.ID, PartnerID: partnerID, ActualWeightKg: 4.0})
	require.NoError(t, err)

	_, err = h.svc.Complete(ctx, CompleteInput{AssignmentID: assignment.ID, PartnerID: partnerID, ActualWeightKg: 4.0})
	te := pkgerrors.As(err)
	require.NotNil(t, te)
	assert.Equal(t, pkgerrors.CodeStateConflict, te.Code())

	profile, err := h.profiles.FindByUserID(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, 40, profile.RewardPoints)
}

func TestAdminCancelReleasesAssignment(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, true)
	pickup := h.newPendingPickup(t, uuid.New())

	assignment, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, h.svc.AdminCancel(ctx, CancelInput{PickupID: pickup.ID, AdminID: uuid.New(), Reason: "customer request"}))

	var stored models.Pickup
	require.NoError(t, h.db.Where("id = ?", pickup.ID).First(&stored).Error)
	assert.Equal(t, enums.PickupStatusCancelled, stored.Status)

	var released models.DeliveryAssignment
	require.NoError(t, h.db.Where("id = ?", assignment.ID).First(&released).Error)
	assert.False(t, released.Active)

	route, err := h.svc.ListRoute(ctx, partnerID)
	require.NoError(t, err)
	assert.Empty(t, route)
}

func TestAdminCancelRejectsInProgress(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, true)
	pickup := h.newPendingPickup(t, uuid.New())

	assignment, err := h.svc.Assign(ctx, AssignInput{PickupID: pickup.ID, PartnerID: partnerID, AdminID: uuid.New()})
	require.NoError(t, err)
	require.NoError(t, h.svc.Start(ctx, partnerID, assignment.ID))

	err = h.svc.AdminCancel(ctx, CancelInput{PickupID: pickup.ID, AdminID: uuid.New(), Reason: "too late"})
	te := pkgerrors.As(err)
	require.NotNil(t, te)
	assert.Equal(t, pkgerrors.CodeStateConflict, te.Code())
}

func TestListRouteOrdersStops(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, true)
	first := h.newPendingPickup(t, uuid.New())
	second := h.newPendingPickup(t, uuid.New())

	a1, err := h.svc.Assign(ctx, AssignInput{PickupID: first.ID, PartnerID: partnerID, AdminID: uuid.New()})
	require.NoError(t, err)
	a2, err := h.svc.Assign(ctx, AssignInput{PickupID: second.ID, PartnerID: partnerID, AdminID: uuid.New()})
	require.NoError(t, err)
	assert.Less(t, a1.RouteOrder, a2.RouteOrder)

	route, err := h.svc.ListRoute(ctx, partnerID)
	require.NoError(t, err)
	require.Len(t, route, 2)
	assert.Equal(t, a1.ID, route[0].AssignmentID)
	assert.Equal(t, first.ID, route[0].PickupID)
	assert.Equal(t, a2.ID, route[1].AssignmentID)
}

func TestSetAvailability(t *testing.T) {
	h := newDispatchHarness(t)
	ctx := context.Background()

	partnerID := h.newPartner(t, true)
	require.NoError(t, h.svc.SetAvailability(ctx, partnerID, false))

	profile, err := h.profiles.FindByUserID(ctx, partnerID)
	require.NoError(t, err)
	assert.False(t, profile.IsAvailable)
}
