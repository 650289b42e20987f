package rewards

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/internal/profiles"
	"github.com/greenloop/greenloop-backend/pkg/db/models"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/outbox"
)

type fakePriceLookup struct {
	price *models.WastePrice
	err   error
}

func (f *fakePriceLookup) FindByWasteType(ctx context.Context, wasteType enums.WasteType) (*models.WastePrice, error) {
	return f.price, f.err
}

type fakeProfileRepo struct {
	profile          *models.Profile
	findErr          error
	incrementPoints  int
	incrementWeight  float64
	incrementCO2     float64
	incrementedUser  uuid.UUID
	incrementedCalls int
}

func (f *fakeProfileRepo) WithTx(tx *gorm.DB) profiles.Repository { return f }

func (f *fakeProfileRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.profile, nil
}

func (f *fakeProfileRepo) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	return profile, nil
}

func (f *fakeProfileRepo) Update(ctx context.Context, userID uuid.UUID, updates map[string]any) error {
	return nil
}

func (f *fakeProfileRepo) IncrementAccruals(ctx context.Context, userID uuid.UUID, points int, weightKg, co2SavedKg float64) error {
	f.incrementedUser = userID
	f.incrementPoints = points
	f.incrementWeight = weightKg
	f.incrementCO2 = co2SavedKg
	f.incrementedCalls++
	return nil
}

func (f *fakeProfileRepo) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) error {
	return nil
}

type fakeOutbox struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newRewardsService(t *testing.T, lookup *fakePriceLookup, repo *fakeProfileRepo, ob *fakeOutbox) *Service {
	t.Helper()
	svc, err := NewService(func(tx *gorm.DB) PriceLookup { return lookup }, repo, ob)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestAccrueForPickupCreditsProfile(t *testing.T) {
	userID := uuid.New()
	lookup := &fakePriceLookup{price: &models.WastePrice{
		WasteType:     enums.WasteTypePlastics,
		PricePerKg:    decimal.NewFromFloat(2.50),
		PointsPerKg:   10,
		CO2SavedPerKg: 1.5,
	}}
	repo := &fakeProfileRepo{profile: &models.Profile{UserID: userID, RewardPoints: 145}}
	ob := &fakeOutbox{}
	svc := newRewardsService(t, lookup, repo, ob)

	pickup := &models.Pickup{ID: uuid.New(), UserID: userID, WasteType: enums.WasteTypePlastics}
	accrual, err := svc.AccrueForPickup(context.Background(), &gorm.DB{}, pickup, 4.0)
	if err != nil {
		t.Fatalf("AccrueForPickup: %v", err)
	}

	if accrual.Points != 40 {
		t.Fatalf("expected 40 points, got %d", accrual.Points)
	}
	if accrual.FinalPrice != 10.0 {
		t.Fatalf("expected final price 10.0, got %v", accrual.FinalPrice)
	}
	if accrual.CO2SavedKg != 6.0 {
		t.Fatalf("expected 6.0 kg CO2, got %v", accrual.CO2SavedKg)
	}
	if accrual.TotalPoints != 145 {
		t.Fatalf("expected running total from profile, got %d", accrual.TotalPoints)
	}
	if repo.incrementedUser != userID || repo.incrementPoints != 40 {
		t.Fatalf("profile increment mismatch: user=%s points=%d", repo.incrementedUser, repo.incrementPoints)
	}
	if len(ob.events) != 1 {
		t.Fatalf("expected one outbox event, got %d", len(ob.events))
	}
	if ob.events[0].EventType != enums.EventRewardsAccrued {
		t.Fatalf("unexpected event type %s", ob.events[0].EventType)
	}
	if ob.events[0].AggregateID != userID {
		t.Fatalf("event aggregate should be the user, got %s", ob.events[0].AggregateID)
	}
}

func TestAccrueForPickupMissingPriceSchedule(t *testing.T) {
	// No rate row means nothing to credit, but the completion still counts
	// the weight toward the profile totals.
	lookup := &fakePriceLookup{err: gorm.ErrRecordNotFound}
	repo := &fakeProfileRepo{}
	ob := &fakeOutbox{}
	svc := newRewardsService(t, lookup, repo, ob)

	pickup := &models.Pickup{ID: uuid.New(), UserID: uuid.New(), WasteType: enums.WasteTypeGlass}
	accrual, err := svc.AccrueForPickup(context.Background(), &gorm.DB{}, pickup, 2.5)
	if err != nil {
		t.Fatalf("AccrueForPickup: %v", err)
	}
	if accrual.Points != 0 || accrual.FinalPrice != 0 {
		t.Fatalf("expected empty accrual, got %+v", accrual)
	}
	if repo.incrementedCalls != 1 || repo.incrementWeight != 2.5 {
		t.Fatalf("expected weight recorded on profile, got calls=%d weight=%v", repo.incrementedCalls, repo.incrementWeight)
	}
	if len(ob.events) != 0 {
		t.Fatalf("zero-value accrual must not emit events, got %d", len(ob.events))
	}
}

func TestAccrueForPickupRejectsNonPositiveWeight(t *testing.T) {
	svc := newRewardsService(t, &fakePriceLookup{}, &fakeProfileRepo{}, &fakeOutbox{})

	pickup := &models.Pickup{ID: uuid.New(), UserID: uuid.New(), WasteType: enums.WasteTypePlastics}
	_, err := svc.AccrueForPickup(context.Background(), &gorm.DB{}, pickup, 0)
	if te := pkgerrors.As(err); te == nil || te.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetSummaryMissingProfile(t *testing.T) {
	repo := &fakeProfileRepo{findErr: gorm.ErrRecordNotFound}
	svc := newRewardsService(t, &fakePriceLookup{}, repo, &fakeOutbox{})

	summary, err := svc.GetSummary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.RewardPoints != 0 || summary.TotalRecycledKg != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestGetSummary(t *testing.T) {
	userID := uuid.New()
	repo := &fakeProfileRepo{profile: &models.Profile{
		UserID:          userID,
		RewardPoints:    320,
		TotalRecycledKg: 41.5,
		TotalCO2SavedKg: 18.25,
	}}
	svc := newRewardsService(t, &fakePriceLookup{}, repo, &fakeOutbox{})

	summary, err := svc.GetSummary(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if summary.RewardPoints != 320 {
		t.Fatalf("expected 320 points, got %d", summary.RewardPoints)
	}
	if summary.TotalRecycledKg != 41.5 || summary.TotalCO2SavedKg != 18.25 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
}
