package marketplace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/greenloop/greenloop-backend/pkg/db/models"
	dbtypes "github.com/greenloop/greenloop-backend/pkg/db/types"
	"github.com/greenloop/greenloop-backend/pkg/enums"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/pagination"
)

// CreateArtItemInput captures a seller listing an upcycled piece.
type CreateArtItemInput struct {
	SellerID    uuid.UUID
	Title       string
	Description *string
	Price       decimal.Decimal
	ImageURL    *string
	Materials   *string
}

// CreateNeedThingInput captures a maker's request for materials.
type CreateNeedThingInput struct {
	RequesterID uuid.UUID
	Title       string
	Description *string
	WasteTypes  []enums.WasteType
	QuantityKg  *float64
}

// ArtItemList wraps paginated listings plus the next cursor.
type ArtItemList struct {
	Items      []models.ArtItem `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// NeedThingList wraps paginated requests plus the next cursor.
type NeedThingList struct {
	Needs      []models.NeedThing `json:"needs"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// Service defines the community marketplace operations.
type Service interface {
	CreateArtItem(ctx context.Context, input CreateArtItemInput) (*models.ArtItem, error)
	ListArtItems(ctx context.Context, params pagination.Params) (*ArtItemList, error)
	MarkArtItemSold(ctx context.Context, sellerID, itemID uuid.UUID) error
	CreateNeedThing(ctx context.Context, input CreateNeedThingInput) (*models.NeedThing, error)
	ListNeedThings(ctx context.Context, params pagination.Params) (*NeedThingList, error)
	MarkNeedThingFulfilled(ctx context.Context, requesterID, needID uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a marketplace service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("marketplace repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateArtItem(ctx context.Context, input CreateArtItemInput) (*models.ArtItem, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}

	item := &models.ArtItem{
		SellerID:    input.SellerID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Materials:   input.Materials,
	}
	created, err := s.repo.CreateArtItem(ctx, item)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create art item")
	}
	return created, nil
}

func (s *service) ListArtItems(ctx context.Context, params pagination.Params) (*ArtItemList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListArtItems(ctx, cursor, limit+1, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list art items")
	}
	list := &ArtItemList{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	list.Items = rows
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) MarkArtItemSold(ctx context.Context, sellerID, itemID uuid.UUID) error {
	item, err := s.repo.FindArtItemByID(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "art item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load art item")
	}
	if item.SellerID != sellerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "art item not found")
	}
	if item.IsSold {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "art item already sold")
	}
	if err := s.repo.UpdateArtItem(ctx, itemID, map[string]any{"is_sold": true}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update art item")
	}
	return nil
}

func (s *service) CreateNeedThing(ctx context.Context, input CreateNeedThingInput) (*models.NeedThing, error) {
	if input.RequesterID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if input.QuantityKg != nil && *input.QuantityKg <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	wasteTypes := make(dbtypes.StringArray, 0, len(input.WasteTypes))
	for _, wt := range input.WasteTypes {
		if !wt.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown waste type "+wt.String())
		}
		wasteTypes = append(wasteTypes, string(wt))
	}

	need := &models.NeedThing{
		RequesterID: input.RequesterID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		WasteTypes:  wasteTypes,
		QuantityKg:  input.QuantityKg,
	}
	created, err := s.repo.CreateNeedThing(ctx, need)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create need")
	}
	return created, nil
}

func (s *service) ListNeedThings(ctx context.Context, params pagination.Params) (*NeedThingList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListNeedThings(ctx, cursor, limit+1, false)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list needs")
	}
	list := &NeedThingList{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	list.Needs = rows
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return list, nil
}

func (s *service) MarkNeedThingFulfilled(ctx context.Context, requesterID, needID uuid.UUID) error {
	need, err := s.repo.FindNeedThingByID(ctx, needID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "need not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load need")
	}
	if need.RequesterID != requesterID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "need not found")
	}
	if need.IsFulfilled {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "need already fulfilled")
	}
	if err := s.repo.UpdateNeedThing(ctx, needID, map[string]any{"is_fulfilled": true}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update need")
	}
	return nil
}
