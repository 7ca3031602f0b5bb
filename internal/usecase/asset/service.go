package asset

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// AssetService handles position bookkeeping. It is the sole writer of asset
// positions; the settlement engine invokes it as a subordinate mutator
// inside the settlement unit of work.
type AssetService struct {
	Repos *domain.Repositories
}

// NewAssetService creates a new AssetService instance
func NewAssetService(repos *domain.Repositories) *AssetService {
	return &AssetService{
		Repos: repos,
	}
}

// Create opens a position for the user at the given execution price as its
// cost basis. The caller must run inside a unit of work.
func (s *AssetService) Create(
	ctx context.Context,
	r *domain.Repositories,
	userID uuid.UUID,
	instrumentID string,
	quantity decimal.Decimal,
	unitPrice decimal.Decimal,
) (*domain.Asset, error) {
	asset := &domain.Asset{
		ID:           uuid.New(),
		UserID:       userID,
		InstrumentID: instrumentID,
		Quantity:     quantity,
		BuyPrice:     unitPrice,
	}

	if err := asset.Validate(); err != nil {
		return nil, err
	}

	if err := r.Assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	return asset, nil
}

// Update adds deltaQuantity (negative on sells) to the position's quantity.
// The cost basis is not recomputed: it changes only when a position is
// opened, so incremental buys keep the original basis.
func (s *AssetService) Update(ctx context.Context, r *domain.Repositories, assetID uuid.UUID, deltaQuantity decimal.Decimal) (*domain.Asset, error) {
	asset, err := r.Assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}

	asset.Quantity = asset.Quantity.Add(deltaQuantity)

	if err := asset.Validate(); err != nil {
		return nil, err
	}

	if err := r.Assets.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("failed to update asset: %w", err)
	}

	return asset, nil
}

// Delete removes a position. The settlement engine calls this when a sell
// leaves a residual position worth less than the dust threshold.
func (s *AssetService) Delete(ctx context.Context, r *domain.Repositories, assetID uuid.UUID) error {
	return r.Assets.Delete(ctx, assetID)
}

// Find returns the user's position in an instrument, or ErrAssetNotFound.
// Absence is not fatal: the settlement engine uses it to decide between
// opening a new position and updating an existing one.
func (s *AssetService) Find(ctx context.Context, r *domain.Repositories, userID uuid.UUID, instrumentID string) (*domain.Asset, error) {
	return r.Assets.FindByUserAndInstrument(ctx, userID, instrumentID)
}

// ListForUser returns the user's full portfolio.
func (s *AssetService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Asset, error) {
	return s.Repos.Assets.ListByUser(ctx, userID)
}
