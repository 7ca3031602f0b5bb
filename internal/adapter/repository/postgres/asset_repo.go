package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// assetRepository implements domain.AssetRepository
type assetRepository struct {
	q queryer
}

func scanAsset(row *sql.Row) (*domain.Asset, error) {
	var asset domain.Asset
	var quantityStr, buyPriceStr string

	err := row.Scan(&asset.ID, &asset.UserID, &asset.InstrumentID, &quantityStr, &buyPriceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	if asset.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
		return nil, fmt.Errorf("failed to parse quantity: %w", err)
	}
	if asset.BuyPrice, err = decimal.NewFromString(buyPriceStr); err != nil {
		return nil, fmt.Errorf("failed to parse buy price: %w", err)
	}

	return &asset, nil
}

// GetByID retrieves an asset by its ID
func (r *assetRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Asset, error) {
	query := `
		SELECT id, user_id, instrument_id, quantity, buy_price
		FROM assets
		WHERE id = $1
	`

	return scanAsset(r.q.QueryRowContext(ctx, query, id))
}

// FindByUserAndInstrument retrieves the single position a user holds in an instrument
func (r *assetRepository) FindByUserAndInstrument(ctx context.Context, userID uuid.UUID, instrumentID string) (*domain.Asset, error) {
	query := `
		SELECT id, user_id, instrument_id, quantity, buy_price
		FROM assets
		WHERE user_id = $1 AND instrument_id = $2
	`

	return scanAsset(r.q.QueryRowContext(ctx, query, userID, instrumentID))
}

// ListByUser retrieves all positions held by a user
func (r *assetRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Asset, error) {
	query := `
		SELECT id, user_id, instrument_id, quantity, buy_price
		FROM assets
		WHERE user_id = $1
		ORDER BY instrument_id
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	assets := make([]*domain.Asset, 0)
	for rows.Next() {
		var asset domain.Asset
		var quantityStr, buyPriceStr string

		if err := rows.Scan(&asset.ID, &asset.UserID, &asset.InstrumentID, &quantityStr, &buyPriceStr); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		if asset.Quantity, err = decimal.NewFromString(quantityStr); err != nil {
			return nil, fmt.Errorf("failed to parse quantity: %w", err)
		}
		if asset.BuyPrice, err = decimal.NewFromString(buyPriceStr); err != nil {
			return nil, fmt.Errorf("failed to parse buy price: %w", err)
		}

		assets = append(assets, &asset)
	}

	return assets, rows.Err()
}

// Create creates a new asset position
func (r *assetRepository) Create(ctx context.Context, asset *domain.Asset) error {
	query := `
		INSERT INTO assets (id, user_id, instrument_id, quantity, buy_price)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		asset.ID,
		asset.UserID,
		asset.InstrumentID,
		asset.Quantity.String(),
		asset.BuyPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}

	return nil
}

// Update persists changes to an existing asset position
func (r *assetRepository) Update(ctx context.Context, asset *domain.Asset) error {
	query := `
		UPDATE assets
		SET quantity = $2, buy_price = $3
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, asset.ID, asset.Quantity.String(), asset.BuyPrice.String())
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAssetNotFound
	}

	return nil
}

// Delete removes an asset position
func (r *assetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM assets
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAssetNotFound
	}

	return nil
}
