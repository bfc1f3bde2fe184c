package airtable

import (
	"context"
	"encoding/json"

	"github.com/billhive/subsync/internal/domain/discountgrid"
	ierr "github.com/billhive/subsync/internal/errors"
	"github.com/shopspring/decimal"
)

// GridRepository implements discountgrid.Repository on the grids table
type GridRepository struct {
	client *Client
}

// NewGridRepository creates a new GridRepository
func NewGridRepository(client *Client) *GridRepository {
	return &GridRepository{client: client}
}

// Get returns one grid by record id
func (r *GridRepository) Get(ctx context.Context, id string) (*discountgrid.Grid, error) {
	rec, err := r.client.getRecord(ctx, r.client.config.GridsTable, id)
	if err != nil {
		return nil, err
	}
	return decodeGrid(*rec)
}

// List returns all grids
func (r *GridRepository) List(ctx context.Context) ([]*discountgrid.Grid, error) {
	records, err := r.client.listRecords(ctx, r.client.config.GridsTable, "")
	if err != nil {
		return nil, err
	}

	grids := make([]*discountgrid.Grid, 0, len(records))
	for _, rec := range records {
		grid, err := decodeGrid(rec)
		if err != nil {
			r.client.log.Warnw("skipping malformed discount grid record",
				"record_id", rec.ID, "error", err)
			continue
		}
		grids = append(grids, grid)
	}
	return grids, nil
}

func decodeGrid(rec record) (*discountgrid.Grid, error) {
	var fields gridFields
	if err := json.Unmarshal(rec.Fields, &fields); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode discount grid fields").
			Mark(ierr.ErrDiscountResolution)
	}

	return &discountgrid.Grid{
		ID:      rec.ID,
		Name:    fields.Name,
		Default: fields.Default,
		// Bases created before the active column existed treat every grid as active
		Active: fields.Active == nil || *fields.Active,
		Tier1: discountgrid.Tier{
			Percentage: decimal.NewFromFloat(fields.Tier1Pct),
			Label:      fields.Tier1Label,
		},
		Tier2: discountgrid.Tier{
			Percentage: decimal.NewFromFloat(fields.Tier2Pct),
			Label:      fields.Tier2Label,
		},
		Tier3: discountgrid.Tier{
			Percentage: decimal.NewFromFloat(fields.Tier3Pct),
			Label:      fields.Tier3Label,
		},
	}, nil
}
