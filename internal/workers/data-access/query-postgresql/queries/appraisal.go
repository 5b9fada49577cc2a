// internal/workers/data-access/query-postgresql/queries/appraisal.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"valuation-workers/internal/models"

	"github.com/lib/pq"
)

const (
	lossVehicleQuery = `
		SELECT loss_year, loss_make, loss_model, loss_mileage, loss_location,
		       loss_condition, loss_equipment, market_value, settlement_value
		FROM appraisals
		WHERE id = $1`

	comparablesQuery = `
		SELECT id, appraisal_id, source, source_url, date_added, year, make, model,
		       trim, mileage, location, distance_from_loss, list_price, condition, equipment
		FROM comparables
		WHERE appraisal_id = $1
		ORDER BY date_added`

	settlementQuery = `
		SELECT id, adjuster_id, status, market_value, settlement_value, updated_at
		FROM appraisals
		WHERE id = $1`
)

// LossVehicle loads the vehicle under appraisal. sql.ErrNoRows is returned
// unwrapped when the appraisal does not exist.
func LossVehicle(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	appraisalID, err := stringParam(params, "appraisalId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	var v models.LossVehicle
	var condition sql.NullString
	var equipment pq.StringArray
	var marketValue, settlementValue sql.NullFloat64

	err = db.QueryRowContext(ctx, lossVehicleQuery, appraisalID).Scan(
		&v.Year, &v.Make, &v.Model, &v.Mileage, &v.Location,
		&condition, &equipment, &marketValue, &settlementValue,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	v.Condition = condition.String
	v.Equipment = []string(equipment)
	v.MarketValue = nullFloat(marketValue)
	v.SettlementValue = nullFloat(settlementValue)

	return v, 1, time.Since(start).Milliseconds(), nil
}

func AppraisalComparables(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	appraisalID, err := stringParam(params, "appraisalId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, comparablesQuery, appraisalID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	results := []models.Comparable{}
	for rows.Next() {
		var c models.Comparable
		var sourceURL, trim sql.NullString
		var equipment pq.StringArray
		if err := rows.Scan(
			&c.ID, &c.AppraisalID, &c.Source, &sourceURL, &c.DateAdded,
			&c.Year, &c.Make, &c.Model, &trim, &c.Mileage, &c.Location,
			&c.DistanceFromLoss, &c.ListPrice, &c.Condition, &equipment,
		); err != nil {
			return nil, 0, 0, err
		}
		c.SourceURL = sourceURL.String
		c.Trim = trim.String
		c.Equipment = []string(equipment)
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	return results, len(results), time.Since(start).Milliseconds(), nil
}

func AppraisalSettlement(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	appraisalID, err := stringParam(params, "appraisalId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()

	var id, adjusterID, status, updatedAt string
	var marketValue, settlementValue sql.NullFloat64

	err = db.QueryRowContext(ctx, settlementQuery, appraisalID).Scan(
		&id, &adjusterID, &status, &marketValue, &settlementValue, &updatedAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"appraisalId":     id,
		"adjusterId":      adjusterID,
		"status":          status,
		"marketValue":     nullFloat(marketValue),
		"settlementValue": nullFloat(settlementValue),
		"updatedAt":       updatedAt,
	}

	return result, 1, time.Since(start).Milliseconds(), nil
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
