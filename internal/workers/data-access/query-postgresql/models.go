// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "valuation-workers/internal/models"

type Input struct {
	QueryType  string                 `json:"queryType" validate:"required"`
	Parameters map[string]interface{} `json:"parameters" validate:"required"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeLossVehicle          = models.QueryTypeLossVehicle
	QueryTypeAppraisalComparables = models.QueryTypeAppraisalComparables
	QueryTypeAppraisalSettlement  = models.QueryTypeAppraisalSettlement
)
