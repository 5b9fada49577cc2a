// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeLossVehicle          QueryType = "loss_vehicle"
	QueryTypeAppraisalComparables QueryType = "appraisal_comparables"
	QueryTypeAppraisalSettlement  QueryType = "appraisal_settlement"
)
