// internal/workers/data-access/search-comparable-listings/queries/builders.go
package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex   = errors.New("index name is required")
	ErrMissingVehicle = errors.New("make and model are required")
)

const (
	DefaultSize = 25
	MaxSize     = 100
)

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ListingQuery describes a comparable search around a loss vehicle.
// A zero MaxMileage or MaxDistance disables that filter; the distance
// filter also needs an Origin.
type ListingQuery struct {
	Index          string
	Make           string
	Model          string
	Year           int
	YearWindow     int
	MaxMileage     int
	MaxDistance    float64
	Origin         *GeoPoint
	ExcludeSources []string
	From           int
	Size           int
}

func (q ListingQuery) normalized() ListingQuery {
	if q.Size < 1 {
		q.Size = DefaultSize
	}
	if q.Size > MaxSize {
		q.Size = MaxSize
	}
	if q.From < 0 {
		q.From = 0
	}
	if q.YearWindow < 0 {
		q.YearWindow = 0
	}
	return q
}

// BuildSearchBody returns the search DSL for q.
func BuildSearchBody(q ListingQuery) map[string]interface{} {
	q = q.normalized()

	must := []interface{}{
		map[string]interface{}{
			"match": map[string]interface{}{
				"make": map[string]interface{}{"query": q.Make, "operator": "and"},
			},
		},
		map[string]interface{}{
			"match": map[string]interface{}{
				"model": map[string]interface{}{"query": q.Model, "operator": "and"},
			},
		},
	}

	filter := []interface{}{}
	if q.Year > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"year": map[string]interface{}{"gte": q.Year - q.YearWindow, "lte": q.Year + q.YearWindow},
			},
		})
	}
	if q.MaxMileage > 0 {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{
				"mileage": map[string]interface{}{"lte": q.MaxMileage},
			},
		})
	}
	if q.Origin != nil && q.MaxDistance > 0 {
		filter = append(filter, map[string]interface{}{
			"geo_distance": map[string]interface{}{
				"distance":       fmt.Sprintf("%gmi", q.MaxDistance),
				"location_point": q.Origin,
			},
		})
	}

	boolQuery := map[string]interface{}{
		"must":   must,
		"filter": filter,
	}
	if len(q.ExcludeSources) > 0 {
		boolQuery["must_not"] = []interface{}{
			map[string]interface{}{"terms": map[string]interface{}{"source": q.ExcludeSources}},
		}
	}

	sort := []interface{}{"_score", map[string]interface{}{"date_added": map[string]interface{}{"order": "desc"}}}
	if q.Origin != nil {
		sort = []interface{}{
			map[string]interface{}{
				"_geo_distance": map[string]interface{}{
					"location_point": q.Origin,
					"order":          "asc",
					"unit":           "mi",
				},
			},
			"_score",
		}
	}

	return map[string]interface{}{
		"query":            map[string]interface{}{"bool": boolQuery},
		"sort":             sort,
		"track_total_hits": true,
	}
}

func BuildRequest(q ListingQuery) (*esapi.SearchRequest, error) {
	if q.Index == "" {
		return nil, ErrMissingIndex
	}
	if strings.TrimSpace(q.Make) == "" || strings.TrimSpace(q.Model) == "" {
		return nil, ErrMissingVehicle
	}
	q = q.normalized()

	body, err := json.Marshal(BuildSearchBody(q))
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	return &esapi.SearchRequest{
		Index: []string{q.Index},
		Body:  bytes.NewReader(body),
		From:  &q.From,
		Size:  &q.Size,
	}, nil
}
