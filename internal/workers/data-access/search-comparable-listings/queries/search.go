// internal/workers/data-access/search-comparable-listings/queries/search.go
package queries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"valuation-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

var (
	ErrIndexNotFound = errors.New("index not found")
	ErrSearchFailed  = errors.New("search failed")
	ErrTransport     = errors.New("elasticsearch transport error")
)

type SearchResult struct {
	Comparables []models.Comparable
	TotalHits   int64
	MaxScore    float64
	Took        int64
}

// listingDocument is the stored shape of a listing in the index.
type listingDocument struct {
	ID        string   `json:"id"`
	Source    string   `json:"source"`
	SourceURL string   `json:"source_url"`
	DateAdded string   `json:"date_added"`
	Year      int      `json:"year"`
	Make      string   `json:"make"`
	Model     string   `json:"model"`
	Trim      string   `json:"trim"`
	Mileage   int      `json:"mileage"`
	Location  string   `json:"location"`
	ListPrice float64  `json:"list_price"`
	Condition string   `json:"condition"`
	Equipment []string `json:"equipment"`
	Distance  *float64 `json:"distance_from_loss"`
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string          `json:"_id"`
			Source listingDocument `json:"_source"`
			Sort   []interface{}   `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs q against client. Hit distances come from the geo sort when
// q has an origin, otherwise from the stored distance_from_loss field.
func Search(ctx context.Context, client *elasticsearch.Client, q ListingQuery) (*SearchResult, error) {
	req, err := BuildRequest(q)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, q.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailed, res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrSearchFailed, err)
	}

	result := &SearchResult{
		Comparables: make([]models.Comparable, 0, len(r.Hits.Hits)),
		TotalHits:   r.Hits.Total.Value,
		Took:        time.Since(start).Milliseconds(),
	}
	if r.Hits.MaxScore != nil {
		result.MaxScore = *r.Hits.MaxScore
	}

	for _, hit := range r.Hits.Hits {
		c := toComparable(hit.Source)
		if c.ID == "" {
			c.ID = hit.ID
		}
		if q.Origin != nil && len(hit.Sort) > 0 {
			if d, ok := hit.Sort[0].(float64); ok {
				c.DistanceFromLoss = d
			}
		}
		result.Comparables = append(result.Comparables, c)
	}

	return result, nil
}

func toComparable(doc listingDocument) models.Comparable {
	c := models.Comparable{
		ID:        doc.ID,
		Source:    doc.Source,
		SourceURL: doc.SourceURL,
		DateAdded: parseDate(doc.DateAdded),
		Year:      doc.Year,
		Make:      doc.Make,
		Model:     doc.Model,
		Trim:      doc.Trim,
		Mileage:   doc.Mileage,
		Location:  doc.Location,
		ListPrice: doc.ListPrice,
		Condition: doc.Condition,
		Equipment: doc.Equipment,
	}
	if doc.Distance != nil {
		c.DistanceFromLoss = *doc.Distance
	}
	return c
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
