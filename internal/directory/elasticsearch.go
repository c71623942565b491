package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/common/logger"
	"tender-engine/internal/models"
)

const defaultSearchSize = 200

// ErrMissingCategory rejects a search without a category filter: an
// unfiltered scan over the whole index is never intended.
var ErrMissingCategory = errors.New("category is required")

// ESDirectory serves professional lookups from an Elasticsearch index
// of profile documents.
type ESDirectory struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewESDirectory(client *elasticsearch.Client, index string, log logger.Logger) *ESDirectory {
	return &ESDirectory{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "directory"}),
	}
}

func (d *ESDirectory) FindProfessionals(ctx context.Context, q Query) ([]models.Professional, error) {
	body, err := buildSearchBody(q)
	if err != nil {
		return nil, err
	}

	size := q.Size
	if size <= 0 {
		size = defaultSearchSize
	}

	req := esapi.SearchRequest{
		Index: []string{d.index},
		Body:  strings.NewReader(body),
		Size:  &size,
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch",
			fmt.Errorf("search returned %s", res.Status()))
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch", err)
	}

	professionals, err := decodeSearchResponse(raw)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch", err)
	}

	d.logger.Debug("directory search completed", map[string]interface{}{
		"category": q.Category,
		"hits":     len(professionals),
	})
	return professionals, nil
}

func (d *ESDirectory) GetProfile(ctx context.Context, professionalID string) (*models.Professional, error) {
	req := esapi.GetRequest{
		Index:      d.index,
		DocumentID: professionalID,
	}

	res, err := req.Do(ctx, d.client)
	if err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, commonerrors.NewProfileNotFound(professionalID)
	}
	if res.IsError() {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch",
			fmt.Errorf("get returned %s", res.Status()))
	}

	var doc struct {
		ID     string              `json:"_id"`
		Source professionalDocument `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, commonerrors.NewUpstream(commonerrors.CodeDirectoryFailure, "elasticsearch", err)
	}

	p := doc.Source.toModel(doc.ID)
	return &p, nil
}

// buildSearchBody assembles the bool query: category term filter,
// optional status terms, a GPS existence check, and the bounding-box
// range prefilter. The exact great-circle membership is decided by the
// caller, the box only trims the candidate set.
func buildSearchBody(q Query) (string, error) {
	if q.Category == "" {
		return "", ErrMissingCategory
	}

	filterClauses := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"category": q.Category},
		},
		map[string]interface{}{
			"exists": map[string]interface{}{"field": "gps_coordinates"},
		},
	}

	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"status": statuses},
		})
	}

	if q.Bounds != nil {
		filterClauses = append(filterClauses,
			map[string]interface{}{
				"range": map[string]interface{}{
					"latitude": map[string]interface{}{
						"gte": q.Bounds.MinLat,
						"lte": q.Bounds.MaxLat,
					},
				},
			},
			map[string]interface{}{
				"range": map[string]interface{}{
					"longitude": map[string]interface{}{
						"gte": q.Bounds.MinLon,
						"lte": q.Bounds.MaxLon,
					},
				},
			},
		)
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": filterClauses,
			},
		},
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// professionalDocument mirrors the profile index mapping.
type professionalDocument struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Status         string  `json:"status"`
	GPSCoordinates string  `json:"gps_coordinates"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	City           string  `json:"city"`
	District       string  `json:"district"`
	Phone          string  `json:"phone"`
	Email          string  `json:"email"`
	DeviceARN      string  `json:"device_arn"`
}

func (doc professionalDocument) toModel(id string) models.Professional {
	return models.Professional{
		ID:             id,
		Name:           doc.Name,
		Category:       doc.Category,
		Status:         models.ProfessionalStatus(doc.Status),
		GPSCoordinates: doc.GPSCoordinates,
		City:           doc.City,
		District:       doc.District,
		Phone:          doc.Phone,
		Email:          doc.Email,
		DeviceARN:      doc.DeviceARN,
	}
}

func decodeSearchResponse(raw []byte) ([]models.Professional, error) {
	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string               `json:"_id"`
				Source professionalDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	professionals := make([]models.Professional, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		professionals = append(professionals, hit.Source.toModel(hit.ID))
	}
	return professionals, nil
}
