package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"homequote/internal/domain/entities"
	"homequote/internal/usecase/interfaces"
)

type predictRequest struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

type predictResponse struct {
	SuggestedPrice    float64 `json:"suggested_price"`
	PredictedCategory string  `json:"predicted_category"`
}

// HTTPOracle asks a remote price model for the suggested price and derives the
// band locally with BoundsFromSuggested.
//
// POST {baseURL}/predict
//
//	{"category": "...", "description": "...", "location": "..."}
//	-> {"suggested_price": 300.0, "predicted_category": "Plumbing"}
type HTTPOracle struct {
	baseURL string
	client  *http.Client
}

var _ interfaces.IPricingOracle = (*HTTPOracle)(nil)

func NewHTTPOracle(baseURL string, timeout time.Duration) *HTTPOracle {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPOracle{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (o *HTTPOracle) Estimate(ctx context.Context, category, description, location string) (entities.PriceRange, error) {
	body, err := json.Marshal(predictRequest{Category: category, Description: description, Location: location})
	if err != nil {
		return entities.PriceRange{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return entities.PriceRange{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return entities.PriceRange{}, fmt.Errorf("pricing: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return entities.PriceRange{}, fmt.Errorf("pricing: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return entities.PriceRange{}, fmt.Errorf("pricing: decode response: %w", err)
	}
	if out.SuggestedPrice <= 0 {
		return entities.PriceRange{}, fmt.Errorf("pricing: non-positive suggested price %.2f", out.SuggestedPrice)
	}
	return BoundsFromSuggested(out.SuggestedPrice, out.PredictedCategory), nil
}
