package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"MarketPulse/internal/model"
)

// DefaultFearGreedURL is the alternative.me crypto Fear & Greed endpoint.
const DefaultFearGreedURL = "https://api.alternative.me/fng/?limit=1"

// FearGreedClient reads the latest crypto Fear & Greed index.
type FearGreedClient struct {
	URL    string
	Client *http.Client
}

// NewFearGreedClient creates a client for url, or the public endpoint when empty.
func NewFearGreedClient(url string) *FearGreedClient {
	if url == "" {
		url = DefaultFearGreedURL
	}
	return &FearGreedClient{URL: url, Client: &http.Client{Timeout: 15 * time.Second}}
}

type fearGreedResponse struct {
	Data []struct {
		Value               string `json:"value"`
		ValueClassification string `json:"value_classification"`
	} `json:"data"`
}

// FetchSentiment returns the latest index value and its category label.
func (c *FearGreedClient) FetchSentiment(ctx context.Context) (model.Sentiment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return model.Sentiment{}, err
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return model.Sentiment{}, fmt.Errorf("fetch fear index: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return model.Sentiment{}, fmt.Errorf("fetch fear index: status %d", resp.StatusCode)
	}

	var body fearGreedResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Sentiment{}, fmt.Errorf("decode fear index: %w", err)
	}
	if len(body.Data) == 0 {
		return model.Sentiment{}, fmt.Errorf("fear index: empty data")
	}
	value, err := strconv.Atoi(body.Data[0].Value)
	if err != nil {
		return model.Sentiment{}, fmt.Errorf("parse fear index value %q: %w", body.Data[0].Value, err)
	}
	if value < 0 || value > 100 {
		return model.Sentiment{}, fmt.Errorf("fear index value %d out of range", value)
	}
	return model.Sentiment{Value: value, Label: body.Data[0].ValueClassification}, nil
}
