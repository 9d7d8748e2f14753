package recommendations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/telemetry"
)

// Feedback types sent to Gorse
const (
	FeedbackView  = "view"
	FeedbackLike  = "like"
	FeedbackClick = "click"
)

// GorseRESTClient talks to the Gorse recommender over its REST API
type GorseRESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGorseRESTClient creates a new Gorse REST client. A nil httpClient gets a
// plain client with a 10 second timeout.
func NewGorseRESTClient(baseURL, apiKey string, httpClient *http.Client) *GorseRESTClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &GorseRESTClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  httpClient,
	}
}

// Neighbor is one entry of Gorse's item neighbors response
type Neighbor struct {
	ID    string  `json:"Id"`
	Score float64 `json:"Score"`
}

// GorseItem represents a gallery item in Gorse
type GorseItem struct {
	ItemId     string         `json:"ItemId"`
	IsHidden   bool           `json:"IsHidden,omitempty"`
	Categories []string       `json:"Categories,omitempty"`
	Timestamp  string         `json:"Timestamp,omitempty"`
	Labels     GorseItemLabel `json:"Labels"`
	Comment    string         `json:"Comment,omitempty"`
}

// GorseItemLabel is the label payload we attach to items
type GorseItemLabel struct {
	Tags      []string `json:"tags,omitempty"`
	CreatorID string   `json:"creator_id,omitempty"`
	Tier      string   `json:"tier,omitempty"`
}

// GorseFeedback represents user feedback in Gorse
type GorseFeedback struct {
	FeedbackType string `json:"FeedbackType"`
	UserId       string `json:"UserId"`
	ItemId       string `json:"ItemId"`
	Timestamp    string `json:"Timestamp,omitempty"`
}

// makeRequest makes an HTTP request to Gorse API
func (c *GorseRESTClient) makeRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, fmt.Errorf("gorse API error: status %d", resp.StatusCode)
	}

	return resp, nil
}

// Health checks that the Gorse server answers its health endpoint
func (c *GorseRESTClient) Health(ctx context.Context) error {
	resp, err := c.makeRequest(ctx, http.MethodGet, "/api/health/ready", nil)
	if err != nil {
		return fmt.Errorf("gorse health check failed: %w", err)
	}
	resp.Body.Close()
	return nil
}

// GetItemNeighbors returns up to n items Gorse considers similar to itemID,
// best first
func (c *GorseRESTClient) GetItemNeighbors(ctx context.Context, itemID string, n int) ([]Neighbor, error) {
	// GET /api/item/{item-id}/neighbors?n={n}
	ctx, span := telemetry.TraceGorseCall(ctx, "item_neighbors", telemetry.GorseCallAttrs{ItemID: itemID, Limit: n})
	defer span.End()

	endpoint := fmt.Sprintf("/api/item/%s/neighbors?n=%d", url.PathEscape(itemID), n)
	resp, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, fmt.Errorf("failed to get item neighbors: %w", err)
	}
	defer resp.Body.Close()

	var neighbors []Neighbor
	if err := json.NewDecoder(resp.Body).Decode(&neighbors); err != nil {
		telemetry.RecordServiceError(span, err)
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	telemetry.RecordServiceSuccess(span, len(neighbors), false)
	return neighbors, nil
}

// SyncItem upserts a gallery item into Gorse
func (c *GorseRESTClient) SyncItem(ctx context.Context, item models.GalleryItem) error {
	ctx, span := telemetry.TraceGorseCall(ctx, "insert_item", telemetry.GorseCallAttrs{ItemID: item.ID})
	defer span.End()

	resp, err := c.makeRequest(ctx, http.MethodPost, "/api/item", toGorseItem(item))
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return err
	}
	resp.Body.Close()
	return nil
}

// BatchSyncItems upserts many items in one call
func (c *GorseRESTClient) BatchSyncItems(ctx context.Context, items []models.GalleryItem) error {
	if len(items) == 0 {
		return nil
	}
	payload := make([]GorseItem, 0, len(items))
	for _, item := range items {
		payload = append(payload, toGorseItem(item))
	}

	ctx, span := telemetry.TraceGorseCall(ctx, "insert_items", telemetry.GorseCallAttrs{Limit: len(payload)})
	defer span.End()

	resp, err := c.makeRequest(ctx, http.MethodPost, "/api/items", payload)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return fmt.Errorf("failed to sync %d items: %w", len(items), err)
	}
	resp.Body.Close()
	return nil
}

// SyncFeedback records a user interaction with an item
func (c *GorseRESTClient) SyncFeedback(ctx context.Context, userID, itemID, feedbackType string) error {
	feedback := []GorseFeedback{
		{
			FeedbackType: feedbackType,
			UserId:       userID,
			ItemId:       itemID,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	}

	ctx, span := telemetry.TraceGorseCall(ctx, "insert_feedback", telemetry.GorseCallAttrs{ItemID: itemID, UserID: userID})
	defer span.End()

	resp, err := c.makeRequest(ctx, http.MethodPost, "/api/feedback", feedback)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		return err
	}
	resp.Body.Close()
	return nil
}

func toGorseItem(item models.GalleryItem) GorseItem {
	tier := ""
	if item.TierLocked {
		tier = item.RequiredTier
		if tier == "" {
			tier = models.TierSupporter
		}
	}

	return GorseItem{
		ItemId:     item.ID,
		Categories: append([]string(nil), item.Tags...),
		Timestamp:  item.CreatedAt.UTC().Format(time.RFC3339),
		Labels: GorseItemLabel{
			Tags:      item.Tags,
			CreatorID: item.CreatorID,
			Tier:      tier,
		},
		Comment: item.Title,
	}
}
