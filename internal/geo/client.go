package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jazetjaz01/streamdi/internal/config"
)

// Location is the city/country pair used for profile enrichment.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country_name"`
}

// Client looks up an approximate location for an IP address. Lookups are
// strictly best effort: any failure is returned to the caller to log and
// continue, never to block profile creation.
type Client struct {
	endpoint string
	http     *http.Client
	enabled  bool
}

func NewClient(cfg config.GeoConfig) *Client {
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		enabled:  cfg.Enabled,
	}
}

// Lookup resolves city and country for the given IP. Returns a zero
// Location without error when the client is disabled.
func (c *Client) Lookup(ctx context.Context, ip string) (Location, error) {
	var loc Location
	if !c.enabled || ip == "" {
		return loc, nil
	}

	u := fmt.Sprintf("%s/%s/json/", c.endpoint, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return loc, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return loc, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return loc, fmt.Errorf("geo lookup status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&loc); err != nil {
		return loc, err
	}
	return loc, nil
}
