// Package geocoder resolves free-text addresses to coordinates through a
// Yandex-compatible geocoding HTTP API.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pizzeria/internal/core/domain/model/kernel"
	"pizzeria/internal/core/ports"
	"pizzeria/internal/pkg/errs"
)

// Client implements the Geocoder port.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a geocoder client for the given API endpoint.
func NewClient(baseURL, apiKey string) (*Client, error) {
	if baseURL == "" {
		return nil, errs.NewValueIsRequiredError("base url")
	}
	if apiKey == "" {
		return nil, errs.NewValueIsRequiredError("api key")
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

// Resolve maps free-text address input to geographic coordinates.
// Returns ports.ErrAddressNotFound when the provider finds no match.
func (c *Client) Resolve(ctx context.Context, address string) (kernel.GeoPoint, error) {
	if strings.TrimSpace(address) == "" {
		return kernel.GeoPoint{}, errs.NewValueIsRequiredError("address")
	}

	query := url.Values{
		"geocode": {address},
		"apikey":  {c.apiKey},
		"format":  {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/1.x/?"+query.Encode(), nil)
	if err != nil {
		return kernel.GeoPoint{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return kernel.GeoPoint{}, errs.NewBackendUnavailableError("geocoder", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return kernel.GeoPoint{}, errs.NewBackendUnavailableError("geocoder",
			fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var body struct {
		Response struct {
			GeoObjectCollection struct {
				FeatureMember []struct {
					GeoObject struct {
						Point struct {
							Pos string `json:"pos"`
						} `json:"Point"`
					} `json:"GeoObject"`
				} `json:"featureMember"`
			} `json:"GeoObjectCollection"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return kernel.GeoPoint{}, errs.NewBackendUnavailableError("geocoder", err)
	}

	members := body.Response.GeoObjectCollection.FeatureMember
	if len(members) == 0 {
		return kernel.GeoPoint{}, ports.ErrAddressNotFound
	}

	return parsePos(members[0].GeoObject.Point.Pos)
}

// parsePos decodes the provider's "lon lat" position string.
func parsePos(pos string) (kernel.GeoPoint, error) {
	fields := strings.Fields(pos)
	if len(fields) != 2 {
		return kernel.GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("position",
			fmt.Errorf("malformed pos %q", pos))
	}

	lon, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return kernel.GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("position", err)
	}
	lat, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return kernel.GeoPoint{}, errs.NewValueIsInvalidErrorWithCause("position", err)
	}

	return kernel.NewGeoPoint(lat, lon)
}
