package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// cacheKey returns SHA-256 hex of the lowercased, trimmed address.
func cacheKey(address string) string {
	normalized := strings.ToLower(strings.TrimSpace(address))
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// nominatimPlace is one entry of the Nominatim search response.
type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	OSMType     string `json:"osm_type"`
}

func (g *geocoder) geocodeNominatim(ctx context.Context, address string) (*Result, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "geocode: rate limit wait")
		}
	}

	q := url.Values{}
	q.Set("q", address)
	q.Set("format", "jsonv2")
	q.Set("limit", "1")
	q.Set("countrycodes", "us")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: create request")
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("geocode: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: unmarshal response")
	}

	if len(places) == 0 {
		zap.L().Debug("geocode miss", zap.String("address", address))
		return &Result{Matched: false}, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse latitude")
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: parse longitude")
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		DisplayName: p.DisplayName,
		OSMType:     p.OSMType,
		Matched:     true,
	}, nil
}
