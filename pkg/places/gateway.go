package places

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"googlemaps.github.io/maps"
)

var (
	// ErrLocationNotFound is returned when the address cannot be geocoded.
	ErrLocationNotFound = errors.New("location not found")
	// ErrMissingInput is returned when address, categories or radius are missing.
	ErrMissingInput = errors.New("location, type and radius are required")
)

// MapsClient is the subset of *maps.Client the gateway uses
type MapsClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
}

// Place is a point of interest returned to API clients
type Place struct {
	Name      string   `json:"name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Types     []string `json:"types"`
}

// Coordinates of a geocoded address
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Query describes one nearby lookup. Categories may contain aliases such as "mall".
type Query struct {
	Address    string
	Categories []string
	Radius     int
}

// Result is the outcome of a nearby lookup
type Result struct {
	Location    string      `json:"location"`
	Coordinates Coordinates `json:"coordinates"`
	Radius      int         `json:"radius"`
	Types       []string    `json:"types"`
	Places      []Place     `json:"results"`
}

// Gateway geocodes addresses and searches nearby places through the Google Maps APIs
type Gateway struct {
	client MapsClient
}

// NewGateway creates a Gateway over an existing maps client
func NewGateway(client MapsClient) *Gateway {
	return &Gateway{client: client}
}

// NewGoogleGateway creates a Gateway backed by the Google Maps web services
func NewGoogleGateway(apiKey string) (*Gateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google maps API key not provided")
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("error creating maps client: %w", err)
	}
	return NewGateway(client), nil
}

// Validate normalizes the query in place. It never touches the network.
func (q *Query) Validate() error {
	q.Address = strings.TrimSpace(q.Address)
	if q.Address == "" || len(q.Categories) == 0 || q.Radius <= 0 {
		return ErrMissingInput
	}
	categories, err := NormalizeCategories(q.Categories)
	if err != nil {
		return err
	}
	q.Categories = categories
	return nil
}

// Nearby geocodes q.Address and searches every category around it concurrently.
// Results are concatenated in category order; a place matching two categories appears
// twice. Any failing category fails the whole lookup.
func (g *Gateway) Nearby(ctx context.Context, q Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	coords, err := g.Geocode(ctx, q.Address)
	if err != nil {
		return nil, err
	}

	perCategory := make([][]Place, len(q.Categories))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, category := range q.Categories {
		eg.Go(func() error {
			found, err := g.search(egCtx, coords, q.Radius, category)
			if err != nil {
				return fmt.Errorf("nearby search for %s: %w", category, err)
			}
			perCategory[i] = found
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	merged := make([]Place, 0)
	for _, found := range perCategory {
		merged = append(merged, found...)
	}

	return &Result{
		Location:    q.Address,
		Coordinates: coords,
		Radius:      q.Radius,
		Types:       q.Categories,
		Places:      merged,
	}, nil
}

// Geocode resolves an address to the coordinates of the provider's first match.
func (g *Gateway) Geocode(ctx context.Context, address string) (Coordinates, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(results) == 0 {
		return Coordinates{}, ErrLocationNotFound
	}
	loc := results[0].Geometry.Location
	return Coordinates{Lat: loc.Lat, Lng: loc.Lng}, nil
}

func (g *Gateway) search(ctx context.Context, at Coordinates, radius int, category string) ([]Place, error) {
	resp, err := g.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: at.Lat, Lng: at.Lng},
		Radius:   uint(radius),
		Type:     maps.PlaceType(category),
	})
	if err != nil {
		return nil, err
	}
	found := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		found = append(found, Place{
			Name:      r.Name,
			Latitude:  r.Geometry.Location.Lat,
			Longitude: r.Geometry.Location.Lng,
			Types:     r.Types,
		})
	}
	return found, nil
}
