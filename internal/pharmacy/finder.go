// Package pharmacy resolves nearby pharmacies through maps-grounded
// generation. Results come only from grounding chunks; nothing is invented
// when grounding returns nothing.
package pharmacy

import (
	"context"
	"fmt"

	"medidecode/internal/llmclient"
)

// MaxResults bounds how many pharmacies a lookup returns.
const MaxResults = 3

// Pharmacy is one grounded place hit.
type Pharmacy struct {
	Name    string `json:"name"`
	URI     string `json:"uri"`
	Address string `json:"address,omitempty"`
}

type Finder struct {
	cli llmclient.Client
}

func NewFinder(cli llmclient.Client) *Finder {
	return &Finder{cli: cli}
}

// Nearby returns up to MaxResults pharmacies around the given coordinates.
// An empty slice means grounding found nothing; that is not an error.
func (f *Finder) Nearby(ctx context.Context, lat, lng float64) ([]Pharmacy, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, llmclient.NewFault(llmclient.KindInput, "coordinates out of range")
	}
	places, err := f.cli.GroundedPlaces(ctx, llmclient.PlacesRequest{
		Prompt:    fmt.Sprintf("List up to %d pharmacies or medical stores open now near this location.", MaxResults),
		Latitude:  lat,
		Longitude: lng,
		Limit:     MaxResults,
	})
	if err != nil {
		return nil, err
	}
	out := make([]Pharmacy, 0, len(places))
	for _, p := range places {
		out = append(out, Pharmacy{Name: p.Name, URI: p.URI, Address: p.Address})
	}
	return out, nil
}
