package llmclient

import (
	"testing"

	"github.com/stretchr/testify/require"
	genai "google.golang.org/genai"
)

func TestPlacesConfigAnchorsCoordinates(t *testing.T) {
	cfg := placesConfig(PlacesRequest{Latitude: 12.97, Longitude: 77.59, Limit: 3})

	require.Len(t, cfg.Tools, 1)
	require.NotNil(t, cfg.Tools[0].GoogleMaps)
	latLng := cfg.ToolConfig.RetrievalConfig.LatLng
	require.NotNil(t, latLng)
	require.Equal(t, 12.97, *latLng.Latitude)
	require.Equal(t, 77.59, *latLng.Longitude)
}

func TestPlacesFromResponseReadsGroundingChunks(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{Title: "City Pharmacy", URI: "https://maps.example/1"}},
					nil,
					{RetrievedContext: &genai.GroundingChunkRetrievedContext{Title: "MediPlus", URI: "https://maps.example/2", Text: "12 Main St"}},
					{Web: &genai.GroundingChunkWeb{URI: "https://maps.example/3"}},
					{Web: &genai.GroundingChunkWeb{Title: "Overflow", URI: "https://maps.example/4"}},
				},
			},
		}},
	}

	got := placesFromResponse(resp, 3)
	require.Len(t, got, 3)
	require.Equal(t, Place{Name: "City Pharmacy", URI: "https://maps.example/1"}, got[0])
	require.Equal(t, Place{Name: "MediPlus", URI: "https://maps.example/2", Address: "12 Main St"}, got[1])
	// Untitled hits still surface, never invented beyond the chunk data.
	require.Equal(t, "Nearby Pharmacy", got[2].Name)
	require.Equal(t, "https://maps.example/3", got[2].URI)
}

func TestPlacesFromResponseEmptyGrounding(t *testing.T) {
	require.Empty(t, placesFromResponse(&genai.GenerateContentResponse{}, 3))
	require.Empty(t, placesFromResponse(nil, 3))
}
