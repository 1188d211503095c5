package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/colorwalk/internal/domain"
)

// ImageRef identifies an image for palette extraction: either a public URL
// (stored place photos) or raw bytes (query uploads, never persisted).
type ImageRef struct {
	URL    string
	Data   []byte
	Format string
}

// PaletteProvider is the external palette extraction capability: given an
// image reference, return up to MaxColors dominant colors with population
// weights. The engine does its own top-5 selection and Lab conversion.
type PaletteProvider interface {
	ExtractPalette(ctx context.Context, ref ImageRef) ([]domain.Swatch, error)
}

// PaletteService calls an HTTP palette extraction API.
type PaletteService struct {
	client    *resty.Client
	maxColors int
}

// PaletteServiceConfig holds configuration for the palette service
type PaletteServiceConfig struct {
	BaseURL   string
	APIKey    string
	MaxColors int
}

// NewPaletteService creates a new palette extraction client.
// Parameters:
//   - cfg: palette API configuration.
// Returns:
//   - *PaletteService: initialized client.
func NewPaletteService(cfg *PaletteServiceConfig) *PaletteService {
	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	maxColors := cfg.MaxColors
	if maxColors <= 0 {
		maxColors = 6
	}

	return &PaletteService{
		client:    client,
		maxColors: maxColors,
	}
}

// Palette API request/response structures
type paletteRequest struct {
	ImageURL  string `json:"image_url,omitempty"`
	ImageData string `json:"image_data,omitempty"` // base64
	Format    string `json:"format,omitempty"`
	MaxColors int    `json:"max_colors"`
}

type paletteResponse struct {
	Colors []struct {
		Hex        string `json:"hex"`
		RGB        [3]int `json:"rgb"`
		Population int    `json:"population"`
	} `json:"colors"`
	Error string `json:"error,omitempty"`
}

// ExtractPalette requests the dominant colors of an image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ref: image reference (URL or raw bytes).
// Returns:
//   - []domain.Swatch: extracted swatches in API order; may be fewer than requested.
//   - error: non-nil on transport failure, API error, or empty result.
func (s *PaletteService) ExtractPalette(ctx context.Context, ref ImageRef) ([]domain.Swatch, error) {
	req := paletteRequest{
		MaxColors: s.maxColors,
	}
	switch {
	case ref.URL != "":
		req.ImageURL = ref.URL
	case len(ref.Data) > 0:
		req.ImageData = base64.StdEncoding.EncodeToString(ref.Data)
		req.Format = ref.Format
	default:
		return nil, fmt.Errorf("no image supplied for palette extraction")
	}

	var resp paletteResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post("/v1/palette")

	if err != nil {
		return nil, fmt.Errorf("failed to call palette API: %w", err)
	}

	if httpResp.StatusCode() != 200 {
		if resp.Error != "" {
			return nil, fmt.Errorf("palette API error: %s", resp.Error)
		}
		return nil, fmt.Errorf("palette API error: status %d", httpResp.StatusCode())
	}

	if len(resp.Colors) == 0 {
		return nil, fmt.Errorf("palette API returned no colors")
	}

	swatches := make([]domain.Swatch, len(resp.Colors))
	for i, c := range resp.Colors {
		swatches[i] = domain.Swatch{
			Hex:        c.Hex,
			RGB:        c.RGB,
			Population: c.Population,
		}
	}

	return swatches, nil
}
