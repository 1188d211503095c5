package domain

import "time"

// Place represents a bookmarked location with its photo and visual fingerprint.
// Fields include identifiers, descriptive text, photo storage metadata, and the
// feature record populated by background enrichment.
type Place struct {
	ID          string `gorm:"type:text;primaryKey" json:"id"`
	OwnerID     string `gorm:"type:text;not null;index:idx_places_owner" json:"owner_id"`
	Title       string `gorm:"type:text;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Address     string `gorm:"type:text" json:"address"`

	// Photo storage metadata
	PhotoKey string `gorm:"type:text" json:"photo_key"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`

	// Feature record (all fields independent; any subset may be present)
	Palette          Palette      `gorm:"type:text" json:"palette,omitempty"`
	ColorVector      ColorVector  `gorm:"type:text" json:"color_vector,omitempty"`
	IsColorful       Colorfulness `gorm:"type:text;default:''" json:"is_colorful"`
	EmbeddingPointID string       `gorm:"type:text" json:"embedding_point_id,omitempty"`
	EmbeddingModel   string       `gorm:"type:text" json:"embedding_model,omitempty"`
	ExtractedAt      *time.Time   `json:"extracted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Place.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (Place) TableName() string {
	return "places"
}

// HasColorVector reports whether a color fingerprint has been extracted.
func (p *Place) HasColorVector() bool {
	return len(p.ColorVector) == ColorVectorDim
}

// HasEmbedding reports whether a text embedding has been stored for the place.
func (p *Place) HasEmbedding() bool {
	return p.EmbeddingPointID != ""
}

// HasFeatures reports whether the place is an eligible search candidate, i.e.
// at least one of the two feature signals is present.
func (p *Place) HasFeatures() bool {
	return p.HasColorVector() || p.HasEmbedding()
}

// EmbeddingText builds the text fed to the embedding provider from the place's
// descriptive fields. Empty fields are skipped.
func (p *Place) EmbeddingText() string {
	text := p.Title
	if p.Description != "" {
		text += "\n" + p.Description
	}
	if p.Address != "" {
		text += "\n" + p.Address
	}
	return text
}
