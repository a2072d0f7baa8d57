package models

// ListingInput is one scraped listing as handed over by the scraping layer.
// The engine treats it as read-only; missing text fields are empty strings
// and missing coordinates are nil.
type ListingInput struct {
	ExternalID      int64    `json:"external_id"`
	Title           string   `json:"title"`
	LocationText    string   `json:"location_text"`
	DetailsText     string   `json:"details_text"`
	DescriptionText string   `json:"description_text"`
	Latitude        *float64 `json:"latitude,omitempty"`
	Longitude       *float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether the listing carries a usable coordinate pair.
func (l *ListingInput) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Source field identifiers, in descending priority order.
const (
	SourceTitle       = "title"
	SourceLocation    = "location"
	SourceDetails     = "details"
	SourceDescription = "description"
)

// SourceFields lists the text fields in descending priority order.
var SourceFields = []string{SourceTitle, SourceLocation, SourceDetails, SourceDescription}

// TextBySource returns the raw text of the named field.
func (l *ListingInput) TextBySource(source string) string {
	switch source {
	case SourceTitle:
		return l.Title
	case SourceLocation:
		return l.LocationText
	case SourceDetails:
		return l.DetailsText
	case SourceDescription:
		return l.DescriptionText
	}
	return ""
}
