package models

// Content represents a movie or TV show in the catalog.
type Content struct {
	ID          string  `json:"_id"`
	Title       string  `json:"title"`
	Slug        string  `json:"slug"`
	Thumbnail   string  `json:"thumbnailPath,omitempty"`
	Banner      string  `json:"bannerPath,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	Runtime     int     `json:"runtime,omitempty"`
	ReleaseDate string  `json:"releaseDate,omitempty"`
	Year        int     `json:"year,omitempty"`
	Type        string  `json:"type"`   // movie | tvshow
	Status      string  `json:"status"` // finish | updating
	Publish     bool    `json:"publish"`
	Rank        *int    `json:"rank,omitempty"` // set when listed inside a collection
}

// Key implements the syncview Entity interface.
func (c Content) Key() string { return c.ID }

// ContentPatch holds the mutable fields for a field-level PATCH.
// Pointer fields: nil = don't change, non-nil = set.
type ContentPatch struct {
	Title       *string  `json:"title,omitempty"`
	Slug        *string  `json:"slug,omitempty"`
	Thumbnail   *string  `json:"thumbnailPath,omitempty"`
	Banner      *string  `json:"bannerPath,omitempty"`
	Overview    *string  `json:"overview,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	Runtime     *int     `json:"runtime,omitempty"`
	ReleaseDate *string  `json:"releaseDate,omitempty"`
	Year        *int     `json:"year,omitempty"`
	Type        *string  `json:"type,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Publish     *bool    `json:"publish,omitempty"`
}

// BrowseFilter holds the query parameters for GET /content/v1/browse.
type BrowseFilter struct {
	Years        []int
	Type         string // movie | tvshow | "" for both
	Status       string // finish | updating | ""
	GenreSlugs   []string
	CountrySlugs []string
	Page         int
	Limit        int
}
