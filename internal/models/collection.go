package models

// Collection is a curated, ordered set of contents.
type Collection struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"` // derived from Name, see internal/slug
	Description string `json:"description,omitempty"`
	Type        string `json:"type"` // topic | hot
	Publish     bool   `json:"publish"`
}

// Key implements the syncview Entity interface.
func (c Collection) Key() string { return c.ID }

// CollectionPatch holds the mutable fields for PATCH /collection/:id.
type CollectionPatch struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Type        *string `json:"type,omitempty"`
	Publish     *bool   `json:"publish,omitempty"`
}
