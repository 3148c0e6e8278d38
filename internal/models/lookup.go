package models

// Genre is a lookup entity attached to contents.
type Genre struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName,omitempty"`
	Slug        string `json:"slug"`
}

// Key implements the syncview Entity interface.
func (g Genre) Key() string { return g.ID }

// Country is a lookup entity attached to contents.
type Country struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	EnglishName string `json:"englishName,omitempty"`
	Slug        string `json:"slug"`
}

// Key implements the syncview Entity interface.
func (c Country) Key() string { return c.ID }

// Department is a lookup entity attached to persons (many-to-many).
type Department struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Key implements the syncview Entity interface.
func (d Department) Key() string { return d.ID }
