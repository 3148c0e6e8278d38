package models

// Person is an actor, director, or crew member.
type Person struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Profile string `json:"profilePath,omitempty"`
}

// Key implements the syncview Entity interface.
func (p Person) Key() string { return p.ID }

// PersonPatch holds the mutable fields for PATCH /person/:id.
type PersonPatch struct {
	Name    *string `json:"name,omitempty"`
	Slug    *string `json:"slug,omitempty"`
	Profile *string `json:"profilePath,omitempty"`
}
