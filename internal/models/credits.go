package models

// CastMember links a person to a content as cast.
// At most one row may exist per (ContentID, PersonID).
type CastMember struct {
	ContentID  string `json:"contentId"`
	PersonID   string `json:"personId"`
	PersonName string `json:"personName"`
	Character  string `json:"character"`
	Rank       int    `json:"rank"`
}

// Key implements the syncview Entity interface. Junction rows are
// identified by the person side within one content's credit list.
func (c CastMember) Key() string { return c.PersonID }

// Director links a person to a content as director.
type Director struct {
	ContentID  string `json:"contentId"`
	PersonID   string `json:"personId"`
	PersonName string `json:"personName"`
	Rank       int    `json:"rank"`
}

// Key implements the syncview Entity interface.
func (d Director) Key() string { return d.PersonID }
