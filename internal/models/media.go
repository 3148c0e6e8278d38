package models

// Media is one playable asset under a content item.
type Media struct {
	ID        string `json:"_id"`
	ContentID string `json:"contentId"`
	Season    int    `json:"season,omitempty"`
	Episode   int    `json:"episode,omitempty"`
	AudioType string `json:"audioType"` // subtitle | original | voiceover
	PublicID  string `json:"publicId"`
	Title     string `json:"title,omitempty"`
}

// Key implements the syncview Entity interface.
func (m Media) Key() string { return m.ID }

// MediaPatch holds the mutable fields for PUT /api/media/:id.
type MediaPatch struct {
	Season    *int    `json:"season,omitempty"`
	Episode   *int    `json:"episode,omitempty"`
	AudioType *string `json:"audioType,omitempty"`
	Title     *string `json:"title,omitempty"`
}
