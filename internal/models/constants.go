package models

// Content type values.
const (
	TypeMovie  = "movie"
	TypeTVShow = "tvshow"
)

// Content status values.
const (
	StatusFinish   = "finish"
	StatusUpdating = "updating"
)

// Collection type values.
const (
	CollectionTopic = "topic"
	CollectionHot   = "hot"
)

// Media audio type values.
const (
	AudioSubtitle  = "subtitle"
	AudioOriginal  = "original"
	AudioVoiceover = "voiceover"
)

// CompletedThreshold is the progress percentage above which a history
// row is marked completed.
const CompletedThreshold = 90.0
