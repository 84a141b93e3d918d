package confession

import (
	"strings"
	"time"
)

// Confession is one uploaded audio recording plus its metadata record.
// The deletion code is deliberately not part of this struct: it is returned
// exactly once, by Service.Create, and is never read back afterwards.
type Confession struct {
	ID          int64     `json:"id"`
	Name        string    `json:"confessionName"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags"`
	AudioKey    string    `json:"audioKey"`
	DailyPlays  int64     `json:"dailyPlays"`
	Plays       int64     `json:"plays"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Record is a Confession together with its deletion code, as persisted in
// the metadata store. It never crosses the HTTP surface.
type Record struct {
	Confession
	DeletionCode string
}

// NormalizeTags splits a raw comma separated tag list into trimmed,
// lower-cased tags, dropping empties. The result round-trips through
// joinTags/NormalizeTags unchanged.
func NormalizeTags(raw string) []string {
	tags := []string{}
	for _, tag := range strings.Split(raw, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// joinTags is the storage form of a normalized tag list.
func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}
