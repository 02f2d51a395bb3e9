package model

// Candidate is a resolver result considered for selection. Candidates are
// never stored in the queue.
type Candidate struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Locator      string `json:"locator"`
	Channel      string `json:"channel"`
	Description  string `json:"description,omitempty"`
	Accessible   bool   `json:"accessible"`
	AccessDetail string `json:"access_detail"`

	// Optional catalog metadata, zero when the lookup was unavailable
	Duration  string `json:"duration,omitempty"`
	ViewCount int64  `json:"view_count,omitempty"`
	LikeCount int64  `json:"like_count,omitempty"`
}
