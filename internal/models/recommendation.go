package models

// AttentionPost is one entry in the "posts needing attention" ranking.
// Properties holds human-readable facts about why the post warrants attention.
type AttentionPost struct {
	PostID     int      `json:"post_id"`
	Title      string   `json:"title"`
	Properties []string `json:"properties"`
}
