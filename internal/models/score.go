package models

import "time"

// ScoreEntry is one finished run on the per-language high-score list.
// Multiple entries per username are allowed; the list tracks best runs,
// not best players.
type ScoreEntry struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Score     int       `json:"score"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}
