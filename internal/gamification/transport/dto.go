package transport

import "github.com/google/uuid"

// AwardResponse is one XP grant in API responses.
type AwardResponse struct {
	ID        uuid.UUID `json:"id"`
	Points    int       `json:"points"`
	Reason    string    `json:"reason"`
	CreatedAt string    `json:"createdAt"`
}

// ProgressResponse summarizes the caller's XP standing.
type ProgressResponse struct {
	TotalXP int64           `json:"totalXp"`
	Level   int             `json:"level"`
	Recent  []AwardResponse `json:"recent"`
}

// LeaderboardEntry is one leaderboard line.
type LeaderboardEntry struct {
	AccountID uuid.UUID `json:"accountId"`
	Points    int64     `json:"points"`
	Rank      int       `json:"rank"`
}

// LeaderboardResponse wraps the community leaderboard.
type LeaderboardResponse struct {
	Entries []LeaderboardEntry `json:"entries"`
}
