package domain

import "time"

// Registration is a team entry in the registration directory.
type Registration struct {
	UniqueCode string `json:"-"`
	TeamName   string `json:"teamName"`
	Institute  string `json:"institute"`
}

// QuizResponse is one raw, unprocessed quiz submission.
type QuizResponse struct {
	ID          string    `json:"id"`
	TeamName    string    `json:"teamName"`
	Institute   string    `json:"institute"`
	Answers     Answers   `json:"answers"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// LeaderboardEntry is the published score record for a team.
type LeaderboardEntry struct {
	TeamName  string    `json:"teamName"`
	Score     int       `json:"score"`
	College   string    `json:"college"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// RankedEntry is a leaderboard entry with its display rank.
type RankedEntry struct {
	Rank int `json:"rank"`
	LeaderboardEntry
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string        `json:"quizId"`
	Entries   []RankedEntry `json:"entries"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// SubmitResult summarizes an accepted submission.
type SubmitResult struct {
	ResponseID string `json:"responseId"`
	TeamName   string `json:"teamName"`
	Institute  string `json:"institute"`
	Score      int    `json:"score"`
	// Published is false when the response was stored but the leaderboard
	// upsert failed; the reconciler will publish it later.
	Published bool `json:"published"`
}

// Round2Submission records an uploaded subjective solution.
type Round2Submission struct {
	ID          string    `json:"id"`
	TeamName    string    `json:"teamName"`
	Institute   string    `json:"institute"`
	FilePath    string    `json:"filePath"`
	FileURL     string    `json:"fileUrl"`
	SubmittedAt time.Time `json:"submittedAt"`
}
