package domain

// StatusCounts tallies a user's books by status.
type StatusCounts struct {
	Total      int `json:"total_books"`
	Completed  int `json:"completed_books"`
	Reading    int `json:"reading_books"`
	NotStarted int `json:"not_started_books"`
}

// Add counts one relation.
func (c *StatusCounts) Add(status ReadingStatus) {
	c.Total++
	switch status {
	case StatusCompleted:
		c.Completed++
	case StatusReading:
		c.Reading++
	case StatusNotStarted:
		c.NotStarted++
	}
}

// StreakSummary is the read-side view of a user's streak.
type StreakSummary struct {
	CurrentStreak   int         `json:"current_streak"`
	StoredStreak    int         `json:"stored_streak"`
	LongestStreak   int         `json:"longest_streak"`
	TotalStreakDays int         `json:"total_streak_days"`
	Calendar        []StreakDay `json:"calendar"`
}

// Dashboard is the landing summary for a user.
type Dashboard struct {
	Streak StreakSummary  `json:"streak"`
	Counts StatusCounts   `json:"counts"`
	Recent []LibraryEntry `json:"recent"`
}

// Profile extends the dashboard with lifetime totals.
type Profile struct {
	Streak              StreakSummary `json:"streak"`
	Counts              StatusCounts  `json:"counts"`
	TotalPages          int           `json:"total_pages"`
	TotalReadingMinutes int           `json:"total_reading_minutes"`
	TotalNotes          int           `json:"total_notes"`
	FavoriteBooks       int           `json:"favorite_books"`
	RatedBooks          int           `json:"rated_books"`
	AverageRating       float64       `json:"average_rating"`
}

// AuthorShelf groups a user's books by author.
type AuthorShelf struct {
	Author         *Author        `json:"author"`
	TotalBooks     int            `json:"total_books"`
	CompletedBooks int            `json:"completed_books"`
	ReadingBooks   int            `json:"reading_books"`
	Books          []LibraryEntry `json:"books"`
}
