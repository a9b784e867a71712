package domain

// Note is a page-anchored note on a user's book.
type Note struct {
	Record
	UserID     string `json:"user_id"`
	UserBookID string `json:"user_book_id"`
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}
