// Package domain contains the reading-tracker entities and the pure state
// transitions applied to them.
package domain

import "strings"

// Author is a catalog author. NameKey is the normalized name used to find an
// existing author when a book is added by author name.
type Author struct {
	Record
	Name    string `json:"name"`
	NameKey string `json:"name_key"`
	Bio     string `json:"bio,omitempty"`
}

// Book is a shared catalog entry. Personal reading state lives in BookProgress.
type Book struct {
	Record
	Title       string `json:"title"`
	AuthorID    string `json:"author_id"`
	ISBN        string `json:"isbn,omitempty"`
	Description string `json:"description,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	TotalPages  int    `json:"total_pages"`
}

// NormalizeISBN strips separators so "978-0-13-468599-1" matches "9780134685991".
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	return b.String()
}

// LibraryEntry joins a relation with its catalog book and author.
type LibraryEntry struct {
	Progress *BookProgress `json:"progress"`
	Book     *Book         `json:"book"`
	Author   *Author       `json:"author"`
}
