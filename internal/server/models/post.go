package models

import "time"

// Post is a content item. UserID is the owner and never changes after create.
type Post struct {
	ID        string
	UserID    string
	Title     string
	Body      string
	ImagePath string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PostPatch lists the fields an update may change. Nil leaves the stored
// value untouched.
type PostPatch struct {
	Title     *string
	Body      *string
	ImagePath *string
}

// Page is one page of the public index.
type Page struct {
	Posts    []*Post
	Current  int
	NextPage int // zero when there is no further page
}

// HasNext reports whether another page exists.
func (p *Page) HasNext() bool {
	return p.NextPage > 0
}
