package catalog

import (
	"bytes"
	"strconv"
	"strings"
	"time"
)

// ID is an account or record identifier. The backend serializes ids as JSON
// numbers while persisted client state carries them as strings, so ID accepts
// both forms and compares them through a canonical representation.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	s := strings.Trim(string(b), `"`)
	*id = ID(strings.TrimSpace(s))
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(string(id))), nil
}

func (id ID) String() string {
	return string(id)
}

// SameID reports whether two ids refer to the same record. Integral numeric
// forms ("5", "5.0") are reduced to a canonical value before comparison; an
// empty id never matches anything.
func SameID(a, b ID) bool {
	ca, ok := canonicalID(a)
	if !ok {
		return false
	}
	cb, ok := canonicalID(b)
	if !ok {
		return false
	}
	return ca == cb
}

func canonicalID(id ID) (string, bool) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return s, true
}

const (
	AvailabilityAvailable = "available"
	AvailabilityBorrowed  = "borrowed"
)

type Book struct {
	ID           ID     `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	ISBN         string `json:"isbn,omitempty"`
	Genre        string `json:"genre,omitempty"`
	Description  string `json:"description,omitempty"`
	Condition    string `json:"condition,omitempty"`
	CoverImage   string `json:"cover_image,omitempty"`
	Owner        ID     `json:"owner"`
	OwnerName    string `json:"owner_name,omitempty"`
	Availability string `json:"availability"`
	CreatedAt    string `json:"created_at,omitempty"`
}

type BookRequest struct {
	ID            ID     `json:"id"`
	Book          Book   `json:"book"`
	Requester     ID     `json:"requester"`
	RequesterName string `json:"requester_name,omitempty"`
	RequestType   string `json:"request_type,omitempty"`
	Status        string `json:"status"`
	Message       string `json:"message,omitempty"`
	CreatedAt     string `json:"created_at,omitempty"`
}

type Loan struct {
	ID         ID        `json:"id"`
	Book       Book      `json:"book"`
	Borrower   ID        `json:"borrower"`
	Lender     ID        `json:"lender"`
	DueDate    time.Time `json:"due_date"`
	Returned   bool      `json:"returned"`
	ReturnedAt string    `json:"returned_at,omitempty"`
	CreatedAt  string    `json:"created_at,omitempty"`
}

type WishlistItem struct {
	ID             ID     `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author"`
	Notes          string `json:"notes,omitempty"`
	AvailableBooks []Book `json:"available_books,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type Profile struct {
	ID              ID     `json:"id"`
	User            ID     `json:"user,omitempty"`
	Bio             string `json:"bio,omitempty"`
	Location        string `json:"location,omitempty"`
	Phone           string `json:"phone,omitempty"`
	Website         string `json:"website,omitempty"`
	PreferredGenres string `json:"preferred_genres,omitempty"`
	ProfilePicture  string `json:"profile_picture,omitempty"`
}

type Statistics struct {
	TotalBooks   int `json:"total_books"`
	TotalUsers   int `json:"total_users"`
	ActiveLoans  int `json:"active_loans"`
	BooksShared  int `json:"books_shared"`
	TotalMembers int `json:"total_members"`
}
