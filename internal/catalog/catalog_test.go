package catalog

import (
	"encoding/json"
	"testing"
	"time"
)

func TestIDUnmarshalAcceptsNumberAndString(t *testing.T) {
	var b Book
	if err := json.Unmarshal([]byte(`{"id": 7, "owner": "12", "title": "Dune", "author": "Herbert", "availability": "available"}`), &b); err != nil {
		t.Fatalf("unmarshal book: %v", err)
	}
	if b.ID != "7" {
		t.Fatalf("expected id 7, got %q", b.ID)
	}
	if b.Owner != "12" {
		t.Fatalf("expected owner 12, got %q", b.Owner)
	}
}

func TestSameIDToleratesNumericForms(t *testing.T) {
	cases := []struct {
		a, b ID
		want bool
	}{
		{"5", "5", true},
		{"5", "5.0", true},
		{" 5 ", "5", true},
		{"5", "6", false},
		{"", "", false},
		{"", "5", false},
		{"alice", "alice", true},
		{"alice", "bob", false},
	}
	for _, c := range cases {
		if got := SameID(c.a, c.b); got != c.want {
			t.Fatalf("SameID(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	due := Loan{DueDate: now.Add(-48 * time.Hour)}
	if !Overdue(due, now) {
		t.Fatalf("expected past-due loan to be overdue")
	}

	returned := Loan{DueDate: now.Add(-48 * time.Hour), Returned: true}
	if Overdue(returned, now) {
		t.Fatalf("returned loan must not be overdue")
	}

	future := Loan{DueDate: now.Add(24 * time.Hour)}
	if Overdue(future, now) {
		t.Fatalf("future-due loan must not be overdue")
	}

	if Overdue(Loan{}, now) {
		t.Fatalf("loan without a due date must not be overdue")
	}
}

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	loan := Loan{DueDate: now.Add(72 * time.Hour)}
	if got := DaysUntilDue(loan, now); got != 3 {
		t.Fatalf("expected 3 days until due, got %d", got)
	}

	overdue := Loan{DueDate: now.Add(-49 * time.Hour)}
	if got := DaysUntilDue(overdue, now); got != -2 {
		t.Fatalf("expected -2 days for overdue loan, got %d", got)
	}
}

func TestMatchesWishlistIsCaseInsensitive(t *testing.T) {
	item := WishlistItem{Title: "The Hobbit", Author: "J.R.R. Tolkien"}

	if !MatchesWishlist(item, Book{Title: "the hobbit", Author: "j.r.r. tolkien"}) {
		t.Fatalf("expected case-insensitive match")
	}
	if MatchesWishlist(item, Book{Title: "The Hobbit", Author: "Someone Else"}) {
		t.Fatalf("author mismatch must not match")
	}
}

func TestAvailableMatchesFiltersAvailability(t *testing.T) {
	item := WishlistItem{Title: "Dune", Author: "Frank Herbert"}
	books := []Book{
		{ID: "1", Title: "Dune", Author: "Frank Herbert", Availability: AvailabilityAvailable},
		{ID: "2", Title: "Dune", Author: "Frank Herbert", Availability: AvailabilityBorrowed},
		{ID: "3", Title: "Dune Messiah", Author: "Frank Herbert", Availability: AvailabilityAvailable},
	}

	got := AvailableMatches(item, books)
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected only available exact match, got %+v", got)
	}
}
