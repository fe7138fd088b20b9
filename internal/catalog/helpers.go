package catalog

import (
	"math"
	"strings"
	"time"
)

// Overdue reports whether a loan's due date has passed without the book
// being returned.
func Overdue(loan Loan, now time.Time) bool {
	if loan.Returned || loan.DueDate.IsZero() {
		return false
	}
	return loan.DueDate.Before(now)
}

// DaysUntilDue returns the number of whole days until the loan is due,
// rounded up. Negative values mean the loan is already overdue.
func DaysUntilDue(loan Loan, now time.Time) int {
	diff := loan.DueDate.Sub(now)
	return int(math.Ceil(diff.Hours() / 24))
}

// MatchesWishlist reports whether a book satisfies a wishlist entry by
// case-insensitive title and author comparison.
func MatchesWishlist(item WishlistItem, book Book) bool {
	return strings.EqualFold(strings.TrimSpace(item.Title), strings.TrimSpace(book.Title)) &&
		strings.EqualFold(strings.TrimSpace(item.Author), strings.TrimSpace(book.Author))
}

// AvailableMatches filters books down to those that are available and match
// the wishlist entry.
func AvailableMatches(item WishlistItem, books []Book) []Book {
	var out []Book
	for _, b := range books {
		if b.Availability != AvailabilityAvailable {
			continue
		}
		if MatchesWishlist(item, b) {
			out = append(out, b)
		}
	}
	return out
}
