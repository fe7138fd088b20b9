package credentials

import (
	"strconv"
	"strings"
	"time"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

// Record is the durable credential state for a logged-in account. It is
// always written and cleared as a single unit.
type Record struct {
	Token          string
	UserID         catalog.ID
	Username       string
	Email          string
	FirstName      string
	LastName       string
	ProfilePicture string
	ExpiresAt      time.Time
}

func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// persistedRecord is the serialized form. Field names and the string-encoded
// epoch-millisecond expiry match the browser-storage keys used by the web
// client, so a dump of either is readable next to the other.
type persistedRecord struct {
	Token          string `json:"token"`
	UserID         string `json:"user_id"`
	Username       string `json:"username"`
	Email          string `json:"user_email"`
	FirstName      string `json:"user_first_name"`
	LastName       string `json:"user_last_name"`
	ProfilePicture string `json:"user_profile_picture,omitempty"`
	SessionExpiry  string `json:"session_expiry"`
}

func toPersisted(r Record) persistedRecord {
	expiry := ""
	if !r.ExpiresAt.IsZero() {
		expiry = strconv.FormatInt(r.ExpiresAt.UnixMilli(), 10)
	}
	return persistedRecord{
		Token:          r.Token,
		UserID:         string(r.UserID),
		Username:       r.Username,
		Email:          r.Email,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		ProfilePicture: r.ProfilePicture,
		SessionExpiry:  expiry,
	}
}

func fromPersisted(p persistedRecord) Record {
	rec := Record{
		Token:          p.Token,
		UserID:         catalog.ID(p.UserID),
		Username:       p.Username,
		Email:          p.Email,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		ProfilePicture: p.ProfilePicture,
	}
	if ms, err := strconv.ParseInt(strings.TrimSpace(p.SessionExpiry), 10, 64); err == nil {
		rec.ExpiresAt = time.UnixMilli(ms)
	}
	return rec
}
