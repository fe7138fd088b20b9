package session

import (
	"strconv"

	"github.com/alphapie77/booklending-go/internal/catalog"
)

// Action is the closed set of resource operations the UI layer gates on.
type Action string

const (
	ActionLend               Action = "lend"
	ActionBorrow             Action = "borrow"
	ActionRequestBook        Action = "request_book"
	ActionAcceptRequest      Action = "accept_request"
	ActionDeclineRequest     Action = "decline_request"
	ActionEditBook           Action = "edit_book"
	ActionDeleteBook         Action = "delete_book"
	ActionManageRequests     Action = "manage_requests"
	ActionToggleAvailability Action = "toggle_availability"
)

// HasPermission evaluates an action against the current user and a candidate
// resource. It never fails: an unauthenticated session, a nil resource, or an
// unknown action all yield false. Owner comparison tolerates ids arriving as
// strings or numbers. Accepted resource shapes are the catalog types and
// untyped map[string]any payloads.
func (m *Manager) HasPermission(action Action, resource any) bool {
	user, ok := m.User()
	if !ok || resource == nil {
		return false
	}

	switch action {
	case ActionLend, ActionEditBook, ActionDeleteBook, ActionManageRequests, ActionToggleAvailability:
		owner, ok := ownerOf(resource)
		return ok && catalog.SameID(owner, user.ID)

	case ActionBorrow, ActionRequestBook:
		owner, ok := ownerOf(resource)
		if !ok || catalog.SameID(owner, user.ID) {
			return false
		}
		availability, ok := availabilityOf(resource)
		return ok && availability == catalog.AvailabilityAvailable

	case ActionAcceptRequest, ActionDeclineRequest:
		owner, ok := bookOwnerOf(resource)
		return ok && catalog.SameID(owner, user.ID)

	default:
		return false
	}
}

func (m *Manager) CanLend(book catalog.Book) bool {
	return m.HasPermission(ActionLend, book)
}

func (m *Manager) CanBorrow(book catalog.Book) bool {
	return m.HasPermission(ActionBorrow, book)
}

func (m *Manager) CanRequest(book catalog.Book) bool {
	return m.HasPermission(ActionRequestBook, book)
}

func ownerOf(resource any) (catalog.ID, bool) {
	switch r := resource.(type) {
	case catalog.Book:
		return r.Owner, r.Owner != ""
	case *catalog.Book:
		if r == nil {
			return "", false
		}
		return r.Owner, r.Owner != ""
	case map[string]any:
		return idOf(r["owner"])
	}
	return "", false
}

func availabilityOf(resource any) (string, bool) {
	switch r := resource.(type) {
	case catalog.Book:
		return r.Availability, r.Availability != ""
	case *catalog.Book:
		if r == nil {
			return "", false
		}
		return r.Availability, r.Availability != ""
	case map[string]any:
		s, ok := r["availability"].(string)
		return s, ok && s != ""
	}
	return "", false
}

func bookOwnerOf(resource any) (catalog.ID, bool) {
	switch r := resource.(type) {
	case catalog.BookRequest:
		return r.Book.Owner, r.Book.Owner != ""
	case *catalog.BookRequest:
		if r == nil {
			return "", false
		}
		return r.Book.Owner, r.Book.Owner != ""
	case map[string]any:
		book, ok := r["book"].(map[string]any)
		if !ok {
			return "", false
		}
		return idOf(book["owner"])
	}
	return "", false
}

func idOf(v any) (catalog.ID, bool) {
	switch id := v.(type) {
	case catalog.ID:
		return id, id != ""
	case string:
		return catalog.ID(id), id != ""
	case int:
		return catalog.ID(strconv.Itoa(id)), true
	case int64:
		return catalog.ID(strconv.FormatInt(id, 10)), true
	case float64:
		return catalog.ID(strconv.FormatFloat(id, 'f', -1, 64)), true
	}
	return "", false
}
