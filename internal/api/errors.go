package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Error is a structured backend rejection. Message carries a flat error
// string; Fields carries validation errors keyed by form field, the shape
// the register and update endpoints return.
type Error struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
		}
		return strings.Join(parts, ", ")
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

func parseError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(body, &decoded); err != nil {
		return apiErr
	}

	for _, key := range []string{"error", "detail", "message"} {
		var msg string
		if raw, ok := decoded[key]; ok && json.Unmarshal(raw, &msg) == nil && msg != "" {
			apiErr.Message = msg
			delete(decoded, key)
			break
		}
	}

	for field, raw := range decoded {
		var list []string
		if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string][]string)
			}
			apiErr.Fields[field] = list
			continue
		}
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" && apiErr.Message == "" {
			if apiErr.Fields == nil {
				apiErr.Fields = make(map[string][]string)
			}
			apiErr.Fields[field] = []string{single}
		}
	}
	return apiErr
}
