package handler

import (
	"encoding/base64"
	"net/url"
	"strconv"
)

// generatePageToken creates a pagination token from an offset value.
// Returns an empty string if there are no more pages.
func generatePageToken(offset int, hasMore bool) string {
	if !hasMore {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// parsePageToken decodes a pagination token to get the offset.
// Returns 0 if token is empty, invalid, or contains a negative value.
func parsePageToken(token string) int {
	if token == "" {
		return 0
	}

	decoded, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return 0
	}

	offset, err := strconv.Atoi(string(decoded))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// page reads page_size and page_token from the query.
// A zero size lets the service apply its configured default.
func page(q url.Values) (limit, offset int) {
	limit, _ = strconv.Atoi(q.Get("page_size"))
	return limit, parsePageToken(q.Get("page_token"))
}
