package ui

import (
	"fmt"
	"strings"
)

// Banner decides whether the latest error message is shown. Dismissing
// hides that exact message; a different message makes the banner visible
// again. The underlying error is never cleared.
type Banner struct {
	current   string
	dismissed string
}

// Observe records the latest error message; "" means no error.
func (b *Banner) Observe(msg string) {
	if msg != "" && msg != b.dismissed {
		b.dismissed = ""
	}
	b.current = msg
}

// Dismiss hides the message currently observed.
func (b *Banner) Dismiss() { b.dismissed = b.current }

// Text is the message to display, "" when there is nothing to show.
func (b Banner) Text() string {
	if b.current == b.dismissed {
		return ""
	}
	return b.current
}

// IsConnectionMessage reports whether msg looks like the backend could not
// be reached.
func IsConnectionMessage(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "cannot connect") ||
		strings.Contains(m, "network error") ||
		strings.Contains(m, "cors error") ||
		strings.Contains(m, "backend may not be running")
}

// ConnectionHint explains how to get the backend at baseURL reachable.
func ConnectionHint(baseURL string) []string {
	lines := []string{"Backend Connection Issue"}
	if strings.Contains(baseURL, "localhost") || strings.Contains(baseURL, "127.0.0.1") {
		return append(lines,
			"Make sure the backend server is running on "+baseURL,
			"Run: cd backend/src && uvicorn app.main:app --reload --port 8173",
		)
	}
	return append(lines, "Backend URL: "+baseURL)
}

// ErrorBlock prints msg, plus the connection hint when it applies.
func ErrorBlock(msg, baseURL string) {
	if msg == "" {
		return
	}
	Fail(msg)
	if IsConnectionMessage(msg) {
		for _, ln := range ConnectionHint(baseURL) {
			fmt.Fprintln(stderr, C(Current().Pending, "  "+ln))
		}
	}
}
