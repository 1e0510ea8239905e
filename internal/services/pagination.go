package services

import "strings"

const (
	DefaultProjectPageSize = 12
	DefaultUserPageSize    = 20
	MaxPageSize            = 100
)

// pageBounds clamps page/limit and returns the row offset.
func pageBounds(page, limit, defaultLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern builds a LIKE operand matching term literally anywhere.
// Callers must append likeEscape to the condition.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

// likeEscape uses '!' since a backslash is itself an escape in MySQL literals.
const likeEscape = " ESCAPE '!'"
