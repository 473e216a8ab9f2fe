package server

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// queryString returns the trimmed query value for key.
func queryString(c *gin.Context, key string) string {
	return strings.TrimSpace(c.Query(key))
}

// queryInt parses an optional integer query value. A missing value yields 0; a malformed one
// is reported against the key as invalid_<key>.
func queryInt(c *gin.Context, key string) (int, error) {
	raw := queryString(c, key)
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, newValidationError(key, "invalid_"+key, key+" must be a number")
	}
	return value, nil
}
