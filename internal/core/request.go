// AngelaMos | 2026
// request.go

package core

import (
	"fmt"
	"net/http"
	"strconv"
)

// ParseID parses a positive int64 path or query value.
func ParseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ValidationError(fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

func QueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
