package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
)

// IntParam reads a positive integer path parameter.
func IntParam(ps httprouter.Params, name string) (int, error) {
	raw := strings.TrimSpace(ps.ByName(name))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}
