package clix

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
)

// ErrNoDescription is returned when a command needing threat text got none.
var ErrNoDescription = errors.New("no description provided")

type PaginationParams struct {
	Limit  int
	Offset int
}

func ParsePagination(flags *pflag.FlagSet) (PaginationParams, error) {
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}, nil
}

// ParseDescription joins positional args into one threat description, so
// unquoted text on the command line works too.
func ParseDescription(args []string) (string, error) {
	var parts []string
	for _, a := range args {
		trimmed := strings.TrimSpace(a)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "", ErrNoDescription
	}
	return strings.Join(parts, " "), nil
}
