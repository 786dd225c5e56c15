package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrIndexNotFound is returned, wrapped around the server error, when a
	// command names an index that does not exist.
	ErrIndexNotFound = errors.New("driver: index not found")

	// ErrIndexExists wraps the server error raised by FT.CREATE on an
	// existing index.
	ErrIndexExists = errors.New("driver: index already exists")

	// ErrModuleNotLoaded is returned by ModuleVersion when the server does
	// not run the search module.
	ErrModuleNotLoaded = errors.New("driver: search module not loaded")
)

var notFoundReplies = []string{
	"no such index",
	"unknown index name",
	"unknown: index name",
}

// MapError translates well-known server replies into the sentinels above.
// The original error stays in the chain; anything else passes through.
func MapError(err error) error {
	if err == nil || errors.Is(err, ErrIndexNotFound) || errors.Is(err, ErrIndexExists) {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, s := range notFoundReplies {
		if strings.Contains(msg, s) {
			return fmt.Errorf("%w: %w", ErrIndexNotFound, err)
		}
	}
	if strings.Contains(msg, "index already exists") {
		return fmt.Errorf("%w: %w", ErrIndexExists, err)
	}
	return err
}

// isReplyError reports whether err came from the server rather than the
// network.
func isReplyError(err error) bool {
	var re redis.Error
	return errors.As(err, &re)
}
