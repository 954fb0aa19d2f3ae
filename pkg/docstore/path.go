package docstore

import (
	"fmt"
	"strings"
)

const separator = "/"

// Join builds a path from its segments without validating it.
func Join(segments ...string) string {
	return strings.Join(segments, separator)
}

// ValidSegment reports whether s can be used as a single path segment.
func ValidSegment(s string) bool {
	return s != "" && !strings.Contains(s, separator)
}

// Split separates a document path into its collection and document id.
func Split(path string) (collection, id string, err error) {
	segments := strings.Split(path, separator)
	if len(segments)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q does not address a document", ErrInvalidPath, path)
	}

	for _, s := range segments {
		if s == "" {
			return "", "", fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}

	idx := strings.LastIndex(path, separator)
	return path[:idx], path[idx+1:], nil
}

func ValidateCollection(collection string) error {
	segments := strings.Split(collection, separator)
	if len(segments)%2 != 1 {
		return fmt.Errorf("%w: %q does not address a collection", ErrInvalidPath, collection)
	}

	for _, s := range segments {
		if s == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, collection)
		}
	}

	return nil
}
