package hdf5

import (
	"fmt"
	"strings"
)

// ParseAttrPath splits "/Point@go_type" into the object path "/Point" and
// the attribute name "go_type". A missing leading slash is added.
func ParseAttrPath(path string) (objectPath, attrName string, err error) {
	obj, name, ok := cutLast(path, "@")
	switch {
	case path == "":
		return "", "", fmt.Errorf("%w: empty attribute path", ErrInvalidName)
	case !ok:
		return "", "", fmt.Errorf("%w: no '@' in attribute path %q", ErrInvalidName, path)
	case name == "":
		return "", "", fmt.Errorf("%w: empty attribute name in %q", ErrInvalidName, path)
	}
	return CleanPath(obj), name, nil
}

// JoinAttrPath is the inverse of ParseAttrPath.
func JoinAttrPath(objectPath, attrName string) string {
	return CleanPath(objectPath) + "@" + attrName
}

// CleanPath returns path with exactly one leading slash and no trailing one.
func CleanPath(path string) string {
	path = strings.Trim(path, "/")
	return "/" + path
}

// splitPath returns the non-empty components of path.
func splitPath(path string) []string {
	return strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
