package server

import (
	"strconv"
	"strings"
)

func parseDisplayPath(path string) (string, bool) {
	return parseTokenPath("/display/", path)
}

func parseDisplayWebsocketPath(path string) (string, bool) {
	return parseTokenPath("/ws/display/", path)
}

func parseTokenPath(prefix, path string) (string, bool) {
	if !strings.HasPrefix(path, prefix) {
		return "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return "", false
	}
	return rest, true
}

// parseDisplayAPIPath splits /api/displays/{token}/{action}.
func parseDisplayAPIPath(path string) (string, string, bool) {
	const prefix = "/api/displays/"
	if !strings.HasPrefix(path, prefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		return "", "", false
	}
	if len(parts) == 1 {
		return parts[0], "", true
	}
	if len(parts) == 2 {
		return parts[0], parts[1], true
	}
	return "", "", false
}

// parseRotationIndex reads the rotationIndex query value. ok is false when it
// is absent or not a non-negative integer.
func parseRotationIndex(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	index, err := strconv.Atoi(raw)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
