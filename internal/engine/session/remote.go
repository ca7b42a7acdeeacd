package session

import (
	"regexp"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// envNamePattern constrains names that may cross the quoting boundary into
// a remote command line. Anything else is rejected outright.
var envNamePattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

// RemoteCommand renders an environment map and an argument vector into a
// single shell-safe command string for remote execution. This is the only
// place in the codebase where values are interpolated into a shell command;
// every value crosses through singleQuote, and env names are validated
// against a strict pattern so no assignment can smuggle syntax.
func RemoteCommand(env map[string]string, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", zerr.New("remote command requires at least one argument")
	}

	var parts []string
	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if !envNamePattern.MatchString(name) {
			return "", zerr.With(zerr.New("invalid environment variable name"), "name", name)
		}
		parts = append(parts, name+"="+singleQuote(env[name]))
	}
	for _, arg := range argv {
		parts = append(parts, singleQuote(arg))
	}
	return strings.Join(parts, " "), nil
}

// singleQuote wraps s in single quotes, escaping embedded single quotes with
// the standard '\'' dance. Inside single quotes POSIX shells interpret
// nothing else, so the result is inert regardless of content.
func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
