// Package security guards the file names the tools derive from user input:
// dictionary names, capture prefixes and report directories.
package security

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a joined path resolves outside its root.
var ErrPathEscape = errors.New("path escapes output directory")

// ValidatePathWithinDirectory checks that filePath, once cleaned and made
// absolute, stays inside root. Symlinks on existing parents are resolved.
func ValidatePathWithinDirectory(filePath, root string) error {
	absPath, err := filepath.Abs(filepath.Clean(filePath))
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	absPath = resolveExistingParent(absPath)

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPathEscape, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%w: %s is outside %s", ErrPathEscape, filePath, root)
	}
	return nil
}

// resolveExistingParent resolves symlinks on the longest existing prefix of p.
func resolveExistingParent(p string) string {
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		return resolved
	}
	check := p
	for {
		parent := filepath.Dir(check)
		if parent == check {
			return p
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			rest, _ := filepath.Rel(parent, p)
			return filepath.Join(resolved, rest)
		}
		check = parent
	}
}

// OutputPath joins root with a sanitised form of name and verifies the
// result stays within root.
func OutputPath(root, name string) (string, error) {
	p := filepath.Join(root, SanitizeFilename(name))
	if err := ValidatePathWithinDirectory(p, root); err != nil {
		return "", err
	}
	return p, nil
}

// SanitizeFilename replaces anything other than ASCII letters, digits, dot,
// underscore or dash with a single underscore and trims the result.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'),
			r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
