package sftpd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a virtual path resolves outside the
// session's home subtree. Handlers map it to SSH_FX_PERMISSION_DENIED.
var ErrPathEscape = errors.New("path escapes jail")

// Canonicalize normalizes a client-supplied virtual path to /-rooted POSIX
// form: backslashes become slashes, a leading drive prefix is stripped, "."
// segments are dropped and ".." pops the previous segment without ever
// rising above "/". Empty input and "." canonicalize to "/". The result is
// what REALPATH returns to the client.
func Canonicalize(virtual string) string {
	canon, _ := canonicalize(virtual)
	return canon
}

// canonicalize also reports whether a ".." tried to rise above "/". The
// canonical form clamps such segments, but Resolve treats the attempt as an
// escape rather than silently re-rooting it inside the jail.
func canonicalize(virtual string) (string, bool) {
	p := strings.ReplaceAll(virtual, "\\", "/")
	if len(p) >= 2 && p[1] == ':' && isDriveLetter(p[0]) {
		p = p[2:]
	}
	underflow := false
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			} else {
				underflow = true
			}
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/"), underflow
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Jail confines a session to its home subtree. The home path it holds is
// already symlink-resolved, so descendant checks compare like with like.
type Jail struct {
	home string
}

// NewJail wraps an absolute, symlink-resolved home path.
func NewJail(home string) Jail {
	return Jail{home: home}
}

// Home returns the absolute host path of the jail root.
func (j Jail) Home() string {
	return j.home
}

// Resolve maps a virtual path to an absolute host path inside the jail.
// The canonical form is joined to the home path and fully symlink-resolved
// before the descendant check, so a symlink pointing outside the jail fails
// with ErrPathEscape just like a ".." escape would.
func (j Jail) Resolve(virtual string) (string, error) {
	canon, underflow := canonicalize(virtual)
	if underflow {
		return "", ErrPathEscape
	}
	host := filepath.Join(j.home, filepath.FromSlash(strings.TrimPrefix(canon, "/")))

	resolved, err := resolveSymlinks(host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", canon, err)
	}
	if !isDescendant(j.home, resolved) {
		return "", ErrPathEscape
	}
	return resolved, nil
}

// ResolveHome resolves a sanitized relative home dir against the shared
// root, creating it if absent, and verifies it stays inside the root.
func ResolveHome(root, home string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to absolutize shared root: %w", err)
	}
	resolvedRoot, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve shared root: %w", err)
	}

	host := filepath.Join(resolvedRoot, filepath.FromSlash(home))
	if err := os.MkdirAll(host, 0755); err != nil {
		return "", fmt.Errorf("failed to create home directory: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	if !isDescendant(resolvedRoot, resolved) {
		return "", ErrPathEscape
	}
	return resolved, nil
}

// resolveSymlinks is EvalSymlinks extended to paths whose tail components do
// not exist yet, as happens when a client opens a new file for writing. The
// longest existing ancestor is resolved and the missing suffix re-joined.
func resolveSymlinks(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	clean := filepath.Clean(path)
	parent := filepath.Dir(clean)
	if parent == clean {
		return "", err
	}
	resolvedParent, perr := resolveSymlinks(parent)
	if perr != nil {
		return "", perr
	}
	return filepath.Join(resolvedParent, filepath.Base(clean)), nil
}

func isDescendant(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
