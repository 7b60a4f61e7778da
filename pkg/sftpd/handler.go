package sftpd

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/sftp"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
)

// handler serves the SFTP verbs for one session. It is stateless across
// requests aside from the handle table the framing layer keeps; per-handle
// state lives in the metered wrappers it returns.
//
// readOnly is set when the session was demoted because its connection record
// could not be persisted: all mutating verbs then fail with
// SSH_FX_PERMISSION_DENIED and nothing is metered.
type handler struct {
	jail     Jail
	log      *transferLog
	username string
	readOnly bool
}

func newHandler(jail Jail, log *transferLog, username string, readOnly bool) sftp.Handlers {
	h := &handler{jail: jail, log: log, username: username, readOnly: readOnly}
	return sftp.Handlers{
		FileGet:  h,
		FilePut:  h,
		FileCmd:  h,
		FileList: h,
	}
}

// translate maps an internal error to the SFTP status the verb reports.
// onIO is the status for OS-level permission and IO failures, which differs
// between open (PERMISSION_DENIED) and the other verbs (FAILURE).
func translate(err, onIO error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrPathEscape):
		return sftp.ErrSSHFxPermissionDenied
	case errors.Is(err, os.ErrNotExist):
		return sftp.ErrSSHFxNoSuchFile
	default:
		return onIO
	}
}

func (h *handler) Fileread(r *sftp.Request) (io.ReaderAt, error) {
	host, err := h.jail.Resolve(r.Filepath)
	if err != nil {
		logger.Debug("read rejected", "user", h.username, "path", r.Filepath, "error", err)
		return nil, translate(err, sftp.ErrSSHFxPermissionDenied)
	}
	f, err := os.Open(host)
	if err != nil {
		return nil, translate(err, sftp.ErrSSHFxPermissionDenied)
	}
	return &meteredReader{f: f, path: Canonicalize(r.Filepath), log: h.log}, nil
}

func (h *handler) Filewrite(r *sftp.Request) (io.WriterAt, error) {
	if h.readOnly {
		return nil, sftp.ErrSSHFxPermissionDenied
	}
	f, canon, err := h.openFile(r)
	if err != nil {
		return nil, err
	}
	return &meteredWriter{f: f, path: canon, log: h.log}, nil
}

// OpenFile serves opens that request both read and write access. Both sides
// are metered independently.
func (h *handler) OpenFile(r *sftp.Request) (sftp.WriterAtReaderAt, error) {
	if h.readOnly {
		return nil, sftp.ErrSSHFxPermissionDenied
	}
	f, canon, err := h.openFile(r)
	if err != nil {
		return nil, err
	}
	return &meteredFile{f: f, path: canon, log: h.log}, nil
}

// openFile resolves the path, maps the SFTP open flags to an OS access mode
// and opens the file. Write-create opens create missing parent directories
// first. The append case relies on the client-supplied offsets rather than
// O_APPEND, which the OS rejects for positional writes.
func (h *handler) openFile(r *sftp.Request) (*os.File, string, error) {
	host, err := h.jail.Resolve(r.Filepath)
	if err != nil {
		logger.Debug("open rejected", "user", h.username, "path", r.Filepath, "error", err)
		return nil, "", translate(err, sftp.ErrSSHFxPermissionDenied)
	}

	flags := r.Pflags()
	var osFlags int
	switch {
	case flags.Read && flags.Write:
		osFlags = os.O_RDWR
		if flags.Trunc {
			osFlags |= os.O_TRUNC
		}
	case flags.Write:
		osFlags = os.O_WRONLY
		if !flags.Append {
			osFlags |= os.O_TRUNC
		}
	default:
		osFlags = os.O_RDONLY
	}
	if flags.Creat {
		osFlags |= os.O_CREATE
		if err := os.MkdirAll(filepath.Dir(host), 0755); err != nil {
			return nil, "", translate(err, sftp.ErrSSHFxPermissionDenied)
		}
	}
	if flags.Excl {
		osFlags |= os.O_EXCL
	}

	// Attributes supplied on open are advisory and ignored; a Setstat after
	// close adjusts the mode when the client cares.
	f, err := os.OpenFile(host, osFlags, 0644)
	if err != nil {
		return nil, "", translate(err, sftp.ErrSSHFxPermissionDenied)
	}
	return f, Canonicalize(r.Filepath), nil
}

func (h *handler) Filecmd(r *sftp.Request) error {
	if h.readOnly {
		return sftp.ErrSSHFxPermissionDenied
	}
	host, err := h.jail.Resolve(r.Filepath)
	if err != nil {
		logger.Debug("cmd rejected", "user", h.username, "method", r.Method, "path", r.Filepath, "error", err)
		return translate(err, sftp.ErrSSHFxFailure)
	}

	switch r.Method {
	case "Setstat":
		return h.setstat(r, host)

	case "Rename":
		target, err := h.jail.Resolve(r.Target)
		if err != nil {
			return translate(err, sftp.ErrSSHFxFailure)
		}
		return translate(os.Rename(host, target), sftp.ErrSSHFxFailure)

	case "Remove":
		info, err := os.Stat(host)
		if err != nil {
			return translate(err, sftp.ErrSSHFxFailure)
		}
		if info.IsDir() {
			return sftp.ErrSSHFxFailure
		}
		return translate(os.Remove(host), sftp.ErrSSHFxFailure)

	case "Mkdir":
		return translate(os.Mkdir(host, 0755), sftp.ErrSSHFxFailure)

	case "Rmdir":
		info, err := os.Stat(host)
		if err != nil {
			return translate(err, sftp.ErrSSHFxFailure)
		}
		if !info.IsDir() {
			return sftp.ErrSSHFxFailure
		}
		// os.Remove fails on a non-empty directory, which maps to FAILURE.
		return translate(os.Remove(host), sftp.ErrSSHFxFailure)

	default:
		// Symlink and hardlink creation are not offered.
		return sftp.ErrSSHFxOpUnsupported
	}
}

// setstat applies mode, times and size. Ownership changes are silently
// ignored.
func (h *handler) setstat(r *sftp.Request, host string) error {
	flags := r.AttrFlags()
	attrs := r.Attributes()
	if attrs == nil {
		return nil
	}

	if flags.Permissions {
		if err := os.Chmod(host, attrs.FileMode().Perm()); err != nil {
			return translate(err, sftp.ErrSSHFxFailure)
		}
	}
	if flags.Acmodtime {
		atime := time.Unix(int64(attrs.Atime), 0)
		mtime := time.Unix(int64(attrs.Mtime), 0)
		if err := os.Chtimes(host, atime, mtime); err != nil {
			return translate(err, sftp.ErrSSHFxFailure)
		}
	}
	if flags.Size {
		if err := os.Truncate(host, int64(attrs.Size)); err != nil {
			return translate(err, sftp.ErrSSHFxFailure)
		}
	}
	return nil
}

func (h *handler) Filelist(r *sftp.Request) (sftp.ListerAt, error) {
	host, err := h.jail.Resolve(r.Filepath)
	if err != nil {
		logger.Debug("list rejected", "user", h.username, "method", r.Method, "path", r.Filepath, "error", err)
		return nil, translate(err, sftp.ErrSSHFxFailure)
	}

	switch r.Method {
	case "List":
		info, err := os.Stat(host)
		if err != nil {
			return nil, translate(err, sftp.ErrSSHFxFailure)
		}
		if !info.IsDir() {
			return nil, sftp.ErrSSHFxNoSuchFile
		}
		entries, err := os.ReadDir(host)
		if err != nil {
			return nil, translate(err, sftp.ErrSSHFxFailure)
		}
		infos := make([]os.FileInfo, 0, len(entries))
		for _, entry := range entries {
			fi, err := entry.Info()
			if err != nil {
				// Entry vanished between readdir and stat.
				continue
			}
			infos = append(infos, fi)
		}
		sort.Slice(infos, func(i, j int) bool {
			return strings.ToLower(infos[i].Name()) < strings.ToLower(infos[j].Name())
		})
		return listerAt(infos), nil

	case "Stat":
		info, err := os.Stat(host)
		if err != nil {
			return nil, translate(err, sftp.ErrSSHFxFailure)
		}
		return listerAt{info}, nil

	default:
		return nil, sftp.ErrSSHFxOpUnsupported
	}
}

// Lstat stats without following a trailing symlink.
func (h *handler) Lstat(r *sftp.Request) (sftp.ListerAt, error) {
	canon, underflow := canonicalize(r.Filepath)
	if underflow {
		return nil, sftp.ErrSSHFxPermissionDenied
	}
	var host string
	if canon == "/" {
		host = h.jail.Home()
	} else {
		// Resolve the parent only; the final component keeps its link-ness.
		parent, err := h.jail.Resolve(path.Dir(canon))
		if err != nil {
			return nil, translate(err, sftp.ErrSSHFxFailure)
		}
		host = filepath.Join(parent, path.Base(canon))
		if !isDescendant(h.jail.Home(), host) {
			return nil, sftp.ErrSSHFxPermissionDenied
		}
	}
	info, err := os.Lstat(host)
	if err != nil {
		return nil, translate(err, sftp.ErrSSHFxFailure)
	}
	return listerAt{info}, nil
}

// RealPath canonicalizes without touching the disk.
func (h *handler) RealPath(p string) (string, error) {
	return Canonicalize(p), nil
}

// listerAt serves pre-collected FileInfo entries to the framing layer.
type listerAt []os.FileInfo

func (l listerAt) ListAt(f []os.FileInfo, offset int64) (int, error) {
	if offset >= int64(len(l)) {
		return 0, io.EOF
	}
	n := copy(f, l[offset:])
	if n < len(f) {
		return n, io.EOF
	}
	return n, nil
}
