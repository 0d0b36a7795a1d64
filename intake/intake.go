// Package intake turns a raw file selection, which may mix plain files and
// whole directory trees, into an ordered collection of image uploads staged
// for transfer. Non-image entries are discarded silently; mixed-content
// directories are expected input, not an error.
package intake

import (
	"context"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pkt.systems/pslog"
)

// Handle identifies a resolved file on disk.
type Handle struct {
	Name string
	Path string
	Size int64
}

// PendingUpload is a resolved, filtered file staged for transfer.
type PendingUpload struct {
	Handle    Handle
	MediaType string
}

// Open returns a reader over the staged file's content.
func (p PendingUpload) Open() (io.ReadCloser, error) {
	return os.Open(p.Handle.Path)
}

// Resolver resolves selections into pending uploads.
type Resolver struct {
	log pslog.Logger
}

// NewResolver constructs a resolver.
func NewResolver(logger pslog.Logger) *Resolver {
	return &Resolver{log: logger}
}

// ResolveFiles resolves a plain multi-select of files. Directory arguments
// are skipped, matching a file picker that cannot yield directories.
func (r *Resolver) ResolveFiles(ctx context.Context, paths []string) ([]PendingUpload, error) {
	return r.resolve(ctx, paths, false)
}

// ResolveDrop resolves a drop that may contain files and directories.
// Directories are enumerated recursively, depth first.
func (r *Resolver) ResolveDrop(ctx context.Context, paths []string) ([]PendingUpload, error) {
	return r.resolve(ctx, paths, true)
}

// resolve is the single routine both entry points converge on. It walks an
// explicit worklist instead of recursing, so arbitrarily deep trees cannot
// exhaust the call stack. Each directory is fully enumerated before its
// siblings advance, which keeps the output order stable across runs:
// left-to-right over the selection, depth first within it.
func (r *Resolver) resolve(ctx context.Context, paths []string, recurse bool) ([]PendingUpload, error) {
	stack := make([]string, 0, len(paths))
	for i := len(paths) - 1; i >= 0; i-- {
		stack = append(stack, paths[i])
	}

	var pending []PendingUpload
	seen := make(map[string]struct{})
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if info.IsDir() {
			if !recurse {
				if r.log != nil {
					r.log.Debug("directory skipped in file selection", "path", path)
				}
				continue
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, err
			}
			sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
			for i := len(entries) - 1; i >= 0; i-- {
				stack = append(stack, filepath.Join(path, entries[i].Name()))
			}
			continue
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}

		mediaType := detectMediaType(path)
		if !strings.HasPrefix(mediaType, "image/") {
			if r.log != nil {
				r.log.Trace("non-image entry discarded", "path", path, "media_type", mediaType)
			}
			continue
		}
		pending = append(pending, PendingUpload{
			Handle: Handle{
				Name: filepath.Base(path),
				Path: path,
				Size: info.Size(),
			},
			MediaType: mediaType,
		})
	}
	if r.log != nil {
		r.log.Debug("selection resolved", "pending", len(pending))
	}
	return pending, nil
}

// detectMediaType resolves a file's media type from its extension, falling
// back to content sniffing for extensionless or unknown files.
func detectMediaType(path string) string {
	if mediaType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); mediaType != "" {
		if i := strings.IndexByte(mediaType, ';'); i >= 0 {
			mediaType = mediaType[:i]
		}
		return mediaType
	}
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return ""
	}
	mediaType := http.DetectContentType(buf[:n])
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return mediaType
}
