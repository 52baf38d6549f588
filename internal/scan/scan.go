package scan

import (
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
)

// FileVisit carries per-entry metadata to user callbacks.
type FileVisit struct {
	// Path as handed to readers: root joined with the relative path.
	Path string
	// Repo-relative path using forward slashes (e.g., "src/App.java").
	Rel string
	// Lowercased extension (e.g., ".java").
	Ext string
}

// VisitFunc is an optional callback invoked for every matching file.
type VisitFunc func(f FileVisit)

// Walk visits every regular file under root whose extension equals ext
// (case-insensitive; empty ext matches everything). Entries are visited in
// lexical order. VCS and dependency directories are skipped.
func Walk(root, ext string, cb VisitFunc) error {
	ext = strings.ToLower(ext)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		// Skip VCS & dependency dirs
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fext := strings.ToLower(filepath.Ext(path))
		if ext != "" && fext != ext {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		if cb != nil {
			cb(FileVisit{Path: path, Rel: filepath.ToSlash(rel), Ext: fext})
		}
		return nil
	})
}

func skipDir(name string) bool {
	switch name {
	case ".git", ".hg", ".svn", "node_modules", "vendor", "target", "build", ".next", ".cache", ".smellfix":
		return true
	}
	return false
}

// Collect reads every file with the given extension under root into a
// Snapshot. Unreadable files are logged and skipped.
func Collect(root, ext string) (Snapshot, error) {
	// Walked paths are handed to the reader as-is, so they must be absolute
	// or a relative root would be prefixed twice.
	root, err := filepath.Abs(root)
	if err != nil {
		return Snapshot{}, err
	}
	fsys, err := newReader(root)
	if err != nil {
		return Snapshot{}, err
	}
	var files []File
	err = Walk(root, ext, func(f FileVisit) {
		b, rerr := fsys.SafeReadFile(f.Path)
		if rerr != nil {
			log.Printf("[scan] warn: skip %s: %v", f.Path, rerr)
			return
		}
		files = append(files, File{Path: f.Path, Code: string(b)})
	})
	if err != nil {
		return Snapshot{}, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	if len(files) < 2 {
		log.Printf("[scan] warn: only %d %s file(s) under %s; cross-file context unavailable", len(files), displayExt(ext), root)
	}
	return NewSnapshot(root, files), nil
}

func displayExt(ext string) string {
	if ext == "" {
		return "source"
	}
	return ext
}
