package scan

// File is one discovered source file.
type File struct {
	Path string
	Code string
}

// Snapshot is the ordered set of source files found under Root when a run
// starts. It is never refreshed mid-run.
type Snapshot struct {
	Root  string
	Files []File
	index map[string]int
}

// NewSnapshot builds a Snapshot from files, keeping their order. A later
// duplicate path replaces the earlier content in place.
func NewSnapshot(root string, files []File) Snapshot {
	s := Snapshot{Root: root, index: make(map[string]int, len(files))}
	for _, f := range files {
		if i, ok := s.index[f.Path]; ok {
			s.Files[i].Code = f.Code
			continue
		}
		s.index[f.Path] = len(s.Files)
		s.Files = append(s.Files, f)
	}
	return s
}

// Len reports the number of files.
func (s Snapshot) Len() int { return len(s.Files) }

// Paths returns the file paths in snapshot order.
func (s Snapshot) Paths() []string {
	out := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		out = append(out, f.Path)
	}
	return out
}

// Get returns the source stored for path.
func (s Snapshot) Get(path string) (string, bool) {
	if s.index == nil {
		for _, f := range s.Files {
			if f.Path == path {
				return f.Code, true
			}
		}
		return "", false
	}
	i, ok := s.index[path]
	if !ok {
		return "", false
	}
	return s.Files[i].Code, true
}

// ContextFor picks the cross-file context for target: the lexicographically
// smallest path other than target. ok is false when no other file exists.
func (s Snapshot) ContextFor(target string) (File, bool) {
	var best File
	found := false
	for _, f := range s.Files {
		if f.Path == target {
			continue
		}
		if !found || f.Path < best.Path {
			best = f
			found = true
		}
	}
	return best, found
}
