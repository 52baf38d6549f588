package smell

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"smellfix/internal/safeio"
)

// Saver writes RefactoredCode over FilePath, fallback or not.
type Saver struct {
	// FS confines writes; when nil a SafeFS rooted at the file's directory is used.
	FS *safeio.SafeFS
}

func (s *Saver) Name() string { return "save" }

func (s *Saver) Run(ctx context.Context, st *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fs := s.FS
	if fs == nil {
		var err error
		fs, err = safeio.NewSafeFS(filepath.Dir(st.FilePath))
		if err != nil {
			return fmt.Errorf("save %s: %w", st.FilePath, err)
		}
	}
	if err := fs.SafeWriteFile(st.FilePath, []byte(st.RefactoredCode), 0o644); err != nil {
		return fmt.Errorf("save %s: %w", st.FilePath, err)
	}
	st.Saved = true
	log.Printf("[save] saved refactored file: %s", st.FilePath)
	return nil
}
