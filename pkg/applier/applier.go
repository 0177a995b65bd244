// Package applier defines the interface the loop hands an approved Patch
// to, and a filesystem-backed default implementation (spec §6: "invoked
// only after a positive Gate Decision").
package applier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/loopgate/loopgate/pkg/pipeline"
)

// Applier applies an approved Patch to the target workspace.
type Applier interface {
	Apply(ctx context.Context, patch pipeline.Patch, workspaceRoot string) error
}

// FileApplier writes each FileChange directly to disk under workspaceRoot.
// It is the default implementation; the core never requires it — any
// Applier satisfying the interface can be substituted.
type FileApplier struct{}

// NewFileApplier constructs a FileApplier.
func NewFileApplier() *FileApplier { return &FileApplier{} }

func (a *FileApplier) Apply(ctx context.Context, patch pipeline.Patch, workspaceRoot string) error {
	for _, f := range patch.Files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fullPath, err := resolveWithinWorkspace(workspaceRoot, f.Path)
		if err != nil {
			return err
		}

		switch f.ChangeType {
		case pipeline.ChangeDelete:
			if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove %s: %w", f.Path, err)
			}
		case pipeline.ChangeCreate, pipeline.ChangeModify:
			if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
				return fmt.Errorf("mkdir for %s: %w", f.Path, err)
			}
			if err := os.WriteFile(fullPath, []byte(f.Content), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", f.Path, err)
			}
		}
	}
	return nil
}

// resolveWithinWorkspace joins root and relPath and rejects the result if
// it would resolve outside root — e.g. a FileChange.Path of "../../etc/passwd"
// — so an Applier can never be tricked into writing outside the workspace
// it was handed.
func resolveWithinWorkspace(root, relPath string) (string, error) {
	fullPath := filepath.Join(root, relPath)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace root: %w", err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", relPath, err)
	}

	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file change path %q escapes workspace root", relPath)
	}

	return fullPath, nil
}
