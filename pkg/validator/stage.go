package validator

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// stageCandidate copies moduleRoot into a scratch directory and
// overwrites the file at sourcePath (absolute, somewhere under
// moduleRoot) with candidateSource, so Gate 5 can run the candidate's
// own tests without ever touching the target's real source file.
// sourcePath itself is never written to; only the scratch copy is.
//
// The copy skips any entry whose name starts with "." or "_", the same
// convention the go tool itself uses to ignore a directory — this
// keeps the scratch copy small and never drags in unrelated reference
// material that happens to live alongside the module.
func stageCandidate(moduleRoot, sourcePath, candidateSource string) (packageDir string, cleanup func(), err error) {
	relSource, err := filepath.Rel(moduleRoot, sourcePath)
	if err != nil {
		return "", nil, err
	}

	scratch, err := os.MkdirTemp("", "evo-gate5-*")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() { os.RemoveAll(scratch) }

	if err := copyTree(moduleRoot, scratch); err != nil {
		cleanup()
		return "", nil, err
	}

	stagedSource := filepath.Join(scratch, relSource)
	if err := os.MkdirAll(filepath.Dir(stagedSource), 0o755); err != nil {
		cleanup()
		return "", nil, err
	}
	if err := os.WriteFile(stagedSource, []byte(candidateSource), 0o644); err != nil {
		cleanup()
		return "", nil, err
	}

	return filepath.Dir(stagedSource), cleanup, nil
}

// copyTree recursively copies src into dst, skipping dot- and
// underscore-prefixed entries.
func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path != src && (strings.HasPrefix(d.Name(), ".") || strings.HasPrefix(d.Name(), "_")) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}
