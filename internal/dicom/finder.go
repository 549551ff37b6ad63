package dicom

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ExcludedNames are operating-system metadata files that are never handed to
// the decoder.
var ExcludedNames = map[string]bool{
	".DS_Store":   true,
	"Thumbs.db":   true,
	"desktop.ini": true,
}

// Tree is the result of scanning an input directory. Dirs and Files hold
// paths relative to the root, sorted lexically; Dirs lists parents before
// children.
type Tree struct {
	Root  string
	Dirs  []string
	Files []string
}

// FindFiles walks root and returns every regular file, every symbolic link
// to a file, and every subdirectory below it. Non-DICOM files are included on purpose: deciding
// whether a file decodes is the reader's job. A directory equal to skip is
// pruned, so an output root nested inside the input is never rescanned.
func FindFiles(root, skip string) (*Tree, error) {
	tree := &Tree{Root: root}

	absSkip := ""
	if skip != "" {
		if abs, err := filepath.Abs(skip); err == nil {
			absSkip = abs
		}
	}

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if absSkip != "" {
				if abs, err := filepath.Abs(path); err == nil && abs == absSkip {
					return filepath.SkipDir
				}
			}
			if path == root {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			tree.Dirs = append(tree.Dirs, rel)
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			// Links to files are followed. A dangling link is kept so the
			// reader reports it; links to anything else are ignored.
			if info, err := os.Stat(path); err == nil && !info.Mode().IsRegular() {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		if ExcludedNames[d.Name()] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		tree.Files = append(tree.Files, rel)
		return nil
	}

	if err := filepath.WalkDir(root, walkFn); err != nil {
		return nil, err
	}

	sort.Strings(tree.Dirs)
	sort.Strings(tree.Files)
	return tree, nil
}

// hasDicomMagicBytes checks if a file has the DICOM magic bytes ("DICM" at offset 128)
func hasDicomMagicBytes(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	header := make([]byte, 132)
	if _, err := io.ReadFull(file, header); err != nil {
		return false
	}

	return string(header[128:132]) == "DICM"
}
