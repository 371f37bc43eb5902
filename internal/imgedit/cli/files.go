package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/imgedit/internal/imgedit/config"
	"github.com/abdul-hamid-achik/imgedit/internal/source"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

// collectFiles expands globs and directories into image file paths.
// Directories are walked only when recursive is set; otherwise their direct
// children are used.
func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		if source.KindOf(arg) != source.KindFile || strings.HasPrefix(arg, "file://") {
			files = append(files, arg)
			continue
		}

		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", arg, err)
		}

		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}
			matches = []string{arg}
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}

			if !info.IsDir() {
				if isImageFile(match) {
					files = append(files, match)
				}
				continue
			}

			err = filepath.WalkDir(match, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}
				if d.IsDir() {
					if path != match && !recursive {
						return filepath.SkipDir
					}
					return nil
				}
				if isImageFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		}
	}

	return files, nil
}

func isImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp", ".tiff", ".tif":
		return true
	}
	return false
}

// outputPath names the file an edit of ref is written to. File sources keep
// their base name plus suffix; other sources use fallback.
func outputPath(ref, fallback, format, outDir, suffix string) string {
	ext := transform.Extension(format)

	if source.KindOf(ref) != source.KindFile {
		if outDir == "" {
			outDir = "."
		}
		return filepath.Join(outDir, fallback)
	}

	path := strings.TrimPrefix(ref, "file://")
	dir, base := filepath.Split(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if outDir != "" {
		dir = outDir
	}

	dest := filepath.Join(dir, name+suffix+ext)
	if filepath.Clean(dest) == filepath.Clean(path) {
		dest = filepath.Join(dir, name+config.DefaultSuffix+ext)
	}
	return dest
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
