package loader

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Discover returns every .pdf/.epub/.mobi file under root, sorted for
// deterministic processing order across runs.
func Discover(root string) ([]string, error) {
	var found []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if formatOf(path) == "" {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}

func formatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".epub":
		return FormatEPUB
	case ".mobi":
		return FormatMOBI
	default:
		return ""
	}
}
