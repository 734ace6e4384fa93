package datasets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// listFiles returns the regular files of dir, sorted by name, whose name ends
// in one of extensions. An empty extension list accepts every file.
func listFiles(dir string, extensions []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if len(extensions) > 0 {
			if _, ok := matchExtension(e.Name(), extensions); !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	return paths, nil
}

// listDirs returns the names of the immediate subdirectories of dir, sorted.
func listDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// ExperimentDirs returns the experiment folder names under root in the order
// the loader visits them.
func ExperimentDirs(root string) ([]string, error) {
	return listDirs(root)
}

var errNoCSV = errors.New("no CSV files found")

// FindCSV returns the first CSV file in dir by name.
func FindCSV(dir string) (string, error) {
	paths, err := listFiles(dir, []string{".csv"})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w in %s", errNoCSV, dir)
		}
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("%w in %s", errNoCSV, dir)
	}
	return paths[0], nil
}

func joinNames(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
