package datasets

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"k8s.io/klog/v2"
)

// cacheVersion is incremented when the on-disk cache format changes.
const cacheVersion = 1

// cacheFormat is the on-disk representation of a loaded dataset.
type cacheFormat struct {
	Version    int
	Root       string
	Resolution Resolution
	CreatedAt  int64
	Samples    Samples
	Report     Report
}

// SaveCache writes ds to path with encoding/gob. The write goes to a temp file
// in the same directory which is then renamed over path.
func SaveCache(path string, ds *Dataset) error {
	if path == "" {
		return fmt.Errorf("empty cache path")
	}
	if ds == nil {
		return fmt.Errorf("dataset is nil")
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	tmpFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		_ = os.Remove(tmpName)
	}()

	pc := cacheFormat{
		Version:    cacheVersion,
		Resolution: ds.Resolution,
		CreatedAt:  time.Now().Unix(),
		Samples:    ds.Samples,
	}
	if ds.Report != nil {
		pc.Root = ds.Report.Root
		pc.Report = *ds.Report
	}
	if err := gob.NewEncoder(tmpFile).Encode(&pc); err != nil {
		return fmt.Errorf("encode cache to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		klog.Warningf("sync temp cache file: %v", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp cache to target: %w", err)
	}
	return nil
}

// LoadCache reads a dataset written by SaveCache. When want is non-zero the
// cached resolution must match it.
func LoadCache(path string, want Resolution) (*Dataset, error) {
	if path == "" {
		return nil, fmt.Errorf("empty cache path")
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cache file %s: %w", path, err)
	}
	defer fh.Close()

	var pc cacheFormat
	if err := gob.NewDecoder(fh).Decode(&pc); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if pc.Version != cacheVersion {
		return nil, fmt.Errorf("cache version mismatch: cache=%d expected=%d", pc.Version, cacheVersion)
	}
	if want != (Resolution{}) && pc.Resolution != want {
		return nil, fmt.Errorf("cache resolution mismatch: cache=%s expected=%s", pc.Resolution, want)
	}
	if err := pc.Samples.Validate(pc.Resolution); err != nil {
		return nil, fmt.Errorf("cache %s: %w", path, err)
	}

	report := pc.Report
	return &Dataset{
		Samples:    pc.Samples,
		Resolution: pc.Resolution,
		Report:     &report,
	}, nil
}
