package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

const (
	featuresSuffix  = "_features.json"
	legacyAllDevice = "all_devices.json"
	runsFile        = "runs.jsonl"
)

// FileStore keeps each vendor's collection as pretty-printed JSON under
// <root>/<vendor>/<vendor>_features.json, with cleaned document text alongside.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

// Root returns the data directory.
func (s *FileStore) Root() string {
	return s.root
}

// Load reads a vendor's collection. <vendor>_features.json wins, then all_devices.json,
// then the first *_features.json in name order.
func (s *FileStore) Load(_ context.Context, vendor string) (*features.Collection, error) {
	path, err := s.findCollectionFile(vendor)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	coll := features.NewCollection(vendor)
	if err := json.Unmarshal(data, coll); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return coll, nil
}

// Save writes the collection atomically, replacing any previous file.
func (s *FileStore) Save(_ context.Context, coll *features.Collection) error {
	dir, err := s.vendorDir(coll.Vendor)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vendor dir: %w", err)
	}

	raw, err := json.Marshal(coll)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "    "); err != nil {
		return fmt.Errorf("indent collection: %w", err)
	}
	pretty.WriteByte('\n')

	return writeFileAtomic(filepath.Join(dir, coll.Vendor+featuresSuffix), pretty.Bytes())
}

// ListVendors returns the vendor directories that hold a collection file, sorted.
func (s *FileStore) ListVendors(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data root: %w", err)
	}

	vendors := []string{}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := s.findCollectionFile(e.Name()); err == nil {
			vendors = append(vendors, e.Name())
		}
	}
	sort.Strings(vendors)
	return vendors, nil
}

// SaveText writes cleaned document text to <root>/<vendor>/<device>.txt.
func (s *FileStore) SaveText(_ context.Context, vendor, device, text string) error {
	dir, err := s.vendorDir(vendor)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vendor dir: %w", err)
	}
	name := strings.ReplaceAll(device, string(filepath.Separator), "_") + ".txt"
	return writeFileAtomic(filepath.Join(dir, name), []byte(text))
}

// RecordRun appends the run summary to <root>/<vendor>/runs.jsonl.
func (s *FileStore) RecordRun(_ context.Context, run *ExtractionRun) error {
	dir, err := s.vendorDir(run.Vendor)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vendor dir: %w", err)
	}
	line, err := json.Marshal(run)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, runsFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open runs file: %w", err)
	}
	defer f.Close()
	_, err = f.Write(append(line, '\n'))
	return err
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) vendorDir(vendor string) (string, error) {
	if vendor == "" || vendor == "." || vendor == ".." || strings.ContainsAny(vendor, `/\`) {
		return "", fmt.Errorf("%w: vendor name %q", ErrInvalidInput, vendor)
	}
	return filepath.Join(s.root, vendor), nil
}

func (s *FileStore) findCollectionFile(vendor string) (string, error) {
	dir, err := s.vendorDir(vendor)
	if err != nil {
		return "", err
	}
	for _, name := range []string{vendor + featuresSuffix, legacyAllDevice} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "*"+featuresSuffix))
	if len(matches) > 0 {
		sort.Strings(matches)
		return matches[0], nil
	}
	return "", fmt.Errorf("%w: collection for vendor %s", ErrNotFound, vendor)
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
