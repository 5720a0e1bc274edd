package tracking

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sjsage522/pricewatch/helpers"
	"sjsage522/pricewatch/pkg/errors"
)

// FileStore keeps the tracked product URLs in a text file, one per line
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path
func (s *FileStore) Path() string {
	return s.path
}

// List returns the tracked URLs in file order with blanks and duplicates removed.
// A missing file is an error because a run has nothing to do without it.
func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls, err := s.read()
	if err != nil {
		return nil, errors.NewSource(fmt.Sprintf("failed to read %s", s.path), err)
	}
	return urls, nil
}

// Add validates and appends url. It reports false when url is already tracked.
func (s *FileStore) Add(url string) (bool, error) {
	url = strings.TrimSpace(url)
	if !helpers.IsHTTPURL(url) {
		return false, errors.NewValidation(url, "not an http(s) URL")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	urls, err := s.read()
	if err != nil && !os.IsNotExist(err) {
		return false, errors.NewSource("failed to read tracked products", err)
	}
	for _, u := range urls {
		if u == url {
			return false, nil
		}
	}

	f, err := os.OpenFile(s.path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return false, errors.NewSource("failed to open tracked products", err)
	}
	defer f.Close()

	line := url + "\n"
	if info, err := f.Stat(); err == nil && info.Size() > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, info.Size()-1); err == nil && last[0] != '\n' {
			line = "\n" + line
		}
	}
	if _, err := f.WriteString(line); err != nil {
		return false, errors.NewSource("failed to append tracked product", err)
	}
	return true, nil
}

// Remove drops every line holding url. Other lines, comments and blanks
// included, are kept byte for byte. It reports false when url was not tracked.
func (s *FileStore) Remove(url string) (bool, error) {
	url = strings.TrimSpace(url)
	if url == "" || strings.HasPrefix(url, "#") {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, errors.NewSource("failed to read tracked products", err)
	}

	var buf bytes.Buffer
	found := false
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if string(bytes.TrimSpace(line)) == url {
			found = true
			continue
		}
		buf.Write(line)
	}
	if !found {
		return false, nil
	}

	if err := writeAtomic(s.path, buf.Bytes()); err != nil {
		return false, errors.NewSource("failed to rewrite tracked products", err)
	}
	return true, nil
}

func (s *FileStore) read() ([]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := make(map[string]bool)
	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		u := strings.TrimSpace(scanner.Text())
		if u == "" || strings.HasPrefix(u, "#") || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls, scanner.Err()
}

func writeAtomic(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
