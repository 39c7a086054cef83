package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// MediaStore is where owned media files live. Entities reference media by
// public URL; only the component that owns a file may remove it.
type MediaStore interface {
	Save(relPath string, r io.Reader) (string, error)
	Copy(srcURL, relPath string) (string, error)
	Remove(urls []string) error
}

// DiskStore keeps media under a local upload root served at baseURL.
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root string) *DiskStore {
	return &DiskStore{root: root, baseURL: "/uploads"}
}

// WardrobeImagePath builds the relative path for a wardrobe item image.
func WardrobeImagePath(userID, itemID int64, index int, filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("wardrobe/%d/%d/image_%d%s", userID, itemID, index, ext)
}

// Save writes a new file and returns its public URL.
func (s *DiskStore) Save(relPath string, r io.Reader) (string, error) {
	dst := filepath.Join(s.root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return s.baseURL + "/" + relPath, nil
}

// Copy duplicates an already-stored file under a new relative path, so the
// copy has its own lifecycle. Non-local source URLs are passed through
// unchanged: there is nothing on disk to duplicate.
func (s *DiskStore) Copy(srcURL, relPath string) (string, error) {
	local, ok := s.localPath(srcURL)
	if !ok {
		return srcURL, nil
	}
	src, err := os.Open(local)
	if err != nil {
		return "", fmt.Errorf("open media source: %w", err)
	}
	defer src.Close()
	return s.Save(relPath, src)
}

// Remove deletes the given media files. Missing files are fine (already
// gone); any other failure is reported so the caller can log the
// inconsistency.
func (s *DiskStore) Remove(urls []string) error {
	var errs []error
	for _, u := range urls {
		local, ok := s.localPath(u)
		if !ok {
			continue
		}
		if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove %s: %w", u, err))
		}
	}
	return errors.Join(errs...)
}

func (s *DiskStore) localPath(url string) (string, bool) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return "", false
	}
	rel := strings.TrimPrefix(url, s.baseURL+"/")
	return filepath.Join(s.root, filepath.FromSlash(rel)), true
}
