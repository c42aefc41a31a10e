package app

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrImageFetch is returned when a thumbnail URL cannot be fetched.
var ErrImageFetch = errors.New("url does not return a valid file")

// httpImageFetcher is the default ImageFetcher backed by net/http.
type httpImageFetcher struct{}

func (httpImageFetcher) Fetch(url string) ([]byte, string, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, "", ErrImageFetch
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", ErrImageFetch
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", ErrImageFetch
	}
	ext := "jpg"
	if strings.Contains(url, ".png") {
		ext = "png"
	}
	return body, ext, nil
}

// storeImage fetches the thumbnail and writes a local copy, returning the URL
// the served copy is reachable at.
func (s *Service) storeImage(url string) (string, error) {
	body, ext, err := s.images.Fetch(url)
	if err != nil {
		return "", err
	}
	name := strconv.Itoa(nextID()) + "." + ext
	if err := os.MkdirAll(s.imageDir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.imageDir, name), body, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return s.baseURL + "/images/" + name, nil
}

func validThumbnailURL(url string) bool {
	return strings.Contains(url, ".png") || strings.Contains(url, ".jpg") || strings.Contains(url, ".jpeg")
}
