package infra

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// IconSize is the edge length of stored source icons.
const IconSize = 16

// IconDownloader handles downloading and caching headline source icons
type IconDownloader struct {
	basePath    string
	urlTemplate string
	client      *http.Client
}

// NewIconDownloader stores icons under dir, fetching them from urlTemplate
// (a format string with one %s for the domain).
func NewIconDownloader(dir, urlTemplate string) (*IconDownloader, error) {
	if !strings.Contains(urlTemplate, "%s") {
		return nil, fmt.Errorf("icon url template must contain %%s: %q", urlTemplate)
	}

	// Ensure directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon directory: %w", err)
	}

	// Optimize HTTP Transport to prevent connection leaks
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &IconDownloader{
		basePath:    dir,
		urlTemplate: urlTemplate,
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}, nil
}

// DownloadIcon downloads the icon for a source domain unless it is already
// on disk, resizing it to IconSize. Returns the local file path.
func (d *IconDownloader) DownloadIcon(ctx context.Context, sourceDomain string) (string, error) {
	safe := sanitizeDomain(sourceDomain)
	if safe == "" {
		return "", fmt.Errorf("invalid domain: %q", sourceDomain)
	}

	filePath := d.IconPath(safe)

	// Check if exists
	if _, err := os.Stat(filePath); err == nil {
		return filePath, nil // Already exists (Cache Hit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(d.urlTemplate, safe), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	srcImg, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	resized := imaging.Resize(srcImg, IconSize, IconSize, imaging.Lanczos)
	if err := imaging.Save(resized, filePath); err != nil {
		return "", fmt.Errorf("failed to save resized image: %w", err)
	}

	return filePath, nil
}

// IconPath returns the local path for a domain's icon
func (d *IconDownloader) IconPath(sourceDomain string) string {
	return filepath.Join(d.basePath, sanitizeDomain(sourceDomain)+".png")
}

// Dir returns the icon directory.
func (d *IconDownloader) Dir() string {
	return d.basePath
}

// sanitizeDomain keeps hostname characters only, preventing path traversal.
func sanitizeDomain(host string) string {
	res := make([]rune, 0, len(host))
	for _, r := range strings.ToLower(host) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			res = append(res, r)
		}
	}
	return strings.Trim(string(res), ".")
}
