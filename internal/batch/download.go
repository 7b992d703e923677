package batch

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/actorgraph/internal/errors"
)

// Downloader fetches the gzipped dataset exports and unpacks them into a
// raw directory
type Downloader struct {
	baseURL string
	rawDir  string
	client  *http.Client
	workers int
	logger  *slog.Logger
}

// NewDownloader creates a downloader for baseURL. A nil client uses one
// without an overall timeout, since the principal export is several GB.
func NewDownloader(baseURL, rawDir string, client *http.Client) *Downloader {
	if client == nil {
		client = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 60 * time.Second,
		}}
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Downloader{
		baseURL: baseURL,
		rawDir:  rawDir,
		client:  client,
		workers: len(Sources),
		logger:  slog.Default().With("component", "downloader"),
	}
}

// DownloadAll fetches every source file in parallel. Any failure cancels the
// rest and fails the run; no partial file is left under its final name.
func (d *Downloader) DownloadAll(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(d.rawDir, 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create raw dir %s", d.rawDir)
	}

	paths := make([]string, len(Sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for i, name := range Sources {
		g.Go(func() error {
			p, err := d.Download(ctx, name)
			paths[i] = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

// Download fetches <base><name>.gz and writes the decompressed file to
// <rawDir>/<name>
func (d *Downloader) Download(ctx context.Context, name string) (string, error) {
	start := time.Now()
	url := d.baseURL + name + ".gz"
	dest := filepath.Join(d.rawDir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.NetworkErrorf(err, "build request for %s", url)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", errors.NetworkErrorf(err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NetworkErrorf(fmt.Errorf("unexpected status %s", resp.Status), "fetch %s", url)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return "", errors.NetworkErrorf(err, "open gzip stream %s", url)
	}
	defer gz.Close()

	tmp, err := os.CreateTemp(d.rawDir, name+".*.part")
	if err != nil {
		return "", errors.FileSystemErrorf(err, "create temp file for %s", name)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, gz)
	if err != nil {
		tmp.Close()
		return "", errors.NetworkErrorf(err, "download %s (truncated after %d bytes)", url, n)
	}
	if err := tmp.Close(); err != nil {
		return "", errors.FileSystemErrorf(err, "close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", errors.FileSystemErrorf(err, "move %s into place", dest)
	}

	d.logger.Info("downloaded", "file", name, "bytes", n, "duration", time.Since(start))
	return dest, nil
}
