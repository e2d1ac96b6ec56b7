package release

import (
	"bytes"
	"context"
	"crypto/sha256"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/models"
)

// Request describes one asset to fetch into Dir.
type Request struct {
	Repo      models.Repo
	AssetName string
	Suffix    string
	Dir       string
}

// Fetch downloads the selected asset of the latest release into req.Dir,
// extracts it when it is a ZIP archive and removes the archive.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*models.Release, error) {
	rel, err := f.LatestRelease(ctx, req.Repo)
	if err != nil {
		return nil, err
	}

	asset, err := SelectAsset(rel.Assets, req.AssetName, req.Suffix)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Repo, rel.TagName)
	}

	path := filepath.Join(req.Dir, asset.Name)
	if err := f.Download(ctx, asset.DownloadURL, path); err != nil {
		return nil, err
	}
	log.G(ctx).Infof("Downloaded the latest release of %s (%s) to %s", req.Repo, rel.TagName, path)

	zipped, err := IsZip(path)
	if err != nil {
		return nil, err
	}
	if !zipped {
		return rel, nil
	}
	if err := ExtractZip(path, req.Dir); err != nil {
		return nil, err
	}
	log.G(ctx).Infof("Extracted %s to %s", asset.Name, req.Dir)

	if err := os.Remove(path); err != nil {
		return nil, errors.Wrap(err, "remove archive")
	}
	return rel, nil
}

// Download streams url to path, creating the parent directory.
func (f *Fetcher) Download(ctx context.Context, url, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}

	log.G(ctx).Debugf("Downloading: %s to %s", url, path)
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req = req.WithContext(ctx)
	// Only add auth header if asset is on github
	if f.Token != "" && strings.HasPrefix(url, "https://github.com/") {
		req.Header.Set("Authorization", "token "+f.Token)
	}

	client := f.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "download %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, h), resp.Body)
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	log.G(ctx).Debugf("Downloaded %s, %s (sha256 %x)", filepath.Base(path), humanize.Bytes(uint64(n)), h.Sum(nil))
	return out.Close()
}

var zipMagic = [][]byte{
	[]byte("PK\x03\x04"),
	[]byte("PK\x05\x06"), // empty archive
}

// IsZip sniffs the file signature at path.
func IsZip(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, 4)
	if _, err := io.ReadFull(f, head); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	for _, m := range zipMagic {
		if bytes.Equal(head, m) {
			return true, nil
		}
	}
	return false, nil
}
