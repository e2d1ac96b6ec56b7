package release

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v32/github"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/aseprite-builder/aseprite-builder/errdefs"
	"github.com/aseprite-builder/aseprite-builder/log"
	"github.com/aseprite-builder/aseprite-builder/models"
)

// QueryTimeout bounds the latest-release API call. Downloads are not bounded.
const QueryTimeout = 10 * time.Second

// Fetcher pulls release metadata and assets from GitHub.
type Fetcher struct {
	Client  *github.Client
	HTTP    *http.Client
	Token   string
	Timeout time.Duration
}

// NewFetcher returns a Fetcher. A non-empty token authenticates API calls,
// which raises the rate limit.
func NewFetcher(ctx context.Context, token string) *Fetcher {
	var tc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		tc = oauth2.NewClient(ctx, ts)
	}
	return &Fetcher{
		Client:  github.NewClient(tc),
		HTTP:    &http.Client{},
		Token:   token,
		Timeout: QueryTimeout,
	}
}

// LatestRelease returns the latest published release of repo.
func (f *Fetcher) LatestRelease(ctx context.Context, repo models.Repo) (*models.Release, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = QueryTimeout
	}
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.G(ctx).Debugf("Querying latest release of %s", repo)
	rel, _, err := f.Client.Repositories.GetLatestRelease(qctx, repo.Owner, repo.Name)
	if err != nil {
		if qctx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(errdefs.ErrNetworkTimeout, "latest release of %s after %s", repo, timeout)
		}
		return nil, errors.Wrapf(err, "latest release of %s", repo)
	}

	release := &models.Release{
		TagName: rel.GetTagName(),
		Name:    rel.GetName(),
		HTMLURL: rel.GetHTMLURL(),
		Assets:  make([]models.Asset, 0, len(rel.Assets)),
	}
	for i := range rel.Assets {
		a := rel.Assets[i]
		release.Assets = append(release.Assets, models.Asset{
			Name:        a.GetName(),
			DownloadURL: a.GetBrowserDownloadURL(),
		})
	}
	return release, nil
}

// SelectAsset returns the asset named exactly name. When name is empty or
// not present it falls back to the first asset ending with suffix.
func SelectAsset(assets []models.Asset, name, suffix string) (*models.Asset, error) {
	if name != "" {
		for i := range assets {
			if assets[i].Name == name {
				return &assets[i], nil
			}
		}
	}
	if suffix != "" {
		for i := range assets {
			if strings.HasSuffix(assets[i].Name, suffix) {
				return &assets[i], nil
			}
		}
	}

	target := name
	if target == "" {
		target = "*" + suffix
	}
	return nil, errors.Wrapf(errdefs.ErrAssetNotFound, "%s in latest release", target)
}
