package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrNoPackageAsset is returned when a release carries no installable package.
var ErrNoPackageAsset = errors.New("no package asset in release")

// ReleaseChecker looks up the latest package published as a GitHub release.
type ReleaseChecker struct {
	currentVersion string
	githubToken    string // Optional, for rate limiting
	owner          string
	repo           string
	assetName      string // exact asset to pick; first *.apk when empty
	client         *http.Client
	baseURL        string // Base URL for GitHub API (for testing)
}

// GitHubRelease represents a GitHub release response
type GitHubRelease struct {
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	Body       string  `json:"body"`
	HTMLURL    string  `json:"html_url"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Asset is a file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// ReleaseInfo describes the latest release relative to the installed version.
type ReleaseInfo struct {
	Available      bool   `json:"available" yaml:"available" toml:"available"`
	CurrentVersion string `json:"currentVersion,omitempty" yaml:"currentVersion,omitempty" toml:"currentVersion,omitempty"`
	LatestVersion  string `json:"latestVersion" yaml:"latestVersion" toml:"latestVersion"`
	ReleaseURL     string `json:"releaseUrl,omitempty" yaml:"releaseUrl,omitempty" toml:"releaseUrl,omitempty"`
	AssetName      string `json:"assetName" yaml:"assetName" toml:"assetName"`
	AssetURL       string `json:"assetUrl" yaml:"assetUrl" toml:"assetUrl"`
}

// Request turns the release into a download-and-install request.
func (i *ReleaseInfo) Request() Request {
	return Request{URL: i.AssetURL, FileName: i.AssetName}
}

// NewReleaseChecker creates a checker for owner/repo. currentVersion may be
// empty, in which case any release counts as available.
func NewReleaseChecker(currentVersion, owner, repo string) *ReleaseChecker {
	return &ReleaseChecker{
		currentVersion: currentVersion,
		owner:          owner,
		repo:           repo,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: "https://api.github.com",
	}
}

// WithToken sets an optional GitHub token for authentication
func (c *ReleaseChecker) WithToken(token string) *ReleaseChecker {
	c.githubToken = token
	return c
}

// WithAsset selects a release asset by exact name.
func (c *ReleaseChecker) WithAsset(name string) *ReleaseChecker {
	c.assetName = name
	return c
}

// WithBaseURL points the checker at another GitHub API endpoint.
func (c *ReleaseChecker) WithBaseURL(baseURL string) *ReleaseChecker {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// Check fetches the latest release and picks its package asset.
func (c *ReleaseChecker) Check(ctx context.Context) (*ReleaseInfo, error) {
	release, err := c.getLatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest release: %w", err)
	}

	latest, err := CanonicalVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("invalid latest version: %w", err)
	}

	asset, err := c.findPackageAsset(release)
	if err != nil {
		return nil, err
	}

	info := &ReleaseInfo{
		Available:     true,
		LatestVersion: NormalizeVersion(latest),
		ReleaseURL:    release.HTMLURL,
		AssetName:     asset.Name,
		AssetURL:      asset.BrowserDownloadURL,
	}
	if c.currentVersion != "" {
		info.CurrentVersion = NormalizeVersion(c.currentVersion)
		info.Available = IsNewerVersion(c.currentVersion, latest)
	}
	return info, nil
}

// getLatestRelease fetches the latest release from GitHub API
func (c *ReleaseChecker) getLatestRelease(ctx context.Context) (*GitHubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "sideload")
	if c.githubToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.githubToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no releases found for %s/%s", c.owner, c.repo)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &release, nil
}

func (c *ReleaseChecker) findPackageAsset(release *GitHubRelease) (*Asset, error) {
	for i := range release.Assets {
		asset := &release.Assets[i]
		if c.assetName != "" {
			if asset.Name == c.assetName {
				return asset, nil
			}
			continue
		}
		if strings.HasSuffix(strings.ToLower(asset.Name), PackageExtension) {
			return asset, nil
		}
	}
	if c.assetName != "" {
		return nil, fmt.Errorf("%w: %s not found in %s", ErrNoPackageAsset, c.assetName, release.TagName)
	}
	return nil, fmt.Errorf("%w: %s", ErrNoPackageAsset, release.TagName)
}
