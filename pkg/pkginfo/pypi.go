package pkginfo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const DefaultIndex = "https://pypi.org/pypi"

// Metadata holds the descriptor defaults found for a package. Fields the
// index does not know are empty.
type Metadata struct {
	Author      string
	AuthorEmail string
	AuthorURL   string
	License     string
	Version     string
	Description string
	URL         string
}

type pypiResponse struct {
	Info struct {
		Author      string            `json:"author"`
		AuthorEmail string            `json:"author_email"`
		License     string            `json:"license"`
		Version     string            `json:"version"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

// Index looks packages up in the PyPI JSON API.
type Index struct {
	BaseURL string
	Client  *http.Client
}

func NewIndex() *Index {
	return &Index{
		BaseURL: DefaultIndex,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Lookup fetches the metadata of slug. An unknown package is not an error,
// it yields empty metadata.
func (ix *Index) Lookup(ctx context.Context, slug string) (Metadata, error) {
	target := strings.TrimRight(ix.BaseURL, "/") + "/" + url.PathEscape(slug) + "/json"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Metadata{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := ix.Client.Do(req)
	if err != nil {
		return Metadata{}, errors.Wrapf(err, "looking up %s", slug)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Metadata{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Metadata{}, errors.Errorf("looking up %s: unexpected status %d", slug, resp.StatusCode)
	}

	data := pypiResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Metadata{}, errors.Wrapf(err, "decoding metadata of %s", slug)
	}

	info := data.Info
	meta := Metadata{
		Author:      known(info.Author),
		AuthorEmail: known(info.AuthorEmail),
		License:     known(info.License),
		Version:     known(info.Version),
		Description: known(info.Summary),
		URL:         known(info.HomePage),
	}
	if meta.URL == "" {
		for _, key := range []string{"Homepage", "Source", "Repository"} {
			if u := known(info.ProjectURLs[key]); u != "" {
				meta.URL = u
				break
			}
		}
	}
	meta.AuthorURL = AuthorURL(meta.URL)
	return meta, nil
}

// PyPI reports missing fields as UNKNOWN
func known(value string) string {
	value = strings.TrimSpace(value)
	if value == "UNKNOWN" {
		return ""
	}
	return value
}

// AuthorURL derives the account page from a GitHub or Bitbucket repository
// URL, or returns "".
func AuthorURL(repoURL string) string {
	u, err := url.Parse(repoURL)
	if err != nil {
		return ""
	}
	if u.Host != "github.com" && u.Host != "bitbucket.org" {
		return ""
	}

	segments := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")
	if segments[0] == "" {
		return ""
	}
	return (&url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/" + segments[0]}).String()
}
