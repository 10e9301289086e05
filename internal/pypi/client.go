// Package pypi fetches core metadata of published wheels from a PEP 691
// simple repository index, using the PEP 658 metadata files so that no
// wheel has to be downloaded.
package pypi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ralt/pupa/internal/dist"
	"github.com/ralt/pupa/internal/pep440"
	"github.com/ralt/pupa/internal/pep508"
	"github.com/ralt/pupa/internal/utils"
	"github.com/sirupsen/logrus"
)

// DefaultIndexURL is the public PyPI simple index.
const DefaultIndexURL = "https://pypi.org/simple"

const (
	httpTimeout  = 30 * time.Second
	acceptHeader = "application/vnd.pypi.simple.v1+json"
	retries      = 3
)

var (
	// ErrNotFound is returned when the project or version is not on the index.
	ErrNotFound = errors.New("not found")

	// ErrNoMetadata is returned when no wheel of the release publishes a
	// core metadata file.
	ErrNoMetadata = errors.New("no wheel with core metadata")

	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")

	// ErrHashMismatch is returned when a metadata file does not match the
	// digest the index advertises.
	ErrHashMismatch = errors.New("metadata hash mismatch")

	// ErrInvalidName is returned for names that cannot be a project name.
	ErrInvalidName = errors.New("invalid project name")
)

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Client talks to one simple index. It is safe for concurrent use.
type Client struct {
	http       *http.Client
	indexURL   string
	retryDelay time.Duration
}

// NewClient returns a Client for indexURL, or for PyPI when it is empty.
func NewClient(indexURL string) *Client {
	if indexURL == "" {
		indexURL = DefaultIndexURL
	}
	return &Client{
		http:       &http.Client{Timeout: httpTimeout},
		indexURL:   strings.TrimSuffix(indexURL, "/"),
		retryDelay: time.Second,
	}
}

type projectPage struct {
	Name  string        `json:"name"`
	Files []projectFile `json:"files"`
}

type projectFile struct {
	Filename     string            `json:"filename"`
	URL          string            `json:"url"`
	Hashes       map[string]string `json:"hashes"`
	CoreMetadata json.RawMessage   `json:"core-metadata"`
	// Name used before PEP 714
	DistInfoMetadata json.RawMessage `json:"dist-info-metadata"`
	Yanked           json.RawMessage `json:"yanked"`
}

// metadataHashes reports whether the file has a metadata file and the
// digests published for it. The field is either a bool or a hash map.
func (f projectFile) metadataHashes() (map[string]string, bool) {
	raw := f.CoreMetadata
	if len(raw) == 0 {
		raw = f.DistInfoMetadata
	}
	if len(raw) == 0 {
		return nil, false
	}

	var present bool
	if err := json.Unmarshal(raw, &present); err == nil {
		return nil, present
	}
	var hashes map[string]string
	if err := json.Unmarshal(raw, &hashes); err == nil {
		return hashes, true
	}
	return nil, false
}

func (f projectFile) yanked() bool {
	if len(f.Yanked) == 0 {
		return false
	}
	var flag bool
	if err := json.Unmarshal(f.Yanked, &flag); err == nil {
		return flag
	}
	// A reason string means yanked
	var reason string
	return json.Unmarshal(f.Yanked, &reason) == nil
}

// FetchMetadata returns the core metadata of a wheel of name==version.
// Pure-Python wheels are preferred; yanked files are used only when nothing
// else is available.
func (c *Client) FetchMetadata(ctx context.Context, name, version string) (*dist.MetadataDistribution, error) {
	if !pep508.IsValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	project := pep508.CanonicalizeName(name)
	pageURL := fmt.Sprintf("%s/%s/", c.indexURL, project)

	var page projectPage
	if err := c.getJSON(ctx, pageURL, &page); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: project %s", err, project)
		}
		return nil, err
	}

	file, ok := selectWheel(page.Files, version)
	if !ok {
		if !hasVersion(page.Files, version) {
			return nil, fmt.Errorf("%w: %s %s", ErrNotFound, project, version)
		}
		return nil, fmt.Errorf("%w: %s %s", ErrNoMetadata, project, version)
	}
	logrus.Debugf("Using metadata of %s", file.Filename)

	fileURL, err := resolveURL(pageURL, file.URL)
	if err != nil {
		return nil, err
	}

	data, err := c.getBytes(ctx, fileURL+".metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata of %s: %w", file.Filename, err)
	}

	if hashes, _ := file.metadataHashes(); hashes["sha256"] != "" {
		if got := utils.SHA256Hex(data); !strings.EqualFold(got, hashes["sha256"]) {
			return nil, fmt.Errorf("%w: %s has sha256 %s, index says %s", ErrHashMismatch, file.Filename, got, hashes["sha256"])
		}
	}

	return dist.ParseMetadataFile(data)
}

// selectWheel picks the wheel of version whose metadata is published
func selectWheel(files []projectFile, version string) (projectFile, bool) {
	var best projectFile
	bestScore := -1
	for _, f := range files {
		if !strings.HasSuffix(f.Filename, ".whl") || !sameVersion(wheelVersion(f.Filename), version) {
			continue
		}
		if _, ok := f.metadataHashes(); !ok {
			continue
		}

		score := 0
		if !f.yanked() {
			score += 2
		}
		if strings.HasSuffix(f.Filename, "-none-any.whl") {
			score++
		}
		if score > bestScore {
			best, bestScore = f, score
		}
	}
	return best, bestScore >= 0
}

func hasVersion(files []projectFile, version string) bool {
	for _, f := range files {
		if strings.HasSuffix(f.Filename, ".whl") && sameVersion(wheelVersion(f.Filename), version) {
			return true
		}
	}
	return false
}

// wheelVersion extracts the version field of a wheel file name
func wheelVersion(filename string) string {
	parts := strings.Split(strings.TrimSuffix(filename, ".whl"), "-")
	if len(parts) < 5 {
		return ""
	}
	return parts[1]
}

func sameVersion(a, b string) bool {
	if a == b {
		return true
	}
	va, errA := pep440.Parse(a)
	vb, errB := pep440.Parse(b)
	return errA == nil && errB == nil && va.Equal(vb)
}

func resolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid file url %q: %w", ref, err)
	}
	resolved := b.ResolveReference(r)
	resolved.Fragment = ""
	return resolved.String(), nil
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	data, err := c.get(ctx, url, acceptHeader)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", url, err)
	}
	return nil
}

func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	return c.get(ctx, url, "")
}

// get performs a GET, retrying transient failures with a doubling delay
func (c *Client) get(ctx context.Context, url, accept string) ([]byte, error) {
	delay := c.retryDelay
	var lastErr error
	for i := range retries {
		data, err := c.do(ctx, url, accept)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !errors.As(err, new(*retryableError)) {
			return nil, err
		}
		logrus.Debugf("Retrying %s: %v", url, err)

		if i < retries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
				delay *= 2
			}
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, url, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &retryableError{fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode >= 500:
		return nil, &retryableError{fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)}
	default:
		return nil, fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
