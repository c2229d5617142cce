package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/tliron/commonlog"
)

// remotePrefix marks a locator that is fetched over the network.
const remotePrefix = "https"

// DefaultTimeout bounds a single remote fetch.
const DefaultTimeout = 10 * time.Second

var log = commonlog.GetLogger("cssfusion.core")

// Fetcher returns the raw text of the stylesheet named by a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (string, error)
}

// Loader fetches stylesheets from the local filesystem or over HTTPS.
// It is safe for concurrent use.
type Loader struct {
	client      *http.Client
	maxFileSize int64
}

// NewLoader creates a Loader whose remote fetches give up after timeout and
// which refuses stylesheets larger than maxFileSize bytes. Zero values
// select DefaultTimeout and no size limit.
func NewLoader(timeout time.Duration, maxFileSize int64) *Loader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Loader{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		maxFileSize: maxFileSize,
	}
}

// IsRemote reports whether locator names a remote stylesheet.
func IsRemote(locator string) bool {
	return strings.HasPrefix(locator, remotePrefix)
}

// Fetch returns the contents of locator. Local failures are reported as
// *IOError, remote ones as *NetworkError.
func (l *Loader) Fetch(ctx context.Context, locator string) (string, error) {
	if IsRemote(locator) {
		return l.fetchRemote(ctx, locator)
	}
	return l.fetchLocal(locator)
}

func (l *Loader) fetchLocal(locator string) (string, error) {
	log.Debugf("reading %s", locator)

	info, err := os.Stat(locator)
	if err != nil {
		return "", &IOError{Locator: locator, Err: err}
	}
	if info.IsDir() {
		return "", &IOError{Locator: locator, Err: fmt.Errorf("is a directory")}
	}
	if l.maxFileSize > 0 && info.Size() > l.maxFileSize {
		return "", &IOError{Locator: locator, Err: fmt.Errorf("size %s exceeds limit of %s",
			formatSize(info.Size()), formatSize(l.maxFileSize))}
	}

	content, err := os.ReadFile(locator)
	if err != nil {
		return "", &IOError{Locator: locator, Err: err}
	}
	return string(content), nil
}

func (l *Loader) fetchRemote(ctx context.Context, locator string) (string, error) {
	log.Debugf("fetching %s", locator)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, locator, nil)
	if err != nil {
		return "", &NetworkError{Locator: locator, Err: err}
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", &NetworkError{Locator: locator, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &NetworkError{Locator: locator, StatusCode: resp.StatusCode}
	}

	body := io.Reader(resp.Body)
	if l.maxFileSize > 0 {
		body = io.LimitReader(resp.Body, l.maxFileSize+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return "", &NetworkError{Locator: locator, Err: err}
	}
	if l.maxFileSize > 0 && int64(len(content)) > l.maxFileSize {
		return "", &NetworkError{Locator: locator, Err: fmt.Errorf("response exceeds limit of %s",
			formatSize(l.maxFileSize))}
	}

	return string(content), nil
}

// ResolveLocator turns the raw locator of an @import found in the
// stylesheet named base into a locator that can be fetched. Quotes and
// surrounding blanks are removed. Remote locators are returned as they
// are. Everything else found in a remote stylesheet, root-relative paths
// included, resolves against the base URL and never names a local file.
// Absolute local paths are kept; relative ones are resolved against base.
func ResolveLocator(base, ref string) string {
	ref = unquote(strings.TrimSpace(ref))
	if ref == "" || base == "" || IsRemote(ref) {
		return ref
	}

	if IsRemote(base) {
		return resolveRemote(base, ref)
	}

	if filepath.IsAbs(ref) {
		return ref
	}
	if strings.HasPrefix(ref, "/") {
		return path.Clean(ref)
	}
	return filepath.Join(filepath.Dir(base), filepath.FromSlash(ref))
}

// resolveRemote resolves ref against the remote base. The result is always
// remote; a reference that cannot be parsed, or that would switch to
// another scheme, is appended to the base directory as it is.
func resolveRemote(base, ref string) string {
	fallback := base[:strings.LastIndexByte(base, '/')+1] + ref

	baseURL, err := url.Parse(base)
	if err != nil {
		return fallback
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return fallback
	}
	if resolved := baseURL.ResolveReference(refURL).String(); IsRemote(resolved) {
		return resolved
	}
	return fallback
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	return s
}
