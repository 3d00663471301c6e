package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// A Resource wraps a scene asset stream that is either read from the local
// filesystem or fetched over http(s).
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Resolve target relative to this resource. Absolute paths and URLs with a
// scheme are returned unmodified.
func (r *Resource) resolve(target *url.URL) (*url.URL, error) {
	if target.Scheme != "" {
		return target, nil
	}

	if r.IsRemote() {
		resolved := *r.url
		resolved.Path = path.Join(path.Dir(r.url.Path), target.Path)
		return &resolved, nil
	}

	if filepath.IsAbs(target.Path) {
		return target, nil
	}

	base, err := filepath.Abs(r.url.Path)
	if err != nil {
		return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", r.url.String(), err.Error())
	}
	return &url.URL{Path: filepath.Join(filepath.Dir(base), target.Path)}, nil
}

// Open a resource. If relTo is specified and pathToResource does not define a
// scheme, the resource path is resolved relative to the location of relTo.
//
// Local files as well as http/https URLs are supported. The caller must close
// the returned resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	target, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	if relTo != nil {
		target, err = relTo.resolve(target)
		if err != nil {
			return nil, err
		}
	}

	var reader io.ReadCloser
	switch target.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(target.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(target.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", target.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", target.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", target.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        target,
	}, nil
}

// Create a resource from a reader. Relative resources opened against it are
// resolved against name.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	u, err := url.Parse(name)
	if err != nil {
		u = &url.URL{Path: name}
	}
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        u,
	}
}
