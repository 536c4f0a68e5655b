package csvtable

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// Source produces the raw CSV payload. The caller closes the returned reader.
type Source interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// SourceOptions tune how NewSource builds a Source.
type SourceOptions struct {
	// BaseURL resolves paths such as "/result.csv" into HTTP URLs. When it
	// is empty such paths are read from the local file system.
	BaseURL string

	// Client is used for HTTP sources (default: http.DefaultClient).
	Client *http.Client

	// S3Region overrides the region for s3:// sources.
	S3Region string
}

// NewSource picks a Source implementation from the scheme of raw:
//
//	http://, https://  -> HTTPSource
//	s3://bucket/key    -> S3Source
//	file:///path       -> FileSource
//	/result.csv        -> HTTPSource against BaseURL, or FileSource without one
//	data/result.csv    -> FileSource
func NewSource(raw string, opts SourceOptions) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty location", ErrUnsupportedSource)
	}

	u, err := url.Parse(raw)
	if err != nil || len(u.Scheme) == 1 {
		// Windows drive letters parse as one-letter schemes.
		return &FileSource{Path: raw}, nil
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return &HTTPSource{URL: u.String(), Client: opts.Client}, nil

	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("%w: s3 location needs bucket and key: %q", ErrUnsupportedSource, raw)
		}
		return &S3Source{Bucket: u.Host, Key: key, Region: opts.S3Region}, nil

	case "file":
		return &FileSource{Path: u.Path}, nil

	case "":
		if opts.BaseURL != "" && strings.HasPrefix(raw, "/") {
			base, err := url.Parse(opts.BaseURL)
			if err != nil {
				return nil, fmt.Errorf("parse base url: %w", err)
			}
			return &HTTPSource{URL: base.ResolveReference(u).String(), Client: opts.Client}, nil
		}
		return &FileSource{Path: raw}, nil

	default:
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedSource, u.Scheme)
	}
}

// defaultAccept prefers CSV but takes anything the server has.
const defaultAccept = "text/csv, text/plain;q=0.9, */*;q=0.1"

// HTTPSource issues a single GET per fetch.
type HTTPSource struct {
	URL    string
	Client *http.Client

	// Accept and UserAgent override the request headers when set.
	Accept    string
	UserAgent string
}

// Fetch implements Source. Non-2xx responses wrap ErrUnexpectedStatus.
func (s *HTTPSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	accept := s.Accept
	if accept == "" {
		accept = defaultAccept
	}
	req.Header.Set("Accept", accept)
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %w %d", s.URL, ErrUnexpectedStatus, resp.StatusCode)
	}
	return resp.Body, nil
}

func (s *HTTPSource) String() string {
	return s.URL
}

// FileSource reads a local file.
type FileSource struct {
	Path string
}

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return f, nil
}

func (s *FileSource) String() string {
	return s.Path
}
