package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"strconv"
	"strings"
)

// ErrRangeUnsupported is returned when a server ignores range requests.
var ErrRangeUnsupported = errors.New("arcstream: server does not support range requests")

// ErrSourceChanged is returned when a remote archive no longer matches the
// ETag seen when it was opened.
var ErrSourceChanged = errors.New("arcstream: archive changed on server")

// remote reads an archive over HTTP with one range request per ReadAt.
type remote struct {
	url     string
	client  *nethttp.Client
	headers nethttp.Header
	size    int64
	etag    string
}

// WithHTTPClient sets the HTTP client used by OpenURL.
func WithHTTPClient(client *nethttp.Client) Option {
	return func(s *Source) {
		s.httpClient = client
	}
}

// WithHeader sets a header sent with every request made by OpenURL.
func WithHeader(key, value string) Option {
	return func(s *Source) {
		if s.httpHeaders == nil {
			s.httpHeaders = make(nethttp.Header)
		}
		s.httpHeaders.Set(key, value)
	}
}

// OpenURL opens an archive served over HTTP. The server must support
// range requests. Plain archives are read on demand, one range request per
// read; compressed archives are downloaded and decompressed up front.
func OpenURL(ctx context.Context, url string, opts ...Option) (*Source, error) {
	s := newSource(opts)
	rm := &remote{
		url:     url,
		client:  s.httpClient,
		headers: s.httpHeaders,
	}
	if rm.client == nil {
		rm.client = nethttp.DefaultClient
	}
	if err := rm.probe(ctx); err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}

	compression, err := detect(rm, rm.size)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if compression != CompressionNone {
		data, err := s.decompress(io.NewSectionReader(rm, 0, rm.size), compression)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", url, err)
		}
		s.setBytes(data)
		s.compression = compression
		s.log().Debug("remote archive decompressed", "url", url, "compression", compression.String(),
			"stored", rm.size, "size", len(data))
		return s, nil
	}

	s.ra = rm
	s.size = rm.size
	s.sourceID = rm.sourceID()
	return s, nil
}

func (rm *remote) sourceID() string {
	if rm.etag != "" {
		return fmt.Sprintf("url:%s|etag:%s", rm.url, rm.etag)
	}
	return fmt.Sprintf("url:%s|size:%d", rm.url, rm.size)
}

// probe checks range support and learns the size and ETag of the archive.
func (rm *remote) probe(ctx context.Context) error {
	req, err := rm.newRequest(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := rm.client.Do(req)
	if err != nil {
		return err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusOK:
		return ErrRangeUnsupported
	default:
		return fmt.Errorf("range probe failed: %s", resp.Status)
	}

	size, err := parseContentRange(resp.Header.Get("Content-Range"))
	if err != nil {
		return err
	}
	rm.size = size
	rm.etag = resp.Header.Get("ETag")
	return nil
}

// ReadAt implements io.ReaderAt with a single range request.
func (rm *remote) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 {
		return 0, fmt.Errorf("read at %d: negative offset", off)
	}
	if off >= rm.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	expected := len(p)
	if end >= rm.size {
		end = rm.size - 1
		expected = int(end - off + 1)
	}

	req, err := rm.newRequest(context.Background())
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", off, end))
	// If-Match uses strong comparison; a weak ETag never matches.
	if rm.etag != "" && !isWeakETag(rm.etag) {
		req.Header.Set("If-Match", rm.etag)
	}
	resp, err := rm.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case nethttp.StatusPartialContent:
	case nethttp.StatusRequestedRangeNotSatisfiable:
		return 0, io.EOF
	case nethttp.StatusPreconditionFailed:
		return 0, fmt.Errorf("read at %d: %w", off, ErrSourceChanged)
	case nethttp.StatusOK:
		return 0, ErrRangeUnsupported
	default:
		return 0, fmt.Errorf("range request failed: %s", resp.Status)
	}

	n, err := io.ReadFull(resp.Body, p[:expected])
	if err != nil {
		return n, err
	}
	if expected < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (rm *remote) newRequest(ctx context.Context) (*nethttp.Request, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, rm.url, nethttp.NoBody)
	if err != nil {
		return nil, err
	}
	for key, values := range rm.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", "identity")
	}
	return req, nil
}

func isWeakETag(etag string) bool {
	return strings.HasPrefix(etag, "W/")
}

func drain(resp *nethttp.Response) {
	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain for connection reuse
	_ = resp.Body.Close()
}

// parseContentRange extracts the total size from a Content-Range header
// of the form "bytes start-end/size".
func parseContentRange(value string) (int64, error) {
	value = strings.TrimSpace(value)
	rest, ok := strings.CutPrefix(value, "bytes ")
	if !ok {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	_, total, ok := strings.Cut(rest, "/")
	if !ok || total == "*" {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	size, err := strconv.ParseInt(total, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("invalid Content-Range %q", value)
	}
	return size, nil
}
