package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"
)

// ChunkSize is the size of each read/write step of a streamed download.
const ChunkSize = 1024

// ErrStalled is returned when a transfer receives no data for longer
// than the configured stall timeout.
var ErrStalled = errors.New("transfer stalled")

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// Options configures the Client.
type Options struct {
	// UserAgent is sent with every request.
	UserAgent string

	// ConnectTimeout bounds TCP connection establishment.
	ConnectTimeout time.Duration

	// TLSHandshakeTimeout bounds the TLS handshake.
	TLSHandshakeTimeout time.Duration

	// ResponseHeaderTimeout bounds the wait for response headers.
	ResponseHeaderTimeout time.Duration

	// StallTimeout aborts a transfer when no bytes arrive for this long.
	// Zero disables the watchdog.
	StallTimeout time.Duration
}

// DefaultOptions returns the default client options.
func DefaultOptions() Options {
	return Options{
		UserAgent:             "AudiobookDownloader",
		ConnectTimeout:        15 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		StallTimeout:          60 * time.Second,
	}
}

// Client wraps HTTP operations for audiobook downloads.
//
// Client provides:
//   - Configured User-Agent header
//   - Timeout handling without a total transfer deadline, so large parts
//     are never cut off while data is still flowing
//   - File download with progress tracking
//   - File size retrieval via HEAD requests
//
// Example usage:
//
//	client := NewClient(DefaultOptions())
//
//	// Fetch a cover image
//	cover, err := client.Get(ctx, "https://example.com/cover.jpg", nil)
//
//	// Download a part, counting written bytes
//	var received int64
//	_, err = client.DownloadFile(ctx, partURL, "/books/My Book/Part 01.mp3", nil,
//	    func(n int) { received += int64(n) },
//	    nil)
type Client struct {
	httpClient   *http.Client
	userAgent    string
	stallTimeout time.Duration
}

// NewClient creates a new HTTP client with the given options.
//
// The client is configured with:
//   - A dialer bounded by opts.ConnectTimeout
//   - TLS handshake and response header timeouts from opts
//   - opts.UserAgent, or "AudiobookDownloader" when empty
//   - A stall watchdog for DownloadFile when opts.StallTimeout > 0
func NewClient(opts Options) *Client {
	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.TLSHandshakeTimeout,
		ResponseHeaderTimeout: opts.ResponseHeaderTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultOptions().UserAgent
	}

	return &Client{
		httpClient:   &http.Client{Transport: transport},
		userAgent:    userAgent,
		stallTimeout: opts.StallTimeout,
	}
}

// ProgressWriter wraps a writer to track download progress.
//
// OnWrite is called after each Write with the number of bytes actually
// written, so the sum of all calls equals the bytes on disk.
//
// Example:
//
//	pw := &ProgressWriter{
//	    Writer: file,
//	    OnWrite: func(n int) {
//	        progress.Advance(int64(n))
//	    },
//	}
//	io.Copy(pw, response.Body)
type ProgressWriter struct {
	// Writer is the underlying writer to write data to.
	Writer io.Writer

	// Written is the current number of bytes written.
	Written int64

	// OnWrite is called after each Write with the chunk size written.
	OnWrite func(n int)
}

// Write implements io.Writer, tracking progress and calling OnWrite.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.Written += int64(n)
	if pw.OnWrite != nil && n > 0 {
		pw.OnWrite(n)
	}
	return n, err
}

func (c *Client) newRequest(ctx context.Context, method, url string, headers map[string]string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// Get performs a GET request and returns the response body as bytes.
//
// The request includes the configured User-Agent header and headers.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK (a *StatusError)
//   - Reading the body fails
//
// Example:
//
//	data, err := client.Get(ctx, "https://example.com/cover.jpg", nil)
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, url, headers)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	return io.ReadAll(resp.Body)
}

// GetFileSize returns the size of a file at the given URL via HEAD request.
//
// DownloadFile callers use it to learn the size of parts served without
// a Content-Length on GET.
//
// Returns an error if:
//   - The request fails
//   - The server doesn't return a Content-Length header
//
// Example:
//
//	size, err := client.GetFileSize(ctx, partURL, nil)
//	fmt.Printf("Part is %d bytes\n", size)
func (c *Client) GetFileSize(ctx context.Context, url string, headers map[string]string) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodHead, url, headers)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.ContentLength < 0 {
		return 0, fmt.Errorf("no Content-Length header for %s", url)
	}

	return resp.ContentLength, nil
}

// DownloadFile streams url to destPath in ChunkSize chunks.
//
// Parameters:
//   - ctx: Cancelling it aborts the transfer
//   - url: The part to fetch
//   - destPath: Created, or truncated if it exists, once the response is 200 OK
//   - headers: Extra request headers, may be nil
//   - onChunk: If non-nil, called after every write with the bytes written
//   - onStart: If non-nil, called once with the declared Content-Length
//     (-1 when absent) before any byte is written
//
// The declared length is advisory: a body shorter or longer than
// declared is not an error.
//
// Returns the number of bytes written and an error that is:
//   - A *StatusError for a non-200 response
//   - ErrStalled when no data arrived for the stall timeout
//   - context.Canceled (or DeadlineExceeded) once ctx is done, whatever
//     cause the transport reports
//   - Any connection or file system error otherwise
//
// Example:
//
//	written, err := client.DownloadFile(ctx, partURL, "/books/My Book/Part 01.mp3", nil,
//	    func(n int) { bar.IncrBy(n) },
//	    func(declared int64) { bar.SetTotal(declared, false) })
func (c *Client) DownloadFile(ctx context.Context, url, destPath string, headers map[string]string, onChunk func(n int), onStart func(declared int64)) (int64, error) {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, url, headers)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, ctxError(parent, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	if onStart != nil {
		onStart(resp.ContentLength)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return 0, err
	}

	var wd *watchdog
	if c.stallTimeout > 0 {
		wd = newWatchdog(c.stallTimeout, cancel)
		defer wd.Stop()
	}
	body := &kickReader{r: resp.Body, wd: wd}

	pw := &ProgressWriter{Writer: file, OnWrite: onChunk}
	_, err = io.CopyBuffer(pw, body, make([]byte, ChunkSize))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if wd != nil && wd.Fired() {
			err = fmt.Errorf("%w: no data for %s", ErrStalled, c.stallTimeout)
		} else {
			err = ctxError(parent, err)
		}
	}
	return pw.Written, err
}

// ctxError reports err as ctx's own error once ctx is done. The
// transport may surface a cancellation as its cause or as a bare
// "request canceled" instead.
func ctxError(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil || errors.Is(err, ctxErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ctxErr, err)
}

// kickReader resets the watchdog whenever data arrives. It hides any
// WriterTo of the wrapped body so io.CopyBuffer uses the chunk buffer.
type kickReader struct {
	r  io.Reader
	wd *watchdog
}

func (k *kickReader) Read(p []byte) (int, error) {
	n, err := k.r.Read(p)
	if n > 0 && k.wd != nil {
		k.wd.Kick()
	}
	return n, err
}
