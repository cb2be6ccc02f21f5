package shiptheory

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

const (
	redactedValue = "REDACTED"
	// maxRenderedBodyBytes caps the body text placed in a log line. The
	// message body itself is never truncated.
	maxRenderedBodyBytes = 64 << 10
)

// RenderRequest renders req as an HTTP/1.x message for diagnostic logs with
// the Authorization header redacted. req.Body is left readable from the
// start.
func RenderRequest(req *http.Request) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s %s\r\n", req.Method, requestTarget(req), protoString(req.ProtoMajor, req.ProtoMinor))

	header := req.Header
	if host := requestHost(req); host != "" && header.Get("Host") == "" {
		header = cloneHeaders(req.Header)
		header.Set("Host", host)
	}
	writeHeaders(&sb, header)

	body, err := peekRequestBody(req)
	if err != nil {
		return "", fmt.Errorf("render request body: %w", err)
	}
	writeBody(&sb, body)
	return trimTrailingSpace(sb.String()), nil
}

// RenderResponse renders resp like RenderRequest. resp.Body is replaced by
// an equivalent reader positioned at the start; only the rendered prefix
// is buffered.
func RenderResponse(resp *http.Response) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %d %s\r\n", protoString(resp.ProtoMajor, resp.ProtoMinor), resp.StatusCode, reasonPhrase(resp))
	writeHeaders(&sb, resp.Header)

	body, err := peekResponseBody(resp)
	if err != nil {
		return "", fmt.Errorf("render response body: %w", err)
	}
	writeBody(&sb, body)
	return trimTrailingSpace(sb.String()), nil
}

func writeHeaders(sb *strings.Builder, header http.Header) {
	keys := make([]string, 0, len(header))
	for key := range header {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if isRedactedHeader(key) {
			fmt.Fprintf(sb, "%s: %s\r\n", key, redactedValue)
			continue
		}
		fmt.Fprintf(sb, "%s: %s\r\n", key, strings.Join(header[key], ", "))
	}
	sb.WriteString("\r\n")
}

func writeBody(sb *strings.Builder, body []byte) {
	buf := &limitedBuffer{limit: maxRenderedBodyBytes}
	_, _ = buf.Write(body)
	sb.WriteString(buf.String())
	if buf.Truncated {
		sb.WriteString(" ... (truncated)")
	}
}

func isRedactedHeader(key string) bool {
	return strings.EqualFold(key, "Authorization") || strings.EqualFold(key, "Proxy-Authorization")
}

// peekRequestBody returns the request body, preferring GetBody so req.Body
// is untouched.
func peekRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	data, err := io.ReadAll(req.Body)
	closeErr := req.Body.Close()
	req.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return data, nil
}

// peekResponseBody reads at most one byte past the render limit and puts
// it back in front of whatever is still unread.
func peekResponseBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, nil
	}
	head, err := io.ReadAll(io.LimitReader(resp.Body, maxRenderedBodyBytes+1))
	// Keep the original closer so the connection is still released by the
	// caller's Close.
	resp.Body = &replayBody{
		Reader: io.MultiReader(bytes.NewReader(head), resp.Body),
		closer: resp.Body,
	}
	if err != nil {
		return nil, err
	}
	return head, nil
}

type replayBody struct {
	io.Reader
	closer io.Closer
}

func (b *replayBody) Close() error {
	return b.closer.Close()
}

func requestTarget(req *http.Request) string {
	if req.URL == nil {
		return "/"
	}
	return req.URL.RequestURI()
}

func requestHost(req *http.Request) string {
	if req.Host != "" {
		return req.Host
	}
	if req.URL != nil {
		return req.URL.Host
	}
	return ""
}

func protoString(major, minor int) string {
	if major == 0 && minor == 0 {
		major, minor = 1, 1
	}
	return fmt.Sprintf("HTTP/%d.%d", major, minor)
}

func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}

func trimTrailingSpace(s string) string {
	return strings.TrimRight(s, " \t\r\n")
}

type limitedBuffer struct {
	buf       bytes.Buffer
	limit     int
	Truncated bool
}

func (lb *limitedBuffer) Write(p []byte) (int, error) {
	if lb.limit <= 0 {
		return len(p), nil
	}
	remain := lb.limit - lb.buf.Len()
	if remain > 0 {
		if len(p) <= remain {
			_, _ = lb.buf.Write(p)
		} else {
			_, _ = lb.buf.Write(p[:remain])
			lb.Truncated = true
		}
	} else if len(p) > 0 {
		lb.Truncated = true
	}
	return len(p), nil
}

func (lb *limitedBuffer) String() string {
	return lb.buf.String()
}

func cloneHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(src)+1)
	for k, vals := range src {
		dst[k] = append([]string(nil), vals...)
	}
	return dst
}
