// Package portal is the HTTP session used against the bank's web portal.
// Every request shares one cookie jar, so a Client must not be used
// concurrently for stateful workflows.
package portal

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/text/encoding/charmap"
)

// Doer performs one request against the portal.
type Doer interface {
	Do(ctx context.Context, method, path string, form url.Values) (*Response, error)
}

// Response is a fully read portal response.
type Response struct {
	StatusCode int
	URL        *url.URL
	Body       []byte
}

// Text decodes the body from the portal's single-byte encoding.
func (r *Response) Text() (string, error) {
	return DecodeLatin1(r.Body)
}

// Document parses the decoded body as HTML.
func (r *Response) Document() (*goquery.Document, error) {
	text, err := r.Text()
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("Document: parsing HTML: %w", err)
	}
	doc.Url = r.URL
	return doc, nil
}

// DecodeLatin1 decodes ISO-8859-1 bytes into a UTF-8 string.
func DecodeLatin1(b []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("DecodeLatin1: %w", err)
	}
	return string(out), nil
}

// Client is a cookie-carrying HTTP session rooted at the portal base URL.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient creates a session with an empty cookie jar.
func NewClient(baseURL string) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("NewClient: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("NewClient: %w: base URL %q must be absolute", apperrors.ErrValidation, baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("NewClient: creating cookie jar: %w", err)
	}

	return &Client{
		baseURL: u,
		http:    &http.Client{Jar: jar},
	}, nil
}

// Resolve turns a portal path (or absolute URL) into an absolute URL.
func (c *Client) Resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("Resolve: invalid path %q: %w", path, err)
	}
	return c.baseURL.ResolveReference(ref), nil
}

// Do sends one request. POST sends form url-encoded, other methods append it
// to the query string. Non-2xx responses are returned, not turned into errors.
func (c *Client) Do(ctx context.Context, method, path string, form url.Values) (*Response, error) {
	u, err := c.Resolve(path)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(form.Encode())
	} else if len(form) > 0 {
		q := u.Query()
		for k, vs := range form {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("Do: building request: %w", err)
	}
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ClassifyRequestError(method, u.String(), err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, ClassifyRequestError(method, u.String(), err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		URL:        resp.Request.URL,
		Body:       buf.Bytes(),
	}, nil
}

// GetDocument fetches and parses an HTML page.
func (c *Client) GetDocument(ctx context.Context, path string) (*goquery.Document, error) {
	return FetchDocument(ctx, c, path)
}

// FetchDocument GETs path through d and parses it. Any status other than 200
// is a transport error.
func FetchDocument(ctx context.Context, d Doer, path string) (*goquery.Document, error) {
	resp, err := d.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apperrors.TransportError{Op: http.MethodGet, URL: path, StatusCode: resp.StatusCode}
	}
	return resp.Document()
}
