package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
)

// SigninOptions describes a form based login.
type SigninOptions struct {
	// Path of the page that carries the login form.
	Path string
	// FormSelector locates the login form on that page.
	FormSelector string
	// Credentials override the form's own input values.
	Credentials map[string]string
	// Validate inspects the post-login response. A nil Validate accepts any 200.
	Validate func(statusCode int, doc *goquery.Document) bool
}

// Signin loads the login page, submits the form with the credentials merged
// over the form's own fields and validates the resulting page. Cookies set
// along the way stay in the session.
func (c *Client) Signin(ctx context.Context, opts SigninOptions) (*goquery.Document, error) {
	page, err := c.Do(ctx, http.MethodGet, opts.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("Signin: loading login page: %w", err)
	}
	if page.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Signin: loading login page: %w",
			&apperrors.TransportError{Op: http.MethodGet, URL: opts.Path, StatusCode: page.StatusCode})
	}

	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("Signin: %w", err)
	}

	form := doc.Find(opts.FormSelector).First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("Signin: %w: login form %q not found", apperrors.ErrAuthentication, opts.FormSelector)
	}

	values := FormValues(form)
	for k, v := range opts.Credentials {
		values.Set(k, v)
	}

	action, _ := form.Attr("action")
	target := page.URL
	if action != "" {
		ref, err := url.Parse(action)
		if err != nil {
			return nil, fmt.Errorf("Signin: invalid form action %q: %w", action, err)
		}
		target = page.URL.ResolveReference(ref)
	}

	method := strings.ToUpper(strings.TrimSpace(form.AttrOr("method", http.MethodPost)))
	if method != http.MethodGet {
		method = http.MethodPost
	}

	resp, err := c.Do(ctx, method, target.String(), values)
	if err != nil {
		return nil, fmt.Errorf("Signin: submitting credentials: %w", err)
	}

	result, err := resp.Document()
	if err != nil {
		return nil, fmt.Errorf("Signin: %w", err)
	}

	ok := resp.StatusCode == http.StatusOK
	if opts.Validate != nil {
		ok = opts.Validate(resp.StatusCode, result)
	}
	if !ok {
		return nil, fmt.Errorf("Signin: %w: post-login page rejected (status %d)", apperrors.ErrAuthentication, resp.StatusCode)
	}

	return result, nil
}

// FormValues collects the submittable fields of a form: named inputs except
// buttons and unchecked boxes, selects and textareas.
func FormValues(form *goquery.Selection) url.Values {
	values := url.Values{}

	form.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		name, _ := in.Attr("name")
		switch strings.ToLower(in.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := in.Attr("checked"); !checked {
				return
			}
			values.Add(name, in.AttrOr("value", "on"))
			return
		}
		values.Add(name, in.AttrOr("value", ""))
	})

	form.Find("select[name]").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		opt := sel.Find("option[selected]").First()
		if opt.Length() == 0 {
			opt = sel.Find("option").First()
		}
		if opt.Length() == 0 {
			return
		}
		values.Add(name, opt.AttrOr("value", strings.TrimSpace(opt.Text())))
	})

	form.Find("textarea[name]").Each(func(_ int, ta *goquery.Selection) {
		name, _ := ta.Attr("name")
		values.Add(name, ta.Text())
	})

	return values
}
