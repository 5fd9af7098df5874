package portal

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/dvloznov/bank-portal-sync/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginPage = `<html><body>
<form name="acces_identification" action="/checkacces" method="post">
  <input type="hidden" name="token" value="abc">
  <input type="text" name="login" value="">
  <input type="password" name="passwd" value="">
  <input type="checkbox" name="remember">
  <input type="submit" name="go" value="Valider">
</form>
</body></html>`

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(loginPage))
	})
	mux.HandleFunc("/checkacces", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("token") != "abc" || r.PostForm.Get("remember") != "" || r.PostForm.Get("go") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("login") != "jdoe" || r.PostForm.Get("passwd") != "secret" {
			_, _ = w.Write([]byte(`<html><body><p class="erreur">Identifiants invalides</p></body></html>`))
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "SESSION", Value: "s1", Path: "/"})
		_, _ = w.Write([]byte(`<html><body><a href="/logoff">Quitter</a></body></html>`))
	})
	mux.HandleFunc("/private", func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("SESSION"); err != nil || c.Value != "s1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		// "Opération" in ISO-8859-1.
		_, _ = w.Write([]byte("<html><body><h1>Op\xe9ration</h1></body></html>"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func loggedIn(_ int, doc *goquery.Document) bool {
	return doc.Find(`a[href="/logoff"]`).Length() > 0
}

func TestNewClient_RejectsRelativeBaseURL(t *testing.T) {
	_, err := NewClient("/relative")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSignin_KeepsSessionCookies(t *testing.T) {
	srv := newPortal(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Signin(ctx, SigninOptions{
		Path:         "/login",
		FormSelector: `form[name="acces_identification"]`,
		Credentials:  map[string]string{"login": "jdoe", "passwd": "secret"},
		Validate:     loggedIn,
	})
	require.NoError(t, err)

	doc, err := c.GetDocument(ctx, "/private")
	require.NoError(t, err)
	assert.Equal(t, "Opération", doc.Find("h1").Text())
}

func TestSignin_RejectedCredentials(t *testing.T) {
	srv := newPortal(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Signin(context.Background(), SigninOptions{
		Path:         "/login",
		FormSelector: `form[name="acces_identification"]`,
		Credentials:  map[string]string{"login": "jdoe", "passwd": "wrong"},
		Validate:     loggedIn,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestSignin_MissingForm(t *testing.T) {
	srv := newPortal(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.Signin(context.Background(), SigninOptions{
		Path:         "/login",
		FormSelector: `form[name="nope"]`,
	})
	assert.ErrorIs(t, err, apperrors.ErrAuthentication)
}

func TestGetDocument_NonOKStatus(t *testing.T) {
	srv := newPortal(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.GetDocument(context.Background(), "/private")
	require.Error(t, err)

	var te *apperrors.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusForbidden, te.StatusCode)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestDo_PostsForm(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		got = r.PostForm
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), http.MethodPost, "/x", url.Values{"a": {"1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "1", got.Get("a"))
}

func TestDo_ConnectionFailureIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := NewClient(base)
	require.NoError(t, err)

	_, err = c.Do(context.Background(), http.MethodGet, "/", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrTransport)
}

func TestClassifyRequestError(t *testing.T) {
	assert.NoError(t, ClassifyRequestError("GET", "/", nil))

	cause := errors.New("boom")
	err := ClassifyRequestError("GET", "/x", &url.Error{Op: "Get", URL: "/x", Err: cause})
	var te *apperrors.TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, cause, te.Err)
	assert.Equal(t, "/x", te.URL)

	again := ClassifyRequestError("POST", "/y", err)
	assert.Same(t, err, again)
}

func TestDecodeLatin1(t *testing.T) {
	got, err := DecodeLatin1([]byte("d\xe9bit \xe0 cr\xe9dit"))
	require.NoError(t, err)
	assert.Equal(t, "débit à crédit", got)
}
