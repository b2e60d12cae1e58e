package browserlogin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"tipranks-client/internal/components/telemetry"
	"tipranks-client/lib/platforms/tipranks"

	"github.com/stretchr/testify/require"
)

// fakeBrowser behaves like the sign-in page, elements listed in missing never appear.
type fakeBrowser struct {
	missing    map[string]bool
	cookies    []*http.Cookie
	html       string
	navigateTo string
	typed      map[string]string
	clicked    []string
	reloaded   bool
	closed     bool
	failWith   error
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		missing: map[string]bool{},
		typed:   map[string]string{},
		cookies: []*http.Cookie{
			{Name: "token", Value: "eyJ0eXAi"},
			{Name: "tr_uid", Value: "42"},
		},
	}
}

func (b *fakeBrowser) wait(ctx context.Context, sel Selector) error {
	if b.failWith != nil {
		return b.failWith
	}
	if b.missing[sel.Query] {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (b *fakeBrowser) Navigate(_ context.Context, url string) error {
	b.navigateTo = url
	return nil
}

func (b *fakeBrowser) SendKeys(ctx context.Context, sel Selector, text string) error {
	err := b.wait(ctx, sel)
	if err != nil {
		return err
	}
	b.typed[sel.Query] = text
	return nil
}

func (b *fakeBrowser) Click(ctx context.Context, sel Selector) error {
	err := b.wait(ctx, sel)
	if err != nil {
		return err
	}
	b.clicked = append(b.clicked, sel.Query)
	return nil
}

func (b *fakeBrowser) WaitPresent(ctx context.Context, sel Selector) error {
	return b.wait(ctx, sel)
}

func (b *fakeBrowser) Reload(context.Context) error {
	b.reloaded = true
	return nil
}

func (b *fakeBrowser) Cookies(context.Context) ([]*http.Cookie, error) {
	return b.cookies, nil
}

func (b *fakeBrowser) HTML(context.Context) (string, error) {
	return b.html, nil
}

func (b *fakeBrowser) Close() error {
	b.closed = true
	return nil
}

func testOptions(browser *fakeBrowser, tel telemetry.API) Options {
	return Options{
		ElementTimeout: time.Millisecond * 50,
		ConfirmTimeout: time.Millisecond * 50,
		NewBrowser: func(context.Context, ChromeOptions) (Browser, error) {
			return browser, nil
		},
		Tel: tel,
	}
}

func TestLogin(t *testing.T) {
	browser := newFakeBrowser()

	cookie, err := Login(context.Background(), "investor@example.com", "hunter2", testOptions(browser, nil))
	require.NoError(t, err)
	require.Equal(t, "token=eyJ0eXAi; tr_uid=42", cookie)

	require.Equal(t, SignInUrl, browser.navigateTo)
	require.Equal(t, "investor@example.com", browser.typed[emailInput.Query])
	require.Equal(t, "hunter2", browser.typed[passwordInput.Query])
	require.Equal(t, []string{submitButton.Query}, browser.clicked)
	require.True(t, browser.reloaded)
	require.True(t, browser.closed)
}

func TestLoginMissingElements(t *testing.T) {
	for _, sel := range []Selector{emailInput, passwordInput, submitButton} {
		browser := newFakeBrowser()
		browser.missing[sel.Query] = true
		tel := telemetry.NewRecordingAPI()

		_, err := Login(context.Background(), "a", "b", testOptions(browser, tel))
		require.ErrorIs(t, err, tipranks.ErrLogin)

		var loginErr *tipranks.LoginError
		require.ErrorAs(t, err, &loginErr)
		require.Equal(t, "failed to find login elements", loginErr.Reason)
		require.Equal(t, 1, strings.Count(err.Error(), "failed to"), err.Error())
		require.True(t, browser.closed)
		require.False(t, browser.reloaded)
		require.True(t, tel.HasBroken(report_login_find_elements))
	}
}

func TestLoginBadCredentials(t *testing.T) {
	browser := newFakeBrowser()
	browser.missing[signedInMarker.Query] = true
	browser.html = `<html><body><form>
		<div class="client-templates-loginPage-styles__errorMessage">
			Incorrect   email or password
		</div>
	</form></body></html>`

	_, err := Login(context.Background(), "a", "b", testOptions(browser, nil))
	require.ErrorIs(t, err, tipranks.ErrLogin)

	var loginErr *tipranks.LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, "check credentials", loginErr.Reason)
	require.Contains(t, err.Error(), "Incorrect email or password")
	require.True(t, browser.closed)
}

func TestLoginMissingTokenCookie(t *testing.T) {
	browser := newFakeBrowser()
	browser.cookies = []*http.Cookie{{Name: "tr_uid", Value: "42"}}

	_, err := Login(context.Background(), "a", "b", testOptions(browser, nil))
	require.ErrorIs(t, err, tipranks.ErrLogin)
	require.Contains(t, err.Error(), "check credentials")
	require.True(t, browser.reloaded)
	require.True(t, browser.closed)
}

func TestLoginBrowserFailure(t *testing.T) {
	browser := newFakeBrowser()
	browser.failWith = errors.New("websocket closed")

	_, err := Login(context.Background(), "a", "b", testOptions(browser, nil))
	require.ErrorIs(t, err, tipranks.ErrLogin)

	var loginErr *tipranks.LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, "browser failure", loginErr.Reason)
	require.True(t, browser.closed)
}

func TestLoginBrowserStartFailure(t *testing.T) {
	opts := Options{
		NewBrowser: func(context.Context, ChromeOptions) (Browser, error) {
			return nil, errors.New("chrome not found")
		},
	}
	_, err := Login(context.Background(), "a", "b", opts)
	require.ErrorIs(t, err, tipranks.ErrLogin)
	require.Contains(t, err.Error(), "chrome not found")
}

func TestLoginCancelled(t *testing.T) {
	browser := newFakeBrowser()
	browser.missing[emailInput.Query] = true

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Login(ctx, "a", "b", testOptions(browser, nil))
	require.ErrorIs(t, err, tipranks.ErrLogin)
	require.ErrorIs(t, err, context.Canceled)

	var loginErr *tipranks.LoginError
	require.ErrorAs(t, err, &loginErr)
	require.Equal(t, "browser failure", loginErr.Reason)
}

func TestAuthenticatorAttachesCookies(t *testing.T) {
	var gotCookie string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("cookie")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	browser := newFakeBrowser()
	client, err := tipranks.NewClient(context.Background(), tipranks.ClientOptions{
		BaseUrl:                 server.URL,
		RequestsPerSecond:       -1,
		DisableCloudflareBypass: true,
		Authenticator: Authenticator{
			Email:    "a",
			Password: "b",
			Options:  testOptions(browser, nil),
		},
	})
	require.NoError(t, err)
	require.Equal(t, "token=eyJ0eXAi; tr_uid=42", client.Session().Cookie)

	_, err = client.TrendingStocks(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token=eyJ0eXAi; tr_uid=42", gotCookie)
}

func TestLoginFailureMessage(t *testing.T) {
	require.Equal(t, "", loginFailureMessage(`<html><body><p>hello</p></body></html>`))
	require.Equal(t, "Too many attempts", loginFailureMessage(
		`<div role="alert"> </div><div role="alert">Too many attempts</div>`,
	))
}

func TestStealthScript(t *testing.T) {
	script := DefaultStealthOptions().script()
	require.Contains(t, script, `["en-US","en"]`)
	require.Contains(t, script, `"Google Inc."`)
	require.Contains(t, script, `"Win32"`)
	require.Contains(t, script, `"Intel Inc."`)
	require.Contains(t, script, `"Intel Iris OpenGL Engine"`)
	require.False(t, strings.Contains(script, "%!"))
	require.Equal(t, "en-US,en", DefaultStealthOptions().acceptLanguage())
}
