// Package browserlogin acquires a TipRanks session by signing in through a headless browser,
// the web api does not accept the credentials directly.
package browserlogin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"tipranks-client/internal/components/telemetry"
	"tipranks-client/lib/platforms/tipranks"
)

const (
	SignInUrl = "https://www.tipranks.com/sign-in?redirectTo=%2F"

	report_login_navigate      = "login.navigate"
	report_login_find_elements = "login.find-elements"
	report_login_confirm       = "login.confirm"
	report_login_cookies       = "login.cookies"
	report_login_close         = "login.close"
)

var (
	emailInput     = Selector{Query: `//input[@name='email']`, By: ByXPath}
	passwordInput  = Selector{Query: `//input[@name='password']`, By: ByXPath}
	submitButton   = Selector{Query: "client-templates-loginPage-styles__submitButton", By: ByClass}
	signedInMarker = Selector{Query: `//label[@for='popupUserBox']`, By: ByXPath}
)

const (
	reasonElementsNotFound = "failed to find login elements"
	reasonBadCredentials   = "check credentials"
	reasonBrowser          = "browser failure"
)

type By int

const (
	ByXPath By = iota
	ByClass
)

// Selector locates a single element on the page.
type Selector struct {
	Query string
	By    By
}

// Browser is the subset of browser automation the login sequence needs.
// Every blocking method must give up once ctx is done.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	// SendKeys waits for the element to be present and types text into it.
	SendKeys(ctx context.Context, sel Selector, text string) error
	// Click waits for the element to be present and clicks it.
	Click(ctx context.Context, sel Selector) error
	WaitPresent(ctx context.Context, sel Selector) error
	Reload(ctx context.Context) error
	Cookies(ctx context.Context) ([]*http.Cookie, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

type Options struct {
	// SignInUrl defaults to SignInUrl.
	SignInUrl string
	// ElementTimeout bounds the wait for each login form element, it defaults to 10 seconds.
	ElementTimeout time.Duration
	// ConfirmTimeout bounds the wait for the signed in marker, it defaults to 3 seconds.
	ConfirmTimeout time.Duration
	Chrome         ChromeOptions
	// NewBrowser defaults to NewChromeBrowser.
	NewBrowser func(ctx context.Context, opts ChromeOptions) (Browser, error)
	Tel        telemetry.API
}

func (o Options) withDefaults() Options {
	if o.SignInUrl == "" {
		o.SignInUrl = SignInUrl
	}
	if o.ElementTimeout == 0 {
		o.ElementTimeout = time.Second * 10
	}
	if o.ConfirmTimeout == 0 {
		o.ConfirmTimeout = time.Second * 3
	}
	if o.NewBrowser == nil {
		o.NewBrowser = NewChromeBrowser
	}
	return o
}

// Authenticator implements tipranks.Authenticator with a browser login, the cookies
// are attached to every request of the client afterwards.
type Authenticator struct {
	Email    string
	Password string
	Options  Options
}

func (a Authenticator) Authenticate(ctx context.Context, c *tipranks.Client) (tipranks.Session, error) {
	cookie, err := Login(ctx, a.Email, a.Password, a.Options)
	if err != nil {
		return tipranks.Session{}, err
	}
	session := tipranks.Session{Cookie: cookie}
	c.UseSession(session)
	return session, nil
}

// Login signs in and returns the browser's cookies formatted as a cookie header.
// Every failure is a *tipranks.LoginError. The browser is closed before returning.
func Login(ctx context.Context, email, password string, opts Options) (string, error) {
	opts = opts.withDefaults()
	tel := telemetry.NewScopedAPI("tipranks_browserlogin", opts.Tel)

	browser, err := opts.NewBrowser(ctx, opts.Chrome)
	if err != nil {
		err = &tipranks.LoginError{Reason: reasonBrowser, Err: err}
		tel.ReportBroken(report_login_navigate, err)
		return "", err
	}
	defer func() {
		err := browser.Close()
		if err != nil {
			tel.ReportWarning(report_login_close, err)
		}
	}()

	l := login{browser: browser, opts: opts, tel: tel}
	return l.run(ctx, email, password)
}

type login struct {
	browser Browser
	opts    Options
	tel     telemetry.API
}

func (l login) step(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(ctx)
}

func (l login) fillForm(ctx context.Context, email, password string) error {
	err := l.step(ctx, l.opts.ElementTimeout, func(ctx context.Context) error {
		return l.browser.SendKeys(ctx, emailInput, email)
	})
	if err != nil {
		return fmt.Errorf("email input: %w", err)
	}
	err = l.step(ctx, l.opts.ElementTimeout, func(ctx context.Context) error {
		return l.browser.SendKeys(ctx, passwordInput, password)
	})
	if err != nil {
		return fmt.Errorf("password input: %w", err)
	}
	err = l.step(ctx, l.opts.ElementTimeout, func(ctx context.Context) error {
		return l.browser.Click(ctx, submitButton)
	})
	if err != nil {
		return fmt.Errorf("submit button: %w", err)
	}
	return nil
}

func (l login) run(ctx context.Context, email, password string) (string, error) {
	err := l.browser.Navigate(ctx, l.opts.SignInUrl)
	if err != nil {
		err = &tipranks.LoginError{Reason: reasonBrowser, Err: fmt.Errorf("navigate: %w", err)}
		l.tel.ReportBroken(report_login_navigate, err, l.opts.SignInUrl)
		return "", err
	}

	err = l.fillForm(ctx, email, password)
	if err != nil {
		reason := reasonBrowser
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			reason = reasonElementsNotFound
		}
		err = &tipranks.LoginError{Reason: reason, Err: err}
		l.tel.ReportBroken(report_login_find_elements, err)
		return "", err
	}

	err = l.step(ctx, l.opts.ConfirmTimeout, func(ctx context.Context) error {
		return l.browser.WaitPresent(ctx, signedInMarker)
	})
	if err != nil {
		loginErr := &tipranks.LoginError{Reason: reasonBadCredentials}
		if ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded) {
			loginErr = &tipranks.LoginError{Reason: reasonBrowser, Err: err}
		} else if message := l.failureMessage(ctx); message != "" {
			loginErr.Err = errors.New(message)
		}
		l.tel.ReportBroken(report_login_confirm, loginErr, email)
		return "", loginErr
	}

	err = l.browser.Reload(ctx)
	if err != nil {
		err = &tipranks.LoginError{Reason: reasonBrowser, Err: fmt.Errorf("reload: %w", err)}
		l.tel.ReportBroken(report_login_cookies, err)
		return "", err
	}
	cookies, err := l.browser.Cookies(ctx)
	if err != nil {
		err = &tipranks.LoginError{Reason: reasonBrowser, Err: fmt.Errorf("read cookies: %w", err)}
		l.tel.ReportBroken(report_login_cookies, err)
		return "", err
	}
	if !hasCookie(cookies, tipranks.TokenCookie) {
		err := &tipranks.LoginError{Reason: reasonBadCredentials}
		l.tel.ReportBroken(report_login_cookies, err, "no token cookie", len(cookies))
		return "", err
	}

	l.tel.ReportDebug("signed in", email, len(cookies))
	return tipranks.FormatCookies(cookies), nil
}

// failureMessage is best effort, an empty string means nothing useful was found.
func (l login) failureMessage(ctx context.Context) string {
	html, err := l.browser.HTML(ctx)
	if err != nil {
		l.tel.ReportDebug("could not read sign-in page", err)
		return ""
	}
	return loginFailureMessage(html)
}

func hasCookie(cookies []*http.Cookie, name string) bool {
	for _, c := range cookies {
		if c.Name == name {
			return true
		}
	}
	return false
}
