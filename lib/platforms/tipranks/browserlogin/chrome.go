package browserlogin

import (
	"context"
	"net/http"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ChromeOptions struct {
	// ExecPath is the chrome binary, chromedp looks one up on the PATH when empty.
	ExecPath string
	// Headful shows the browser window, useful when debugging the sign-in page.
	Headful   bool
	UserAgent string
	// Stealth defaults to DefaultStealthOptions.
	Stealth *StealthOptions
}

type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
}

// NewChromeBrowser starts a chrome instance through chromedp with the automation
// switches removed and the stealth script installed on every new document.
func NewChromeBrowser(ctx context.Context, opts ChromeOptions) (Browser, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	stealth := DefaultStealthOptions()
	if opts.Stealth != nil {
		stealth = *opts.Stealth
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", !opts.Headful),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("enable-logging", false),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	// the browser outlives the caller's step timeouts, it is only bound to Close
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	b := &chromeBrowser{ctx: browserCtx, cancel: cancel, allocCancel: allocCancel}
	// the first run allocates the browser, it must not use a context that gets cancelled before Close
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.script()).Do(ctx)
			return err
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			return emulation.SetUserAgentOverride(opts.UserAgent).
				WithAcceptLanguage(stealth.acceptLanguage()).
				WithPlatform(stealth.Platform).
				Do(ctx)
		}),
	)
	if err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// run executes actions on the browser while honoring the deadline and cancellation of ctx.
func (b *chromeBrowser) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(b.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func queryOptions(sel Selector) (string, []chromedp.QueryOption) {
	switch sel.By {
	case ByClass:
		return "." + sel.Query, []chromedp.QueryOption{chromedp.ByQuery}
	default:
		return sel.Query, []chromedp.QueryOption{chromedp.BySearch}
	}
}

func (b *chromeBrowser) Navigate(ctx context.Context, url string) error {
	return b.run(ctx, chromedp.Navigate(url))
}

func (b *chromeBrowser) SendKeys(ctx context.Context, sel Selector, text string) error {
	query, opts := queryOptions(sel)
	return b.run(ctx,
		chromedp.WaitReady(query, opts...),
		chromedp.SendKeys(query, text, opts...),
	)
}

func (b *chromeBrowser) Click(ctx context.Context, sel Selector) error {
	query, opts := queryOptions(sel)
	return b.run(ctx,
		chromedp.WaitReady(query, opts...),
		chromedp.Click(query, opts...),
	)
}

func (b *chromeBrowser) WaitPresent(ctx context.Context, sel Selector) error {
	query, opts := queryOptions(sel)
	return b.run(ctx, chromedp.WaitReady(query, opts...))
}

func (b *chromeBrowser) Reload(ctx context.Context) error {
	return b.run(ctx, chromedp.Reload())
}

func (b *chromeBrowser) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	var cookies []*network.Cookie
	err := b.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}

	out := make([]*http.Cookie, len(cookies))
	for i, c := range cookies {
		out[i] = &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		}
	}
	return out, nil
}

func (b *chromeBrowser) HTML(ctx context.Context) (string, error) {
	var html string
	err := b.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.allocCancel()
	return err
}
