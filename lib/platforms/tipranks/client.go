package tipranks

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"
	"tipranks-client/internal/components/chrono"
	"tipranks-client/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// MobileBaseUrl serves the api used by the mobile app, direct login works against it.
	MobileBaseUrl = "https://mobile.tipranks.com"
	// WebBaseUrl serves the api used by the website, it expects the cookies of a browser login.
	WebBaseUrl = "https://www.tipranks.com"

	report_client_new          = "client.new"
	report_client_authenticate = "client.authenticate"
	report_client_direct_login = "client.direct-login"
	report_client_request      = "client.request"
	report_client_decode       = "client.decode"
)

var defaultHeaders = map[string]string{
	"accept":          "application/json,text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"content-type":    "application/json; charset=UTF-8",
	"x-platform":      "iphone",
	"user-agent":      "TipRanksApp/17 CFNetwork/1390 Darwin/22.0.0",
	"accept-language": "en-US,en;q=0.9",
}

// Authenticator acquires the session a Client attaches to its requests.
type Authenticator interface {
	Authenticate(ctx context.Context, c *Client) (Session, error)
}

type ClientOptions struct {
	// BaseUrl defaults to MobileBaseUrl.
	BaseUrl       string
	Authenticator Authenticator
	// Timeout applies to each request, it defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond defaults to 2, a negative value disables rate limiting.
	RequestsPerSecond float64
	// DisableCloudflareBypass leaves the default transport untouched.
	DisableCloudflareBypass bool

	Time chrono.API
	Tel  telemetry.API
	// MessageOutput receives a dump of every request/response pair when set.
	MessageOutput telemetry.MessageOutput
}

// Client exposes the read-only endpoints of TipRanks, it authenticates once when
// it is created and reuses that session for every call.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	session Session
	time    chrono.API
	tel     telemetry.API
}

// NewClient creates a client and authenticates it with opts.Authenticator.
func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	c, err := newUnauthenticatedClient(opts)
	if err != nil {
		return nil, err
	}

	if opts.Authenticator == nil {
		err := &LoginError{Reason: "no authenticator configured"}
		c.tel.ReportBroken(report_client_authenticate, err)
		return nil, err
	}
	session, err := opts.Authenticator.Authenticate(ctx, c)
	if err != nil {
		c.tel.ReportBroken(report_client_authenticate, err)
		return nil, err
	}
	c.session = session

	return c, nil
}

func newUnauthenticatedClient(opts ClientOptions) (*Client, error) {
	tel := telemetry.NewScopedAPI("tipranks_client", opts.Tel)

	if opts.BaseUrl == "" {
		opts.BaseUrl = MobileBaseUrl
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Time == nil {
		opts.Time = chrono.NewStandardImpl()
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		tel.ReportBroken(report_client_new, fmt.Errorf("parse base url: %w", err), opts.BaseUrl)
		return nil, err
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		tel.ReportBroken(report_client_new, fmt.Errorf("create cookie jar: %w", err))
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if !opts.DisableCloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}
	httpClient.SetHeaders(defaultHeaders)
	httpClient.SetTimeout(opts.Timeout)

	if opts.RequestsPerSecond > 0 {
		// max burst >= rate just means that no requests will be dropped
		rateLimiter := rate.NewLimiter(
			rate.Limit(opts.RequestsPerSecond),
			int(math.Max(1, math.Ceil(opts.RequestsPerSecond))),
		)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel, opts.MessageOutput)

	return &Client{
		BaseUrl: baseUrl,
		Http:    httpClient,
		time:    opts.Time,
		tel:     tel,
	}, nil
}

// Session returns the session acquired when the client was created.
func (c *Client) Session() Session {
	return c.session
}

// UseSession attaches the cookie string of a session to every following request.
func (c *Client) UseSession(s Session) {
	c.Http.SetHeader("cookie", s.Cookie)
	c.session = s
}

// jarSession renders the cookies the jar holds for the base url.
func (c *Client) jarSession() Session {
	jar := c.Http.GetClient().Jar
	if jar == nil {
		return Session{}
	}
	return Session{Cookie: FormatCookies(jar.Cookies(c.BaseUrl))}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) loginDirect(ctx context.Context, email, password string) (Session, error) {
	res, err := c.do(ctx, http.MethodPost, "/api/iOS/login2", nil, loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return Session{}, err
	}

	if res.StatusCode() != http.StatusOK {
		err := &LoginError{StatusCode: res.StatusCode()}
		c.tel.ReportBroken(report_client_direct_login, err, email)
		return Session{}, err
	}

	return c.jarSession(), nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, body any) (*resty.Response, error) {
	req := c.Http.R().SetContext(ctx)
	if params != nil {
		req.SetQueryParamsFromValues(params)
	}
	if body != nil {
		req.SetBody(body)
	}

	res, err := req.Execute(method, endpoint)
	if err != nil {
		err = &RequestError{Method: method, Endpoint: endpoint, Err: err}
		c.tel.ReportBroken(report_client_request, err)
		return nil, err
	}
	return res, nil
}

// getJSON performs a GET and passes the decoded body through untouched.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values) (any, error) {
	res, err := c.do(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		return nil, err
	}

	var body any
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		err = &RequestError{
			Method:   http.MethodGet,
			Endpoint: endpoint,
			Err:      fmt.Errorf("decode response (status %d): %w", res.StatusCode(), err),
		}
		c.tel.ReportBroken(report_client_decode, err)
		return nil, err
	}
	return body, nil
}

// cacheBreak is the value of the `break` query parameter the service uses to bust caches.
func (c *Client) cacheBreak() string {
	return strconv.FormatInt(c.time.Now().Unix(), 10)
}
