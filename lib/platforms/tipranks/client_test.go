package tipranks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
	"tipranks-client/internal/components/chrono"
	"tipranks-client/internal/components/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type fakeTipranks struct {
	server *httptest.Server

	mutex    sync.Mutex
	requests []recordedRequest

	loginStatus int
	body        string
}

func newFakeTipranks(t *testing.T) *fakeTipranks {
	f := &fakeTipranks{
		loginStatus: http.StatusOK,
		body:        `[{"ticker":"AAPL","consensus":"StrongBuy"}]`,
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTipranks) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mutex.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	loginStatus := f.loginStatus
	responseBody := f.body
	f.mutex.Unlock()

	if r.URL.Path == "/api/iOS/login2" {
		if loginStatus == http.StatusOK {
			http.SetCookie(w, &http.Cookie{Name: "tr_session", Value: "abc123", Path: "/"})
		}
		w.WriteHeader(loginStatus)
		return
	}

	w.Header().Set("content-type", "application/json")
	w.Write([]byte(responseBody))
}

func (f *fakeTipranks) last() recordedRequest {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeTipranks) count() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.requests)
}

func newTestClient(t *testing.T, baseUrl string, auth Authenticator, tel telemetry.API) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	return NewClient(ctx, ClientOptions{
		BaseUrl:                 baseUrl,
		Authenticator:           auth,
		RequestsPerSecond:       -1,
		DisableCloudflareBypass: true,
		Time:                    chrono.FixedImpl{Time: testNow},
		Tel:                     tel,
	})
}

func TestDirectLogin(t *testing.T) {
	fake := newFakeTipranks(t)

	client, err := newTestClient(t, fake.server.URL, DirectLogin{
		Email:    "investor@example.com",
		Password: "hunter2",
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "tr_session=abc123", client.Session().Cookie)

	login := fake.last()
	require.Equal(t, http.MethodPost, login.Method)
	require.Equal(t, "/api/iOS/login2", login.Path)
	require.Equal(t, "iphone", login.Header.Get("x-platform"))
	require.Equal(t, "TipRanksApp/17 CFNetwork/1390 Darwin/22.0.0", login.Header.Get("user-agent"))

	var sent loginRequest
	require.NoError(t, json.Unmarshal(login.Body, &sent))
	require.Equal(t, loginRequest{Email: "investor@example.com", Password: "hunter2"}, sent)

	_, err = client.TrendingStocks(context.Background())
	require.NoError(t, err)
	cookie, err := (&http.Request{Header: fake.last().Header}).Cookie("tr_session")
	require.NoError(t, err)
	require.Equal(t, "abc123", cookie.Value)
}

func TestMobileHeaders(t *testing.T) {
	for _, bypass := range []bool{true, false} {
		t.Run(fmt.Sprintf("cloudflare bypass %v", bypass), func(t *testing.T) {
			fake := newFakeTipranks(t)
			ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
			defer cancel()

			client, err := NewClient(ctx, ClientOptions{
				BaseUrl:                 fake.server.URL,
				Authenticator:           DirectLogin{Email: "investor@example.com", Password: "hunter2"},
				RequestsPerSecond:       -1,
				DisableCloudflareBypass: !bypass,
				Time:                    chrono.FixedImpl{Time: testNow},
			})
			require.NoError(t, err)
			login := fake.last()

			_, err = client.TrendingStocks(ctx)
			require.NoError(t, err)

			for _, sent := range []recordedRequest{login, fake.last()} {
				for name, value := range defaultHeaders {
					require.Equal(t, value, sent.Header.Get(name), "%s %s", sent.Path, name)
				}
				require.Contains(t, sent.Header.Get("Accept-Encoding"), "gzip", sent.Path)
			}
		})
	}
}

func TestDirectLoginBadStatus(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError, http.StatusCreated} {
		fake := newFakeTipranks(t)
		fake.loginStatus = status
		tel := telemetry.NewRecordingAPI()

		client, err := newTestClient(t, fake.server.URL, DirectLogin{Email: "a", Password: "b"}, tel)
		require.Nil(t, client)
		require.ErrorIs(t, err, ErrLogin)

		var loginErr *LoginError
		require.ErrorAs(t, err, &loginErr)
		require.Equal(t, status, loginErr.StatusCode)
		require.Contains(t, err.Error(), "status code")
		require.True(t, tel.HasBroken("client.direct-login"))
	}
}

func TestRequestFailureIsWrapped(t *testing.T) {
	fake := newFakeTipranks(t)
	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=x"}, nil)
	require.NoError(t, err)

	fake.server.Close()

	_, err = client.TopAnalystStocks(context.Background())
	require.ErrorIs(t, err, ErrRequest)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, "/api/stocks/getMostRecommendedStocks/", reqErr.Endpoint)
	require.Equal(t, http.MethodGet, reqErr.Method)
}

func TestDirectLoginUnreachable(t *testing.T) {
	fake := newFakeTipranks(t)
	fake.server.Close()

	_, err := newTestClient(t, fake.server.URL, DirectLogin{Email: "a", Password: "b"}, nil)
	require.ErrorIs(t, err, ErrRequest)
	require.NotErrorIs(t, err, ErrLogin)
}

func TestCancelledContextIsRequestError(t *testing.T) {
	fake := newFakeTipranks(t)
	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=x"}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.NewsSentiment(ctx, "AAPL")
	require.ErrorIs(t, err, ErrRequest)
	require.ErrorIs(t, err, context.Canceled)
}

func TestUndecodableBodyIsRequestError(t *testing.T) {
	fake := newFakeTipranks(t)
	fake.body = "<html>maintenance</html>"
	tel := telemetry.NewRecordingAPI()

	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=x"}, tel)
	require.NoError(t, err)

	_, err = client.StockScreener(context.Background())
	require.ErrorIs(t, err, ErrRequest)
	require.True(t, tel.HasBroken("client.decode"))
}

func TestCookieLogin(t *testing.T) {
	fake := newFakeTipranks(t)

	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=eyJ; other=1"}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, fake.count())

	_, err = client.TopOnlineGrowthStocks(context.Background())
	require.NoError(t, err)
	require.Equal(t, "token=eyJ; other=1", fake.last().Header.Get("cookie"))
}

func TestCookieLoginEmpty(t *testing.T) {
	fake := newFakeTipranks(t)
	_, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "  "}, nil)
	require.ErrorIs(t, err, ErrLogin)
}

func TestNoAuthenticator(t *testing.T) {
	fake := newFakeTipranks(t)
	_, err := newTestClient(t, fake.server.URL, nil, nil)
	require.ErrorIs(t, err, ErrLogin)
}

func TestResponsePassThrough(t *testing.T) {
	fake := newFakeTipranks(t)
	fake.body = `{"data":[{"ticker":"MSFT","score":10}],"extra":null}`

	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=x"}, nil)
	require.NoError(t, err)

	body, err := client.TopSmartScoreStocks(context.Background())
	require.NoError(t, err)

	expected := map[string]any{
		"data": []any{
			map[string]any{"ticker": "MSFT", "score": float64(10)},
		},
		"extra": nil,
	}
	if diff := cmp.Diff(expected, body); diff != "" {
		t.Fatalf("unexpected body (-want +got):\n%s", diff)
	}
}

func TestEndpoints(t *testing.T) {
	breakValue := "1709640000"

	testCases := []struct {
		name   string
		call   func(c *Client, ctx context.Context) (any, error)
		path   string
		params url.Values
	}{
		{
			name: "top analyst stocks",
			call: (*Client).TopAnalystStocks,
			path: "/api/stocks/getMostRecommendedStocks/",
			params: url.Values{
				"benchmark": {"1"}, "period": {"3"}, "country": {"US"}, "break": {breakValue},
			},
		},
		{
			name: "top smart score stocks",
			call: (*Client).TopSmartScoreStocks,
			path: "/api/Screener/GetStocks/",
			params: url.Values{
				"break": {breakValue}, "country": {"US"}, "page": {"1"},
				"sortBy": {"1"}, "sortDir": {"2"}, "tipranksScore": {"5"},
			},
		},
		{
			name: "top insider stocks",
			call: (*Client).TopInsiderStocks,
			path: "/api/insiders/getTrendingStocks/",
			params: url.Values{
				"benchmark": {"1"}, "period": {"3"}, "country": {"US"}, "break": {breakValue},
			},
		},
		{
			name: "stock screener",
			call: (*Client).StockScreener,
			path: "/api/Screener/GetStocks/",
			params: url.Values{
				"break": {breakValue}, "country": {"US"}, "page": {"1"},
				"sortBy": {"1"}, "sortDir": {"2"},
			},
		},
		{
			name:   "top online growth stocks",
			call:   (*Client).TopOnlineGrowthStocks,
			path:   "/api/websiteTraffic/screener",
			params: url.Values{"country": {"us"}},
		},
		{
			name: "trending stocks",
			call: (*Client).TrendingStocks,
			path: "/api/stocks/gettrendingstocks/",
			params: url.Values{
				"daysago": {"30"}, "which": {"most"}, "country": {"us"}, "break": {breakValue},
			},
		},
		{
			name: "top experts analyst",
			call: func(c *Client, ctx context.Context) (any, error) {
				return c.TopExperts(ctx, "analyst")
			},
			path: "/api/experts/GetTop25Experts/",
			params: url.Values{
				"expertType": {"analyst"}, "numExperts": {"100"}, "period": {"year"}, "benchmark": {"none"},
			},
		},
		{
			name: "top experts blogger",
			call: func(c *Client, ctx context.Context) (any, error) {
				return c.TopExperts(ctx, "blogger")
			},
			path:   "/api/experts/GetTop25Experts/",
			params: url.Values{"expertType": {"blogger"}, "numExperts": {"100"}},
		},
		{
			name: "analyst projection",
			call: func(c *Client, ctx context.Context) (any, error) {
				return c.AnalystProjection(ctx, "AAPL")
			},
			path:   "/api/compare/analystRatings/tickers/",
			params: url.Values{"tickers": {"aapl"}},
		},
		{
			name: "news sentiment",
			call: func(c *Client, ctx context.Context) (any, error) {
				return c.NewsSentiment(ctx, "AAPL")
			},
			path:   "/api/stocks/getNews/",
			params: url.Values{"ticker": {"AAPL"}},
		},
	}

	fake := newFakeTipranks(t)
	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=x"}, nil)
	require.NoError(t, err)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := tc.call(client, context.Background())
			require.NoError(t, err)
			require.NotNil(t, body)

			req := fake.last()
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, tc.path, req.Path)
			if diff := cmp.Diff(tc.params, req.Query); diff != "" {
				t.Fatalf("unexpected query (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTopExpertsInvalidType(t *testing.T) {
	fake := newFakeTipranks(t)
	client, err := newTestClient(t, fake.server.URL, CookieLogin{Cookie: "token=x"}, nil)
	require.NoError(t, err)

	for _, value := range []string{"hedgefund", "Analyst", "", " user"} {
		_, err := client.TopExperts(context.Background(), value)
		require.ErrorIs(t, err, ErrArgument)

		var argErr *ArgumentError
		require.ErrorAs(t, err, &argErr)
		require.Equal(t, value, argErr.Value)
		require.Equal(t, ExpertTypes, argErr.Choices)
		require.True(t, strings.HasSuffix(
			err.Error(),
			"The valid choices are analyst, blogger, insider, institutional, user.",
		))
	}
	require.Equal(t, 0, fake.count())
}

func TestLoginErrorMessage(t *testing.T) {
	cause := errors.New("node not found")
	cases := []struct {
		err  *LoginError
		want string
	}{
		{&LoginError{StatusCode: http.StatusUnauthorized}, "tipranks: failed to login, status code: 401"},
		{&LoginError{Reason: "check credentials"}, "tipranks: failed to login, check credentials"},
		{&LoginError{Reason: "browser failure", Err: cause}, "tipranks: failed to login, browser failure: node not found"},
		{&LoginError{Reason: "failed to find login elements", Err: cause}, "tipranks: failed to find login elements: node not found"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.err.Error())
		require.ErrorIs(t, c.err, ErrLogin)
	}
}

func TestValidateExpertType(t *testing.T) {
	for _, value := range ExpertTypes {
		require.NoError(t, ValidateExpertType(value))
	}
	require.True(t, errors.Is(ValidateExpertType("fund"), ErrArgument))
}
