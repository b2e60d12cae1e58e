// Package gateway serves the read-only TipRanks endpoints over HTTP as JSON,
// backed by a single authenticated client.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"
	"tipranks-client/internal/components/telemetry"
	"tipranks-client/lib/platforms/tipranks"
	"tipranks-client/lib/util/serviceutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	report_gateway_upstream = "gateway.upstream"
	report_gateway_cache    = "gateway.cache"
)

// Source is implemented by *tipranks.Client.
type Source interface {
	TopAnalystStocks(ctx context.Context) (any, error)
	TopSmartScoreStocks(ctx context.Context) (any, error)
	TopInsiderStocks(ctx context.Context) (any, error)
	StockScreener(ctx context.Context) (any, error)
	TopOnlineGrowthStocks(ctx context.Context) (any, error)
	TrendingStocks(ctx context.Context) (any, error)
	TopExperts(ctx context.Context, expertType string) (any, error)
	AnalystProjection(ctx context.Context, ticker string) (any, error)
	NewsSentiment(ctx context.Context, ticker string) (any, error)
}

type Options struct {
	// AccessToken is required as a bearer token on every /api request when set.
	AccessToken string
	// CacheTTL keeps successful responses for the given duration, 0 disables caching.
	CacheTTL  time.Duration
	CacheSize int
	// DisableRequestLog turns off the chi request logger.
	DisableRequestLog bool
	Tel               telemetry.API
}

type gateway struct {
	source Source
	cache  *expirable.LRU[string, any]
	tel    telemetry.API
}

// NewRouter creates the http handler of the gateway.
func NewRouter(source Source, opts Options) http.Handler {
	g := gateway{
		source: source,
		tel:    telemetry.NewScopedAPI("tipranks_gateway", opts.Tel),
	}
	if opts.CacheTTL > 0 {
		size := opts.CacheSize
		if size <= 0 {
			size = 256
		}
		g.cache = expirable.NewLRU[string, any](size, nil, opts.CacheTTL)
	}

	r := chi.NewRouter()
	if !opts.DisableRequestLog {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		serviceutil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(serviceutil.VerifyAccessToken(opts.AccessToken))

		r.Get("/top-analyst-stocks", g.handle(source.TopAnalystStocks))
		r.Get("/top-smart-score-stocks", g.handle(source.TopSmartScoreStocks))
		r.Get("/top-insider-stocks", g.handle(source.TopInsiderStocks))
		r.Get("/stock-screener", g.handle(source.StockScreener))
		r.Get("/top-online-growth-stocks", g.handle(source.TopOnlineGrowthStocks))
		r.Get("/trending-stocks", g.handle(source.TrendingStocks))
		r.Get("/experts/{expertType}", g.handleParam("expertType", source.TopExperts))
		r.Get("/analyst-projection/{ticker}", g.handleParam("ticker", source.AnalystProjection))
		r.Get("/news-sentiment/{ticker}", g.handleParam("ticker", source.NewsSentiment))
	})

	return r
}

func (g gateway) handle(fetch func(ctx context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.serve(w, r, fetch)
	}
}

func (g gateway) handleParam(name string, fetch func(ctx context.Context, value string) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := chi.URLParam(r, name)
		g.serve(w, r, func(ctx context.Context) (any, error) {
			return fetch(ctx, value)
		})
	}
}

func (g gateway) serve(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context) (any, error)) {
	key := r.URL.Path
	if g.cache != nil {
		cached, hit := g.cache.Get(key)
		if hit {
			g.tel.ReportDebug("cache hit", key)
			serviceutil.WriteJSON(w, http.StatusOK, cached)
			return
		}
	}

	res, err := fetch(r.Context())
	if err != nil {
		status := StatusOf(err)
		if status >= http.StatusInternalServerError {
			g.tel.ReportBroken(report_gateway_upstream, err, key)
		}
		serviceutil.WriteJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	if g.cache != nil {
		g.cache.Add(key, res)
		g.tel.ReportCount(report_gateway_cache, int64(g.cache.Len()))
	}
	serviceutil.WriteJSON(w, http.StatusOK, res)
}

// StatusOf maps the error kinds of the tipranks client to http status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, tipranks.ErrArgument):
		return http.StatusBadRequest
	case errors.Is(err, tipranks.ErrLogin):
		return http.StatusUnauthorized
	case errors.Is(err, tipranks.ErrRequest):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
