package tipranks

import (
	"context"
	"net/url"
	"strings"
)

// ExpertType is a category of expert ranked by TopExperts.
type ExpertType = string

const (
	ExpertAnalyst       ExpertType = "analyst"
	ExpertBlogger       ExpertType = "blogger"
	ExpertInsider       ExpertType = "insider"
	ExpertInstitutional ExpertType = "institutional"
	ExpertUser          ExpertType = "user"
)

// ExpertTypes lists every value TopExperts accepts.
var ExpertTypes = []ExpertType{
	ExpertAnalyst,
	ExpertBlogger,
	ExpertInsider,
	ExpertInstitutional,
	ExpertUser,
}

// ValidateExpertType fails with an ArgumentError unless the value is exactly one of ExpertTypes.
func ValidateExpertType(expertType string) error {
	for _, t := range ExpertTypes {
		if t == expertType {
			return nil
		}
	}
	choices := make([]string, len(ExpertTypes))
	copy(choices, ExpertTypes)
	return &ArgumentError{
		Argument: "expert type",
		Value:    expertType,
		Choices:  choices,
	}
}

// TopAnalystStocks returns the currently recommended stocks, curated from
// stocks with a 'Strong Buy' or 'Strong Sell' rating consensus.
func (c *Client) TopAnalystStocks(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/api/stocks/getMostRecommendedStocks/", url.Values{
		"benchmark": {"1"},
		"period":    {"3"},
		"country":   {"US"},
		"break":     {c.cacheBreak()},
	})
}

// TopSmartScoreStocks returns the best stocks according to the Smart Score, which
// rates the potential of a stock to outperform the market based on 8 key factors.
func (c *Client) TopSmartScoreStocks(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/api/Screener/GetStocks/", url.Values{
		"break":         {c.cacheBreak()},
		"country":       {"US"},
		"page":          {"1"},
		"sortBy":        {"1"},
		"sortDir":       {"2"},
		"tipranksScore": {"5"},
	})
}

// TopInsiderStocks returns the stocks currently trending with corporate insiders.
func (c *Client) TopInsiderStocks(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/api/insiders/getTrendingStocks/", url.Values{
		"benchmark": {"1"},
		"period":    {"3"},
		"country":   {"US"},
		"break":     {c.cacheBreak()},
	})
}

// StockScreener returns the first page of the unfiltered stock screener.
func (c *Client) StockScreener(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/api/Screener/GetStocks/", url.Values{
		"break":   {c.cacheBreak()},
		"country": {"US"},
		"page":    {"1"},
		"sortBy":  {"1"},
		"sortDir": {"2"},
	})
}

// TopOnlineGrowthStocks returns publicly traded companies whose websites had the
// highest traffic increase over the past month.
func (c *Client) TopOnlineGrowthStocks(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/api/websiteTraffic/screener", url.Values{
		"country": {"us"},
	})
}

// TrendingStocks returns stocks rated by 3 or more analysts in the last few days.
func (c *Client) TrendingStocks(ctx context.Context) (any, error) {
	return c.getJSON(ctx, "/api/stocks/gettrendingstocks/", url.Values{
		"daysago": {"30"},
		"which":   {"most"},
		"country": {"us"},
		"break":   {c.cacheBreak()},
	})
}

func expertParams(expertType string) url.Values {
	if strings.ToLower(expertType) == ExpertAnalyst {
		return url.Values{
			"expertType": {ExpertAnalyst},
			"numExperts": {"100"},
			"period":     {"year"},
			"benchmark":  {"none"},
		}
	}
	return url.Values{
		"expertType": {expertType},
		"numExperts": {"100"},
	}
}

// TopExperts returns the top ranked experts of a category, see ExpertTypes.
// Any other value fails with an ArgumentError before a request is made.
func (c *Client) TopExperts(ctx context.Context, expertType string) (any, error) {
	err := ValidateExpertType(expertType)
	if err != nil {
		return nil, err
	}
	return c.getJSON(ctx, "/api/experts/GetTop25Experts/", expertParams(expertType))
}

// AnalystProjection returns every available analyst projection for a ticker.
func (c *Client) AnalystProjection(ctx context.Context, ticker string) (any, error) {
	return c.getJSON(ctx, "/api/compare/analystRatings/tickers/", url.Values{
		"tickers": {strings.ToLower(ticker)},
	})
}

// NewsSentiment returns the latest news articles about a ticker along with their sentiment.
func (c *Client) NewsSentiment(ctx context.Context, ticker string) (any, error) {
	return c.getJSON(ctx, "/api/stocks/getNews/", url.Values{
		"ticker": {ticker},
	})
}
