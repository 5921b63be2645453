package news

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/gabrielschull/TraderML/internal/logger"
)

// Scraper pulls recent headlines from public finance sites. It is the
// fallback when the brokerage news feed returns nothing for a symbol.
type Scraper struct {
	sources []Source
	timeout time.Duration
}

// Source defines one scrapeable headline source.
type Source struct {
	Name          string
	URLTemplate   string // {symbol} is replaced with the ticker
	ItemSelector  string // container of one story
	TitleSelector string // headline text within the container
}

// NewScraper creates a scraper with the default sources.
func NewScraper(timeout time.Duration) *Scraper {
	return &Scraper{
		sources: defaultSources(),
		timeout: timeout,
	}
}

func defaultSources() []Source {
	return []Source{
		{
			Name:          "YahooFinance",
			URLTemplate:   "https://finance.yahoo.com/quote/{symbol}/news",
			ItemSelector:  "li.stream-item",
			TitleSelector: "h3",
		},
		{
			Name:          "Finviz",
			URLTemplate:   "https://finviz.com/quote.ashx?t={symbol}",
			ItemSelector:  "tr.news_table-row, #news-table tr",
			TitleSelector: "a",
		},
	}
}

// Headlines scrapes up to limit headlines for symbol, trying each source in
// order until one yields results.
func (s *Scraper) Headlines(ctx context.Context, symbol string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	for _, source := range s.sources {
		headlines, err := s.scrapeSource(ctx, source, symbol, limit)
		if err != nil {
			logger.ErrorWithErr(ctx, "Failed to scrape source", err, "source", source.Name, "symbol", symbol)
			continue
		}
		if len(headlines) > 0 {
			logger.Info(ctx, "Headlines scraped", "source", source.Name, "symbol", symbol, "headlines", len(headlines))
			return headlines, nil
		}
	}

	logger.Warn(ctx, "No headlines from any scraped source", "symbol", symbol)
	return nil, nil
}

func (s *Scraper) scrapeSource(ctx context.Context, source Source, symbol string, limit int) ([]string, error) {
	headlines := []string{}
	seen := map[string]struct{}{}

	pageURL := strings.ReplaceAll(source.URLTemplate, "{symbol}", url.QueryEscape(strings.ToUpper(symbol)))
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	c.OnHTML(source.ItemSelector, func(e *colly.HTMLElement) {
		if len(headlines) >= limit {
			return
		}
		title := extractTitle(e.DOM, source.TitleSelector)
		if title == "" {
			return
		}
		if _, dup := seen[title]; dup {
			return
		}
		seen[title] = struct{}{}
		headlines = append(headlines, title)
	})

	c.OnError(func(r *colly.Response, err error) {
		logger.ErrorWithErr(ctx, "Scraping error", err, "source", source.Name, "url", r.Request.URL.String())
	})

	if err := c.Visit(pageURL); err != nil {
		return nil, err
	}
	c.Wait()

	return headlines, nil
}

// extractTitle pulls the first non-empty headline text under sel.
func extractTitle(dom *goquery.Selection, selector string) string {
	var title string
	dom.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			title = text
			return false
		}
		return true
	})
	return title
}
