// Package news fetches recent news articles for a symbol from the Alpaca
// news API and Google News RSS, merging them into one time-ordered feed.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Article is a single news article from any source.
type Article struct {
	Time     time.Time `json:"time"`
	Source   string    `json:"source"`
	Headline string    `json:"headline"`
	Content  string    `json:"content,omitempty"`
	URL      string    `json:"url,omitempty"`
}

// Fetcher aggregates news sources for the dashboard feed. The Alpaca client
// is optional; with a nil client only RSS sources are queried.
type Fetcher struct {
	alpaca     *marketdata.Client
	httpClient *http.Client
	log        *slog.Logger
}

// NewFetcher creates a news Fetcher. mdc may be nil.
func NewFetcher(mdc *marketdata.Client) *Fetcher {
	return &Fetcher{
		alpaca:     mdc,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        slog.Default().With("component", "news"),
	}
}

// Fetch returns up to limit articles for symbol published within the last
// lookback window, newest first. Per-source failures are logged and skipped;
// a feed with one dead source still renders.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, limit int) []Article {
	if limit <= 0 {
		limit = 10
	}
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -7)

	var all []Article
	if f.alpaca != nil {
		articles, err := f.fetchAlpaca(symbol, start, end)
		if err != nil {
			f.log.Debug("alpaca news unavailable", "symbol", symbol, "err", err)
		} else {
			all = append(all, articles...)
		}
	}
	articles, err := f.fetchGoogleRSS(ctx, symbol, start, end)
	if err != nil {
		f.log.Debug("google news unavailable", "symbol", symbol, "err", err)
	} else {
		all = append(all, articles...)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Time.After(all[j].Time) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// fetchAlpaca fetches articles from the Alpaca news API.
func (f *Fetcher) fetchAlpaca(symbol string, start, end time.Time) ([]Article, error) {
	alpacaNews, err := f.alpaca.GetNews(marketdata.GetNewsRequest{
		Symbols:            []string{symbol},
		Start:              start,
		End:                end,
		TotalLimit:         50,
		IncludeContent:     true,
		ExcludeContentless: true,
	})
	if err != nil {
		return nil, err
	}

	articles := make([]Article, 0, len(alpacaNews))
	for _, a := range alpacaNews {
		body := ""
		if a.Content != "" {
			body = ExtractSymbolContent(a.Content, symbol)
		} else if a.Summary != "" {
			body = a.Summary
		}
		articles = append(articles, Article{
			Time:     a.CreatedAt,
			Source:   "alpaca",
			Headline: a.Headline,
			Content:  body,
			URL:      a.URL,
		})
	}
	return articles, nil
}

// --- Google News RSS ---

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

func (f *Fetcher) fetchGoogleRSS(ctx context.Context, symbol string, start, end time.Time) ([]Article, error) {
	q := url.QueryEscape(symbol + " stock")
	u := "https://news.google.com/rss/search?q=" + q + "&hl=en-US&gl=US&ceid=US:en"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google news status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, err
	}

	var articles []Article
	for _, item := range feed.Channel.Items {
		t, err := time.Parse(time.RFC1123Z, item.PubDate)
		if err != nil {
			t, err = time.Parse(time.RFC1123, item.PubDate)
			if err != nil {
				continue
			}
		}
		if t.Before(start) || t.After(end) {
			continue
		}
		headline := item.Title
		// Google appends " - <publisher>" to every title.
		if idx := strings.LastIndex(headline, " - "); idx > 0 {
			headline = headline[:idx]
		}
		articles = append(articles, Article{
			Time:     t,
			Source:   "google",
			Headline: headline,
			Content:  StripHTML(item.Desc),
			URL:      item.Link,
		})
	}
	return articles, nil
}

// --- HTML helpers ---

var htmlTagRe = regexp.MustCompile(`<[^>]*>`)
var htmlParaRe = regexp.MustCompile(`(?i)</?(p|br|div|li|h[1-6])\b[^>]*>`)

// StripHTML removes HTML tags and normalizes whitespace.
func StripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// ExtractSymbolContent extracts paragraphs mentioning the symbol from HTML
// content, falling back to the full stripped HTML if none do.
func ExtractSymbolContent(rawHTML, symbol string) string {
	chunks := htmlParaRe.Split(rawHTML, -1)
	var matched []string
	upper := strings.ToUpper(symbol)
	for _, chunk := range chunks {
		plain := StripHTML(chunk)
		if plain == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(plain), upper) {
			matched = append(matched, plain)
		}
	}
	if len(matched) > 0 {
		return strings.Join(matched, " ")
	}
	return StripHTML(rawHTML)
}
