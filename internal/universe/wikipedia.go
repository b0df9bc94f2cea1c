package universe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"BreakoutScreener/internal/model"
)

// Default listing pages: S&P 500 first, then S&P 400.
var DefaultSources = []string{
	"https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
	"https://en.wikipedia.org/wiki/List_of_S%26P_400_companies",
}

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.114 Safari/537.36"

// WikipediaProvider reads the first table of each listing page. Symbols have '.'
// replaced by '-' to match price provider conventions; a symbol already taken from an
// earlier page is skipped.
type WikipediaProvider struct {
	Sources []string
	Client  *http.Client
}

func NewWikipediaProvider(sources []string, proxyURL string) *WikipediaProvider {
	if len(sources) == 0 {
		sources = DefaultSources
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &WikipediaProvider{
		Sources: sources,
		Client:  &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

func (w *WikipediaProvider) Tickers(ctx context.Context) ([]model.Ticker, error) {
	var out []model.Ticker
	seen := make(map[string]struct{})
	for _, src := range w.Sources {
		list, err := w.fetch(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", src, err)
		}
		added := 0
		for _, t := range list {
			if _, dup := seen[t.Symbol]; dup {
				continue
			}
			seen[t.Symbol] = struct{}{}
			out = append(out, t)
			added++
		}
		logrus.WithField("source", src).Infof("universe: %d tickers (%d new)", len(list), added)
	}
	if len(out) == 0 {
		return nil, ErrEmptyUniverse
	}
	return out, nil
}

func (w *WikipediaProvider) fetch(ctx context.Context, src string) ([]model.Ticker, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := w.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	table := findFirst(doc, atom.Table)
	if table == nil {
		return nil, fmt.Errorf("no table found")
	}
	return parseListingTable(table)
}

// parseListingTable picks the "Symbol" and "Security" columns, falling back to the
// first two columns when the headers differ.
func parseListingTable(table *html.Node) ([]model.Ticker, error) {
	var header []string
	var body [][]string
	for _, tr := range findAll(table, atom.Tr) {
		var cells []string
		isHeader := false
		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Th:
				isHeader = true
				cells = append(cells, textContent(c))
			case atom.Td:
				cells = append(cells, textContent(c))
			}
		}
		if len(cells) == 0 {
			continue
		}
		if isHeader && header == nil {
			header = cells
			continue
		}
		body = append(body, cells)
	}

	symCol, nameCol := columnIndex(header, "Symbol", 0), columnIndex(header, "Security", 1)
	var out []model.Ticker
	for _, row := range body {
		if symCol >= len(row) || nameCol >= len(row) {
			continue
		}
		sym := strings.ReplaceAll(strings.TrimSpace(row[symCol]), ".", "-")
		if sym == "" {
			continue
		}
		out = append(out, model.Ticker{Symbol: sym, Name: strings.TrimSpace(row[nameCol])})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}
	return out, nil
}

func columnIndex(header []string, name string, fallback int) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return fallback
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
