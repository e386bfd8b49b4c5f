package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

func (e *Engine) get(ctx context.Context, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("status %d from %s", resp.StatusCode, rawURL)
	}
	return resp, nil
}

// searchDuckDuckGo tries the instant-answers JSON API first and falls back
// to scraping the HTML results page when the API yields nothing.
func (e *Engine) searchDuckDuckGo(ctx context.Context, query string, maxResults int) []string {
	if maxResults <= 0 {
		maxResults = 5
	}
	urls := e.duckDuckGoAPI(ctx, query)
	if len(urls) < maxResults {
		urls = append(urls, e.duckDuckGoHTML(ctx, query)...)
	}
	if len(urls) > maxResults {
		urls = urls[:maxResults]
	}
	return urls
}

func (e *Engine) duckDuckGoAPI(ctx context.Context, query string) []string {
	searchURL := fmt.Sprintf("%s/?q=%s&format=json&t=webscraper", e.ddgAPIBase, url.QueryEscape(query))
	resp, err := e.get(ctx, searchURL, nil)
	if err != nil {
		e.logger.Warn("duckduckgo api search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	var payload struct {
		Results []struct {
			FirstURL string `json:"FirstURL"`
		} `json:"Results"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
		} `json:"RelatedTopics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		e.logger.Warn("duckduckgo api response unreadable", zap.Error(err))
		return nil
	}

	var urls []string
	for _, r := range payload.Results {
		if r.FirstURL != "" {
			urls = append(urls, r.FirstURL)
		}
	}
	for _, t := range payload.RelatedTopics {
		if t.FirstURL != "" {
			urls = append(urls, t.FirstURL)
		}
	}
	return urls
}

func (e *Engine) duckDuckGoHTML(ctx context.Context, query string) []string {
	searchURL := fmt.Sprintf("%s/html?q=%s", e.ddgHTMLBase, url.QueryEscape(query))
	resp, err := e.get(ctx, searchURL, nil)
	if err != nil {
		e.logger.Warn("duckduckgo html search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find("a.result__a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && strings.HasPrefix(href, "http") {
			urls = append(urls, href)
		}
	})
	doc.Find(`a[href^="http"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !strings.Contains(href, "duckduckgo.com") {
			urls = append(urls, href)
		}
	})
	return urls
}

func (e *Engine) searchBing(ctx context.Context, query string, maxResults int) []string {
	if maxResults <= 0 {
		maxResults = 5
	}
	searchURL := fmt.Sprintf("%s/search?q=%s&count=%d", e.bingBase, url.QueryEscape(query), maxResults)

	header := http.Header{}
	header.Set("User-Agent", "Mozilla/5.0 (compatible; MSIE 10.0; Windows NT 6.1; Trident/6.0)")
	resp, err := e.get(ctx, searchURL, header)
	if err != nil {
		e.logger.Warn("bing search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	var urls []string
	for _, selector := range []string{"li.b_algo a", "h2 a", `a[href^="http"]`} {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if ok && strings.HasPrefix(href, "http") && !strings.Contains(href, "bing.com") {
				urls = append(urls, href)
			}
		})
	}
	if len(urls) > maxResults {
		urls = urls[:maxResults]
	}
	return urls
}

// searchDirectories queries company directories. Most are best-effort: deep
// results sit behind authentication or profile pages this engine does not
// crawl, so empty output is common and non-fatal.
func (e *Engine) searchDirectories(ctx context.Context, query string, maxResults int) []string {
	var urls []string

	directories := []struct {
		name string
		run  func(ctx context.Context, query string) []string
	}{
		{"builtin.com", e.searchBuiltIn},
		{"producthunt.com", e.searchProductHunt},
	}
	for _, directory := range directories {
		if err := ctx.Err(); err != nil {
			break
		}
		found := directory.run(ctx, query)
		urls = append(urls, found...)
		e.pause(ctx)
	}

	if len(urls) > maxResults {
		urls = urls[:maxResults]
	}
	return urls
}

func (e *Engine) searchBuiltIn(ctx context.Context, query string) []string {
	searchURL := fmt.Sprintf("%s/companies?search=%s", e.builtInBase, url.QueryEscape(query))
	resp, err := e.get(ctx, searchURL, nil)
	if err != nil {
		e.logger.Debug("builtin.com search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	// Profile pages link out to the company site; only those direct external
	// links are usable without crawling each profile.
	var urls []string
	doc.Find(`a[href^="http"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href != "" && !strings.Contains(href, "builtin.com") {
			urls = append(urls, href)
		}
	})
	return urls
}

func (e *Engine) searchProductHunt(ctx context.Context, query string) []string {
	searchURL := fmt.Sprintf("%s/search?q=%s", e.phBase, url.QueryEscape(query))
	resp, err := e.get(ctx, searchURL, nil)
	if err != nil {
		e.logger.Debug("producthunt search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	var urls []string
	doc.Find(`a[href^="http"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href != "" && !strings.Contains(href, "producthunt.com") {
			urls = append(urls, href)
		}
	})
	return urls
}

// searchGitHubOrgs finds organizations matching the query and resolves each
// to its declared homepage when one is present.
func (e *Engine) searchGitHubOrgs(ctx context.Context, query string, maxResults int) []string {
	searchURL := fmt.Sprintf("%s/search/users?q=%s+type:org&sort=repositories&order=desc",
		e.githubBase, url.QueryEscape(query))
	resp, err := e.get(ctx, searchURL, nil)
	if err != nil {
		e.logger.Debug("github org search failed", zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	var payload struct {
		Items []struct {
			Login string `json:"login"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil
	}

	items := payload.Items
	if len(items) > 10 {
		items = items[:10]
	}

	var urls []string
	for _, org := range items {
		if err := ctx.Err(); err != nil {
			break
		}
		orgResp, err := e.get(ctx, fmt.Sprintf("%s/orgs/%s", e.githubBase, org.Login), nil)
		if err != nil {
			continue
		}
		var orgPayload struct {
			Blog string `json:"blog"`
		}
		err = json.NewDecoder(orgResp.Body).Decode(&orgPayload)
		orgResp.Body.Close()
		if err != nil || orgPayload.Blog == "" {
			continue
		}
		if normalized, ok := normalizeURL(orgPayload.Blog); ok {
			urls = append(urls, normalized)
		}
		if len(urls) >= maxResults {
			break
		}
	}
	return urls
}
