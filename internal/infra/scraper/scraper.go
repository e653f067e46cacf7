// Package scraper enhances generated leads with contact data scraped
// from each company's website. Enhancement is best-effort: individual
// fetch failures are skipped, and the caller decides what to do when
// the whole batch could not be enhanced.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/vietddude/leadgen/internal/core/domain"
	"github.com/vietddude/leadgen/internal/metrics"
)

// Config holds scraper settings.
type Config struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	MaxBody   int64         `yaml:"max_body"`
}

// Scraper fetches company websites and extracts emails and social links.
type Scraper struct {
	httpClient *http.Client
	userAgent  string
	maxBody    int64
	log        *slog.Logger
}

var emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// socialHosts maps URL substrings to SocialMedia field setters.
var socialHosts = []struct {
	host string
	set  func(*domain.SocialMedia, string)
}{
	{"linkedin.com", func(s *domain.SocialMedia, u string) { s.LinkedIn = &u }},
	{"twitter.com", func(s *domain.SocialMedia, u string) { s.Twitter = &u }},
	{"x.com", func(s *domain.SocialMedia, u string) { s.Twitter = &u }},
	{"facebook.com", func(s *domain.SocialMedia, u string) { s.Facebook = &u }},
	{"instagram.com", func(s *domain.SocialMedia, u string) { s.Instagram = &u }},
	{"youtube.com", func(s *domain.SocialMedia, u string) { s.YouTube = &u }},
}

// New creates a new Scraper.
func New(cfg Config) *Scraper {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxBody := cfg.MaxBody
	if maxBody == 0 {
		maxBody = 2 << 20 // 2 MiB per page is plenty for contact data
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "leadgen/1.0"
	}
	return &Scraper{
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxBody:    maxBody,
		log:        slog.Default().With("component", "scraper"),
	}
}

// Enhance augments each company that has a website with scraped emails
// and social links. It returns an error only when no company could be
// enhanced at all, so the orchestrator can fall back to the raw batch.
func (s *Scraper) Enhance(ctx context.Context, batch *domain.LeadBatch) (*domain.LeadBatch, error) {
	if batch == nil {
		return nil, fmt.Errorf("nil batch")
	}

	attempted, failed := 0, 0
	for i := range batch.Companies {
		company := &batch.Companies[i]
		if company.WebsiteURL == nil || *company.WebsiteURL == "" {
			continue
		}
		attempted++

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := s.enhanceCompany(ctx, company); err != nil {
			failed++
			metrics.ScrapeErrorsTotal.Inc()
			s.log.Debug("scrape failed", "company", company.CompanyName, "error", err)
		}
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("enhancement failed for all %d companies with websites", attempted)
	}
	return batch, nil
}

func (s *Scraper) enhanceCompany(ctx context.Context, company *domain.Company) error {
	page, err := s.fetch(ctx, *company.WebsiteURL)
	if err != nil {
		return err
	}

	emails, social := extract(page)

	if len(emails) > 0 {
		if company.ContactEmail == nil || *company.ContactEmail == "" {
			company.ContactEmail = &emails[0]
		}
		company.AdditionalEmails = dedupe(append(company.AdditionalEmails, emails...))
	}
	if social != nil {
		company.SocialMediaScraped = social
	}
	return nil
}

func (s *Scraper) fetch(ctx context.Context, url string) (string, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: http %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}
	return string(body), nil
}

// extract walks the HTML tree collecting mailto addresses, plain-text
// emails and links to known social platforms.
func extract(page string) ([]string, *domain.SocialMedia) {
	var emails []string
	social := &domain.SocialMedia{}
	found := false

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		// Fall back to a raw regexp scan on unparseable pages.
		return dedupe(emailPattern.FindAllString(page, 10)), nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if addr, ok := strings.CutPrefix(href, "mailto:"); ok {
					if addr = strings.SplitN(addr, "?", 2)[0]; emailPattern.MatchString(addr) {
						emails = append(emails, addr)
					}
					continue
				}
				lower := strings.ToLower(href)
				for _, sh := range socialHosts {
					if strings.Contains(lower, sh.host) {
						sh.set(social, href)
						found = true
						break
					}
				}
			}
		}
		if n.Type == html.TextNode {
			emails = append(emails, emailPattern.FindAllString(n.Data, 5)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if !found {
		social = nil
	}
	return dedupe(emails), social
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.ToLower(v)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
