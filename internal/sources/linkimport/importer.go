// Package linkimport pulls the outbound links of a third-party link page
// (a Linktree profile, a personal homepage) so they can seed a new page.
package linkimport

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/planet-nine-app/linkitylink/internal/domain"
	"github.com/planet-nine-app/linkitylink/internal/logger"
	"github.com/planet-nine-app/linkitylink/internal/render"
)

const userAgent = "linkitylink-import/1.0"

type Importer struct {
	timeout time.Duration
	log     logger.Logger
}

func New(timeout time.Duration, log logger.Logger) *Importer {
	return &Importer{timeout: timeout, log: log}
}

// Import fetches sourceURL and returns its outbound http(s) links in page
// order, de-duplicated by URL and capped at domain.MaxLinks. Links to the
// source's own host are navigation, not content, and are skipped. A link
// is social when its host belongs to a known platform.
func (i *Importer) Import(ctx context.Context, sourceURL string) ([]domain.LinkRecord, error) {
	src, err := url.Parse(strings.TrimSpace(sourceURL))
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") || src.Host == "" {
		return nil, domain.Validation("sourceUrl must be an absolute http(s) URL")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		mu    sync.Mutex
		links []domain.LinkRecord
		seen  = map[string]struct{}{}
	)

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(i.timeout)

	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link, ok := toLink(src, e.Request.AbsoluteURL(e.Attr("href")), e.Text, e.Attr("aria-label"))
		if !ok {
			return
		}

		mu.Lock()
		defer mu.Unlock()

		if len(links) >= domain.MaxLinks {
			return
		}
		if _, dup := seen[link.URL]; dup {
			return
		}
		seen[link.URL] = struct{}{}
		links = append(links, link)
	})

	var visitErr error
	c.OnError(func(r *colly.Response, err error) {
		visitErr = err
		i.log.Warn("link import fetch failed",
			logger.String("sourceUrl", src.String()),
			logger.Int("status", r.StatusCode),
			logger.Error(err),
		)
	})

	if err := c.Visit(src.String()); err != nil && visitErr == nil {
		visitErr = err
	}
	c.Wait()

	if visitErr != nil {
		return nil, domain.Upstream(visitErr, "failed to fetch %s", src.Host)
	}

	i.log.Info("links imported",
		logger.String("sourceUrl", src.String()),
		logger.Int("links", len(links)),
	)
	return links, nil
}

func toLink(src *url.URL, href, text, label string) (domain.LinkRecord, bool) {
	if href == "" {
		return domain.LinkRecord{}, false
	}
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.LinkRecord{}, false
	}
	if strings.EqualFold(u.Hostname(), src.Hostname()) {
		return domain.LinkRecord{}, false
	}
	u.Fragment = ""

	title := strings.Join(strings.Fields(text), " ")
	if title == "" {
		title = strings.TrimSpace(label)
	}

	link := domain.LinkRecord{Title: title, URL: u.String()}
	if name, ok := render.PlatformForHost(u.Hostname()); ok {
		link.IsSocial = true
		// Badges pick their icon from the title.
		link.Title = cases.Title(language.English).String(name)
	}
	if link.Title == "" {
		link.Title = strings.TrimPrefix(u.Hostname(), "www.")
	}
	return link, true
}
