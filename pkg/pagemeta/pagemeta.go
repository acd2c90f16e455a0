package pagemeta

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/imroc/req/v3"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const maxBodyBytes = 1 << 20

// Metadata describes a destination page. Fields fall back to values derived
// from the URL when the page cannot be fetched or lacks the tags.
type Metadata struct {
	Title       string
	Description string
	FaviconURL  string
}

type Fetcher struct {
	client  *req.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewFetcher(timeout time.Duration, log *zap.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Fetcher{
		client:  req.C().SetTimeout(timeout).SetUserAgent("LinkLab URL Shortener Bot"),
		timeout: timeout,
		log:     log,
	}
}

// Fetch never fails. On any error it returns the hostname as title and
// /favicon.ico at the page origin.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) *Metadata {
	base, err := url.Parse(pageURL)
	if err != nil || base.Host == "" {
		return &Metadata{Title: pageURL}
	}

	meta := &Metadata{}
	defer func() {
		if meta.Title == "" {
			meta.Title = base.Hostname()
		}
		if meta.FaviconURL == "" {
			meta.FaviconURL = base.Scheme + "://" + base.Host + "/favicon.ico"
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(ctx).
		DisableAutoReadResponse().
		Get(pageURL)
	if err != nil {
		f.log.Warn("failed to fetch page metadata", zap.String("url", pageURL), zap.Error(err))
		return meta
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		f.log.Debug("page metadata fetch returned error status",
			zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return meta
	}

	parse(io.LimitReader(resp.Body, maxBodyBytes), base, meta)
	return meta
}

func parse(r io.Reader, base *url.URL, meta *Metadata) {
	doc, err := html.Parse(r)
	if err != nil {
		return
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if meta.Title == "" && n.FirstChild != nil {
					meta.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				if strings.EqualFold(attr(n, "name"), "description") && meta.Description == "" {
					meta.Description = strings.TrimSpace(attr(n, "content"))
				}
			case "link":
				rel := strings.ToLower(attr(n, "rel"))
				if (rel == "icon" || rel == "shortcut icon") && meta.FaviconURL == "" {
					if href, err := base.Parse(attr(n, "href")); err == nil {
						meta.FaviconURL = href.String()
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
