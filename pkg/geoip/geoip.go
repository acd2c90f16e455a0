// Package geoip resolves client IP addresses to a coarse location through an
// ipapi.co compatible HTTP endpoint. Lookups are cached and never fail: any
// error is reported as an absent location.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/imroc/req/v3"
	"go.uber.org/zap"
)

const DefaultEndpoint = "https://ipapi.co/%s/json/"

// Location is the subset of the lookup response stored with a click.
type Location struct {
	Country string `json:"country_name"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

type Config struct {
	Endpoint  string // fmt template with a single %s for the IP
	Timeout   time.Duration
	CacheTTL  time.Duration
	CacheSize int64
	UserAgent string
}

type Client struct {
	cfg   Config
	http  *req.Client
	cache *ristretto.Cache
	log   *zap.Logger
}

// lookupResponse carries the error flag ipapi.co sets on rate limiting or
// reserved ranges with a 200 status.
type lookupResponse struct {
	Location
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 10000
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "LinkLab URL Shortener"
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.CacheSize * 10,
		MaxCost:     cfg.CacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create geo cache: %w", err)
	}

	return &Client{
		cfg:   cfg,
		http:  req.C().SetTimeout(cfg.Timeout).SetUserAgent(cfg.UserAgent),
		cache: cache,
		log:   log,
	}, nil
}

// Resolve returns the location for ip, or false when it is unknown.
func (c *Client) Resolve(ctx context.Context, ip string) (*Location, bool) {
	if !isPublicIP(ip) {
		return nil, false
	}

	if v, ok := c.cache.Get(ip); ok {
		loc := v.(Location)
		return &loc, true
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).Get(fmt.Sprintf(c.cfg.Endpoint, ip))
	if err != nil {
		c.log.Debug("geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return nil, false
	}
	if resp.StatusCode != http.StatusOK {
		c.log.Debug("geo lookup returned non-OK status", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return nil, false
	}

	body, err := resp.ToBytes()
	if err != nil {
		c.log.Debug("failed to read geo response", zap.String("ip", ip), zap.Error(err))
		return nil, false
	}

	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		c.log.Debug("failed to decode geo response", zap.String("ip", ip), zap.Error(err))
		return nil, false
	}
	if out.Error {
		c.log.Debug("geo lookup rejected", zap.String("ip", ip), zap.String("reason", out.Reason))
		return nil, false
	}

	if c.cfg.CacheTTL > 0 {
		c.cache.SetWithTTL(ip, out.Location, 1, c.cfg.CacheTTL)
	} else {
		c.cache.Set(ip, out.Location, 1)
	}

	loc := out.Location
	return &loc, true
}

func (c *Client) Close() {
	c.cache.Close()
}

func isPublicIP(raw string) bool {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil {
		return false
	}
	return !(ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() ||
		ip.IsLinkLocalUnicast() || ip.IsMulticast())
}
