package service

import (
	"LinkLab-Backend/internal/analytics"
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeNotFound
	OutcomeExpired
	OutcomeLimitReached
	OutcomeInternalError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeExpired:
		return "expired"
	case OutcomeLimitReached:
		return "limit_reached"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type LinkFinder interface {
	FindActiveLinkByCode(ctx context.Context, code string) (*domain.Link, error)
}

type ClickCounter interface {
	CountClicks(ctx context.Context, linkID int64) (int64, error)
}

type ClickSubmitter interface {
	SubmitClick(clickData *analytics.ClickData) error
}

type RedirectObserver interface {
	ObserveRedirect(outcome string)
}

type RedirectRequest struct {
	ShortCode string
	Query     url.Values
	IPAddress string
	UserAgent string
	Referer   string
	Now       time.Time
}

// Resolution is the result of resolving one short code. Destination is set
// only for OutcomeSuccess.
type Resolution struct {
	Outcome     Outcome
	Destination string
	LinkID      int64
	Demo        bool
}

// Resolver turns a short code into a redirect destination. Lookup, expiry,
// click limit, recording and destination assembly run strictly in that order.
type Resolver struct {
	links    LinkFinder
	clicks   ClickCounter
	registry repository.DemoRegistry
	recorder ClickSubmitter
	observer RedirectObserver
	log      *zap.Logger
	now      func() time.Time
}

type ResolverOption func(*Resolver)

func WithRedirectObserver(o RedirectObserver) ResolverOption {
	return func(r *Resolver) { r.observer = o }
}

func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(
	links LinkFinder,
	clicks ClickCounter,
	registry repository.DemoRegistry,
	recorder ClickSubmitter,
	log *zap.Logger,
	opts ...ResolverOption,
) *Resolver {
	r := &Resolver{
		links:    links,
		clicks:   clicks,
		registry: registry,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve never returns an error: every failure maps to an Outcome.
func (r *Resolver) Resolve(ctx context.Context, req RedirectRequest) (res Resolution) {
	log := r.log.With(zap.String("short_code", req.ShortCode))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("panic during redirect resolution", zap.Any("panic", rec), zap.Stack("stack"))
			res = Resolution{Outcome: OutcomeInternalError}
		}
		if r.observer != nil {
			r.observer.ObserveRedirect(res.Outcome.String())
		}
	}()

	now := req.Now
	if now.IsZero() {
		now = r.now()
	}

	link, err := r.links.FindActiveLinkByCode(ctx, req.ShortCode)
	if err != nil {
		if !errors.Is(err, repository.ErrAliasNotFound) {
			log.Error("failed to look up link", zap.Error(err))
			return Resolution{Outcome: OutcomeInternalError}
		}
		return r.resolveDemo(log, req)
	}

	if link.IsExpired(now) {
		log.Debug("link expired", zap.Int64("link_id", link.ID))
		return Resolution{Outcome: OutcomeExpired, LinkID: link.ID}
	}

	if link.ClickLimit != nil {
		count, err := r.clicks.CountClicks(ctx, link.ID)
		if err != nil {
			log.Error("failed to count clicks", zap.Int64("link_id", link.ID), zap.Error(err))
			return Resolution{Outcome: OutcomeInternalError, LinkID: link.ID}
		}
		if count >= *link.ClickLimit {
			log.Debug("click limit reached",
				zap.Int64("link_id", link.ID),
				zap.Int64("clicks", count),
				zap.Int64("limit", *link.ClickLimit),
			)
			return Resolution{Outcome: OutcomeLimitReached, LinkID: link.ID}
		}
	}

	r.record(log, link, req, now)

	return Resolution{
		Outcome:     OutcomeSuccess,
		Destination: applyUTM(link.OriginalURL, req.Query),
		LinkID:      link.ID,
	}
}

func (r *Resolver) resolveDemo(log *zap.Logger, req RedirectRequest) Resolution {
	if r.registry == nil {
		return Resolution{Outcome: OutcomeNotFound}
	}
	entry, ok := r.registry.Get(req.ShortCode)
	if !ok {
		return Resolution{Outcome: OutcomeNotFound}
	}

	r.registry.IncrementClicks(req.ShortCode)
	log.Debug("resolved demo link")

	return Resolution{
		Outcome:     OutcomeSuccess,
		Destination: applyUTM(entry.OriginalURL, req.Query),
		Demo:        true,
	}
}

// record hands the click to the recorder. Failures are logged only.
func (r *Resolver) record(log *zap.Logger, link *domain.Link, req RedirectRequest, now time.Time) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.SubmitClick(&analytics.ClickData{
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
		Referer:   req.Referer,
		ClickedAt: now,
	})
	if err != nil {
		log.Warn("click not recorded", zap.Int64("link_id", link.ID), zap.Error(err))
	}
}

// applyUTM overlays utm_* request parameters onto the original URL. Existing
// keys keep their position and get the new value; new keys are appended in
// domain.UTMKeys order. A URL that is not absolute is returned unchanged.
func applyUTM(originalURL string, query url.Values) string {
	overlay := make(map[string]string, len(domain.UTMKeys))
	for _, key := range domain.UTMKeys {
		if v := query.Get(key); v != "" {
			overlay[key] = v
		}
	}
	if len(overlay) == 0 {
		return originalURL
	}

	u, err := url.Parse(originalURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return originalURL
	}

	applied := make(map[string]bool, len(overlay))
	var parts []string
	if u.RawQuery != "" {
		for _, part := range strings.Split(u.RawQuery, "&") {
			if part == "" {
				continue
			}
			rawKey, _, _ := strings.Cut(part, "=")
			key, err := url.QueryUnescape(rawKey)
			if err != nil {
				key = rawKey
			}
			v, ok := overlay[key]
			if !ok {
				parts = append(parts, part)
				continue
			}
			if applied[key] {
				// drop repeated occurrences of an overlaid key
				continue
			}
			applied[key] = true
			parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(v))
		}
	}
	for _, key := range domain.UTMKeys {
		v, ok := overlay[key]
		if !ok || applied[key] {
			continue
		}
		parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(v))
	}

	u.RawQuery = strings.Join(parts, "&")
	u.ForceQuery = false
	return u.String()
}
