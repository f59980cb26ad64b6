package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/mediakit/probe"
	"github.com/mediakit/probe/httpsrc"
	"github.com/mediakit/probe/s3src"
)

// newSource builds a probe.Source for the URL, selecting the transport by
// scheme.
func newSource(ctx context.Context, cfg config, raw string) (probe.Source, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", raw, err)
	}

	switch u.Scheme {
	case "http", "https":
		return httpsrc.NewSource(ctx, raw)
	case "s3":
		client, err := s3src.NewDefaultClient(ctx)
		if err != nil {
			return nil, err
		}
		return s3src.NewSource(ctx, client, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, fmt.Errorf("unsupported scheme %q in %s", u.Scheme, raw)
	}
}

// decorate applies the retry and bandwidth-limit wrappers configured on
// the command line.
func decorate(src probe.Source, cfg config) probe.Source {
	if cfg.retries > 0 {
		src = probe.NewRetrySource(src, probe.RetryWithMax(cfg.retries))
	}
	if cfg.maxBPS > 0 {
		burst := cfg.maxBPS
		if burst > cfg.chunkSize {
			burst = cfg.chunkSize
		}
		src = probe.NewLimitSource(src, rate.NewLimiter(rate.Limit(cfg.maxBPS), int(burst)))
	}
	return src
}
