// Command mediaprobe analyzes remote media files by fetching only the byte
// ranges the MediaInfo engine asks for.
//
// Files are addressed by URL; http, https and s3 schemes are supported.
// Multiple URLs are analyzed concurrently, one engine and one range cache
// per file.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediakit/probe"
	"github.com/mediakit/probe/mediainfo"
)

type config struct {
	chunkSize     int64
	cacheMax      int64
	maxIterations int
	timeout       time.Duration
	retries       uint64
	maxBPS        int64
	libPath       string
	inform        string
	complete      bool
	outDir        string
	zstdOut       bool
	concurrency   int
	verbose       bool
	urls          []string
}

func parseFlags() config {
	var cfg config
	flag.Int64Var(&cfg.chunkSize, "chunk", probe.DefaultChunkSize, "fetch chunk size in bytes")
	flag.Int64Var(&cfg.cacheMax, "cache-max", probe.DefaultMaxCacheBytes, "range cache capacity in bytes")
	flag.IntVar(&cfg.maxIterations, "max-iterations", probe.DefaultMaxIterations, "feeding loop ceiling per file")
	flag.DurationVar(&cfg.timeout, "timeout", 0, "per-file timeout (0 = none)")
	flag.Uint64Var(&cfg.retries, "retries", 0, "retries per range fetch (0 = no retry)")
	flag.Int64Var(&cfg.maxBPS, "max-bps", 0, "fetch bandwidth limit in bytes/sec (0 = unlimited)")
	flag.StringVar(&cfg.libPath, "lib", "", "path to the MediaInfo shared library (default: system lookup)")
	flag.StringVar(&cfg.inform, "inform", mediainfo.DefaultInform, "report format (JSON, XML, HTML)")
	flag.BoolVar(&cfg.complete, "complete", false, "request the full field set")
	flag.StringVar(&cfg.outDir, "out", "", "write reports to this directory instead of stdout")
	flag.BoolVar(&cfg.zstdOut, "zstd", false, "zstd-compress written reports")
	flag.IntVar(&cfg.concurrency, "concurrency", 4, "max files analyzed in parallel")
	flag.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	flag.Parse()
	cfg.urls = flag.Args()
	return cfg
}

func main() {
	cfg := parseFlags()
	if len(cfg.urls) == 0 {
		log.Fatal("usage: mediaprobe [flags] url...")
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	var libNames []string
	if cfg.libPath != "" {
		libNames = []string{cfg.libPath}
	}
	lib, err := mediainfo.Load(libNames...)
	if err != nil {
		log.Fatal(err)
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(cfg.concurrency)
	for _, raw := range cfg.urls {
		g.Go(func() error {
			return analyzeOne(ctx, cfg, logger, lib, raw)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}

func analyzeOne(ctx context.Context, cfg config, logger *slog.Logger, lib *mediainfo.Lib, raw string) error {
	src, err := newSource(ctx, cfg, raw)
	if err != nil {
		return err
	}
	src = decorate(src, cfg)

	engOpts := []mediainfo.EngineOption{mediainfo.WithInform(cfg.inform)}
	if cfg.complete {
		engOpts = append(engOpts, mediainfo.WithComplete())
	}
	eng, err := lib.NewEngine(engOpts...)
	if err != nil {
		return err
	}
	defer eng.Close()

	a := probe.New(eng,
		probe.WithCache(probe.NewRangeCache(
			probe.WithChunkSize(cfg.chunkSize),
			probe.WithMaxBytes(cfg.cacheMax),
		)),
		probe.WithMaxIterations(cfg.maxIterations),
		probe.WithLogger(logger),
	)

	if cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.timeout)
		defer cancel()
	}

	start := time.Now()
	report, err := a.Analyze(ctx, src)
	if err != nil {
		return err
	}
	logger.Info("analyzed",
		"source", report.Resource,
		"size", report.Size,
		"fetched", a.Cache().CachedBytes(),
		"elapsed", time.Since(start),
	)

	return writeReport(cfg, report)
}
