package main

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/mediakit/probe"
)

// writeReport prints the report to stdout or, when -out is set, writes it
// to <out>/<basename>.<ext>, optionally zstd-compressed.
func writeReport(cfg config, report *probe.Report) error {
	if cfg.outDir == "" {
		fmt.Println(report.Text)
		return nil
	}

	name := reportFileName(report.Resource, cfg)
	target := filepath.Join(cfg.outDir, name)
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !cfg.zstdOut {
		if _, err := f.WriteString(report.Text); err != nil {
			f.Close()
			return fmt.Errorf("write report %s: %w", target, err)
		}
		return f.Close()
	}

	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", target, err)
	}
	if _, err := zw.Write([]byte(report.Text)); err != nil {
		zw.Close()
		f.Close()
		return fmt.Errorf("write report %s: %w", target, err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("write report %s: %w", target, err)
	}
	return f.Close()
}

func reportFileName(resource string, cfg config) string {
	base := "report"
	if u, err := url.Parse(resource); err == nil {
		if b := path.Base(u.Path); b != "" && b != "." && b != "/" {
			base = b
		}
	}

	ext := ".txt"
	switch strings.ToUpper(cfg.inform) {
	case "JSON":
		ext = ".json"
	case "XML":
		ext = ".xml"
	case "HTML":
		ext = ".html"
	}

	name := base + ext
	if cfg.zstdOut {
		name += ".zst"
	}
	return name
}
