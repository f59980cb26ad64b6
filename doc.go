// Package probe analyzes large remote media objects without downloading
// them in full.
//
// Format-sniffing engines such as MediaInfo inspect a file by reading a
// handful of scattered byte ranges: a header here, an index there, a few
// bytes near the end. When the file lives behind a ranged transport
// (HTTP range requests, S3 object ranges), fetching only those ranges is
// dramatically cheaper than downloading the whole object.
//
// The package pairs two pieces:
//
//   - [RangeCache] keeps downloaded byte ranges for one resource at a
//     time under a memory budget, so repeated and overlapping reads cost
//     one fetch.
//   - [Analyzer] drives an [Engine] through its buffer-feeding protocol,
//     translating the engine's "give me more / seek here / I'm done"
//     signals into cache lookups and remote fetches.
//
// # Quick Start
//
// Analyze a remote file over HTTP using the MediaInfo binding:
//
//	lib, err := mediainfo.Load()
//	if err != nil {
//	    return err
//	}
//	eng, err := lib.NewEngine()
//	if err != nil {
//	    return err
//	}
//	defer eng.Close()
//
//	src, err := httpsrc.NewSource(ctx, "https://example.com/movie.mkv")
//	if err != nil {
//	    return err
//	}
//
//	report, err := probe.New(eng).Analyze(ctx, src)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(report.Text)
//
// # Sources
//
// A [Source] is any ranged reader with a known size. The [httpsrc] and
// [s3src] subpackages provide HTTP and S3 implementations. [NewRetrySource]
// and [NewLimitSource] decorate a Source with retries and bandwidth
// limiting; the analyzer itself never retries.
package probe
