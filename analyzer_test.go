package probe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediakit/probe"
	"github.com/mediakit/probe/internal/testutil"
)

const reportJSON = `{"media":{"track":[{"@type":"General","Format":"Matroska"}]}}`

func TestAnalyzeEmptyResource(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://empty", nil)
	eng := testutil.AlwaysForward(reportJSON)

	_, err := probe.New(eng).Analyze(context.Background(), src)
	require.ErrorIs(t, err, probe.ErrEmptyResource)
	assert.Equal(t, 0, src.FetchCount(), "no fetch for a zero-length resource")

	var ae *probe.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "mem://empty", ae.Resource)
	assert.Equal(t, int64(0), ae.Offset)
}

func TestAnalyzeTerminatesOnEOFRequest(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(10_000))
	eng := &testutil.ScriptedEngine{
		Steps:      []testutil.EngineStep{{Status: probe.Status{Accepted: true}, Next: 10_000}},
		ReportText: reportJSON,
	}
	a := probe.New(eng, probe.WithCache(probe.NewRangeCache(probe.WithChunkSize(4096))))

	report, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)

	// Requesting nextOffset == contentLength ends the session after exactly
	// one feeding iteration.
	assert.Len(t, eng.Feeds(), 1)
	assert.Equal(t, 1, src.FetchCount())
	assert.True(t, eng.Finalized())
	assert.Equal(t, reportJSON, report.Text)
	assert.Equal(t, int64(10_000), report.Size)
}

func TestAnalyzeForwardSentinel(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(9000))
	eng := testutil.AlwaysForward(reportJSON)
	a := probe.New(eng, probe.WithCache(probe.NewRangeCache(probe.WithChunkSize(4096))))

	report, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, reportJSON, report.Text)

	// Forward reads continue from the end of each fed range, with the last
	// one short at end-of-resource.
	require.Equal(t, []probe.ByteRange{
		{Offset: 0, Length: 4096},
		{Offset: 4096, Length: 4096},
		{Offset: 8192, Length: 808},
	}, src.Fetches())

	inits := eng.Inits()
	require.Len(t, inits, 3)
	assert.Equal(t, testutil.InitCall{Total: 9000, Offset: 4096}, inits[1])
	assert.Equal(t, testutil.InitCall{Total: 9000, Offset: 8192}, inits[2])
}

func TestAnalyzeExplicitSeek(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(20_000))
	eng := &testutil.ScriptedEngine{
		Steps: []testutil.EngineStep{
			{Status: probe.Status{Accepted: true}, Next: 10_000},
			{Status: probe.Status{Accepted: true, Finalized: true}},
		},
		ReportText: reportJSON,
	}
	a := probe.New(eng, probe.WithCache(probe.NewRangeCache(probe.WithChunkSize(4096))))

	_, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)

	inits := eng.Inits()
	require.Len(t, inits, 2)
	assert.Equal(t, int64(10_000), inits[1].Offset, "engine seek lands on the requested offset")
}

func TestAnalyzeFinalizedFlagStopsLoop(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(50_000))
	eng := &testutil.ScriptedEngine{
		Steps:      []testutil.EngineStep{{Status: probe.Status{Accepted: true, Finalized: true}}},
		ReportText: reportJSON,
	}
	a := probe.New(eng, probe.WithCache(probe.NewRangeCache(probe.WithChunkSize(4096))))

	_, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, eng.Feeds(), 1)
	assert.True(t, eng.Finalized())
}

func TestAnalyzeNegativeSeekRejected(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(10_000))
	eng := &testutil.ScriptedEngine{
		Steps:      []testutil.EngineStep{{Status: probe.Status{Accepted: true}, Next: -5}},
		ReportText: reportJSON,
	}

	_, err := probe.New(eng).Analyze(context.Background(), src)
	require.ErrorIs(t, err, probe.ErrInvalidOffset)
	assert.False(t, eng.Finalized())
}

func TestAnalyzeDivergenceCeiling(t *testing.T) {
	t.Parallel()

	// An engine that seeks back to the start forever must not loop
	// indefinitely.
	src := testutil.NewFakeSource("mem://a", sequentialData(10_000))
	eng := &testutil.ScriptedEngine{
		Steps:      []testutil.EngineStep{{Status: probe.Status{Accepted: true}, Next: 0}},
		ReportText: reportJSON,
	}
	a := probe.New(eng, probe.WithMaxIterations(10))

	_, err := a.Analyze(context.Background(), src)
	require.ErrorIs(t, err, probe.ErrProtocolDivergence)
	assert.Equal(t, 1, src.FetchCount(), "repeated offsets stay cache hits")
	assert.Len(t, eng.Feeds(), 10)
}

func TestAnalyzeCancellation(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(10_000))
	eng := testutil.AlwaysForward(reportJSON)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := probe.New(eng).Analyze(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, src.FetchCount())
	assert.False(t, eng.Finalized(), "no partial finalize on cancellation")
}

func TestAnalyzeEngineErrors(t *testing.T) {
	t.Parallel()

	t.Run("init", func(t *testing.T) {
		t.Parallel()
		src := testutil.NewFakeSource("mem://a", sequentialData(1000))
		cause := errors.New("handle lost")
		eng := &testutil.ScriptedEngine{
			Steps: []testutil.EngineStep{{InitErr: cause}},
		}

		_, err := probe.New(eng).Analyze(context.Background(), src)
		require.ErrorIs(t, err, probe.ErrEngineInit)
		require.ErrorIs(t, err, cause)
	})

	t.Run("feed", func(t *testing.T) {
		t.Parallel()
		src := testutil.NewFakeSource("mem://a", sequentialData(1000))
		cause := errors.New("parser crashed")
		eng := &testutil.ScriptedEngine{
			Steps: []testutil.EngineStep{{FeedErr: cause}},
		}

		_, err := probe.New(eng).Analyze(context.Background(), src)
		require.ErrorIs(t, err, probe.ErrEngineFeed)
		require.ErrorIs(t, err, cause)
	})
}

func TestAnalyzeFetchErrorCarriesOffset(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(20_000))
	cache := probe.NewRangeCache(probe.WithChunkSize(4096))

	// Warm the first chunk, then fail the fetch for the second.
	_, err := cache.GetOrFetch(context.Background(), src, 0)
	require.NoError(t, err)
	cause := errors.New("connection reset")
	src.FailNext(cause)

	eng := testutil.AlwaysForward(reportJSON)
	a := probe.New(eng, probe.WithCache(cache))

	_, err = a.Analyze(context.Background(), src)
	require.ErrorIs(t, err, probe.ErrRemoteFetch)
	require.ErrorIs(t, err, cause)

	var ae *probe.AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, int64(4096), ae.Offset)
	assert.Equal(t, "mem://a", ae.Resource)
}

func TestAnalyzeEmptyReport(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(1000))
	eng := &testutil.ScriptedEngine{
		Steps:      []testutil.EngineStep{{Status: probe.Status{Accepted: true, Finalized: true}}},
		ReportText: "  \n\t",
	}

	_, err := probe.New(eng).Analyze(context.Background(), src)
	require.ErrorIs(t, err, probe.ErrEmptyReport)
}

func TestAnalyzeCacheReuseAcrossSessions(t *testing.T) {
	t.Parallel()

	src := testutil.NewFakeSource("mem://a", sequentialData(5000))
	eng := testutil.AlwaysForward(reportJSON)
	a := probe.New(eng, probe.WithCache(probe.NewRangeCache(probe.WithChunkSize(4096))))

	_, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)
	fetched := src.FetchCount()
	require.Equal(t, 2, fetched)

	// Re-analyzing the same resource serves every range from cache.
	_, err = a.Analyze(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, fetched, src.FetchCount())
}

func TestAnalyzeEndToEnd(t *testing.T) {
	t.Parallel()

	// 9 MB resource, 4 MiB chunks, 32 MiB cap: three fetches, no flush.
	src := testutil.NewFakeSource("mem://media/movie.mkv", sequentialData(9_000_000))
	eng := testutil.AlwaysForward(reportJSON)
	a := probe.New(eng)

	report, err := a.Analyze(context.Background(), src)
	require.NoError(t, err)

	require.Equal(t, []probe.ByteRange{
		{Offset: 0, Length: 4_194_304},
		{Offset: 4_194_304, Length: 4_194_304},
		{Offset: 8_388_608, Length: 611_392},
	}, src.Fetches())

	assert.Equal(t, 3, a.Cache().Len(), "no flush under the cap")
	assert.Equal(t, int64(9_000_000), a.Cache().CachedBytes())
	assert.True(t, eng.Finalized())
	assert.NotEmpty(t, report.Text)

	var doc struct {
		Media struct {
			Track []map[string]string `json:"track"`
		} `json:"media"`
	}
	require.NoError(t, report.Decode(&doc))
	assert.Equal(t, "Matroska", doc.Media.Track[0]["Format"])
}
