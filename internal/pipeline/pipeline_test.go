package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/contactkeval/oi-clusters/internal/chart"
	"github.com/contactkeval/oi-clusters/internal/cluster"
	"github.com/contactkeval/oi-clusters/internal/data"
	"github.com/contactkeval/oi-clusters/internal/filter"
	"github.com/contactkeval/oi-clusters/internal/pipeline"
)

const expiry = "2025-01-17"

var (
	exportDay = func() time.Time { return time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC) }

	sampleChain = data.Chain{
		Calls: []data.OptionLeg{{Strike: 110, OpenInterest: 30}, {Strike: 100, OpenInterest: 50}, {Strike: 105, OpenInterest: 200}},
		Puts:  []data.OptionLeg{{Strike: 95, OpenInterest: 80}, {Strike: 90, OpenInterest: 120}},
	}
	sampleBars = []data.Bar{{Close: 103.1}, {Close: 104.25}}

	pngMagic = []byte("\x89PNG")
)

func newPipeline(src data.Source, opts ...pipeline.Option) *pipeline.Pipeline {
	opts = append([]pipeline.Option{
		pipeline.WithClock(exportDay),
		pipeline.WithRenderer(chart.Renderer{Width: 320, Height: 200}),
	}, opts...)
	return pipeline.New(src, opts...)
}

func TestAnalyze_HappyPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	gomock.InOrder(
		src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{"2025-01-10", expiry}, nil),
		src.EXPECT().OptionChain(gomock.Any(), "SPY", expiry).Return(sampleChain, nil),
		src.EXPECT().PriceHistory(gomock.Any(), "SPY").Return(sampleBars, nil),
	)

	res, err := newPipeline(src).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
	require.NoError(t, err)

	assert.Equal(t, data.Quote{Ticker: "SPY", Expiry: expiry, CurrentPrice: 104.25}, res.Quote)

	// three calls, k=3 -> singletons sorted by strike
	require.Len(t, res.Calls, 3)
	assert.Equal(t, 100.0, res.Calls[0].Strike)
	assert.Equal(t, 3, cluster.Count(res.Calls))

	// two puts -> k clamps to 2
	require.Len(t, res.Puts, 2)
	assert.Equal(t, 2, cluster.Count(res.Puts))

	require.Len(t, res.Rows, len(sampleChain.Calls)+len(sampleChain.Puts))
	assert.Equal(t, "SPY 2025-03-07 Open Interest.csv", res.ExportName)
	lines := strings.Split(strings.TrimSpace(string(res.Export)), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "strike,openInterest,cluster,type", lines[0])
	assert.Equal(t, "100,50,0,call", lines[1])
	assert.Equal(t, "90,120,0,put", lines[4])

	assert.Equal(t, "SPY 2025-01-17 Open Interest.png", res.ChartName)
	assert.Equal(t, chart.PNG, res.ChartType)
	assert.True(t, bytes.HasPrefix(res.Chart, pngMagic))
}

func TestAnalyze_NoExpirationsStopsEarly(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	// no OptionChain or PriceHistory expectation: any further call fails the test
	src.EXPECT().Expirations(gomock.Any(), "ZZZZ").Return(nil, nil)

	_, err := newPipeline(src).Analyze(t.Context(), pipeline.Request{Ticker: "ZZZZ", Expiry: expiry})
	assert.ErrorIs(t, err, pipeline.ErrDataUnavailable)
}

func TestExpirations(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Expirations(gomock.Any(), "ZZZZ").Return([]string{}, nil)
	src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{expiry}, nil)
	src.EXPECT().Expirations(gomock.Any(), "ERR").Return(nil, errors.New("boom"))

	p := newPipeline(src)

	_, err := p.Expirations(t.Context(), "ZZZZ")
	assert.ErrorIs(t, err, pipeline.ErrDataUnavailable)

	got, err := p.Expirations(t.Context(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, []string{expiry}, got)

	_, err = p.Expirations(t.Context(), "ERR")
	assert.ErrorIs(t, err, pipeline.ErrDataUnavailable)
	assert.ErrorContains(t, err, "boom")

	_, err = p.Expirations(t.Context(), "")
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
}

func TestAnalyze_UnlistedExpiry(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{"2025-01-10"}, nil)

	_, err := newPipeline(src).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
	assert.ErrorIs(t, err, pipeline.ErrDataUnavailable)
}

func TestAnalyze_ChainFailures(t *testing.T) {
	tests := []struct {
		name  string
		chain data.Chain
		err   error
	}{
		{name: "source error", err: errors.New("massive returned status 500")},
		{name: "empty chain", chain: data.Chain{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := NewMockSource(ctrl)

			src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{expiry}, nil)
			src.EXPECT().OptionChain(gomock.Any(), "SPY", expiry).Return(test.chain, test.err)

			_, err := newPipeline(src).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
			assert.ErrorIs(t, err, pipeline.ErrDataUnavailable)
			if test.err != nil {
				assert.ErrorIs(t, err, test.err)
			}
		})
	}
}

func TestAnalyze_PriceFailures(t *testing.T) {
	tests := []struct {
		name string
		bars []data.Bar
		err  error
	}{
		{name: "source error", err: context.DeadlineExceeded},
		{name: "no bars"},
		{name: "zero close", bars: []data.Bar{{Close: 0}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			src := NewMockSource(ctrl)

			src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{expiry}, nil)
			src.EXPECT().OptionChain(gomock.Any(), "SPY", expiry).Return(sampleChain, nil)
			src.EXPECT().PriceHistory(gomock.Any(), "SPY").Return(test.bars, test.err)

			_, err := newPipeline(src).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
			assert.ErrorIs(t, err, pipeline.ErrPriceUnavailable)
		})
	}
}

func TestAnalyze_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	p := newPipeline(src)

	for _, req := range []pipeline.Request{{}, {Ticker: "SPY"}, {Expiry: expiry}, {Ticker: "SPY", Expiry: "  "}} {
		_, err := p.Analyze(t.Context(), req)
		assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
	}
}

func TestAnalyze_OneSideEmptyStillRenders(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{expiry}, nil)
	src.EXPECT().OptionChain(gomock.Any(), "SPY", expiry).Return(data.Chain{Calls: sampleChain.Calls}, nil)
	src.EXPECT().PriceHistory(gomock.Any(), "SPY").Return(sampleBars, nil)

	res, err := newPipeline(src).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
	require.NoError(t, err)
	assert.Empty(t, res.Puts)
	assert.Len(t, res.Rows, 3)
	assert.NotEmpty(t, res.Chart)
}

func TestAnalyze_WithFilterAndSVG(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{expiry}, nil)
	src.EXPECT().OptionChain(gomock.Any(), "SPY", expiry).Return(sampleChain, nil)
	src.EXPECT().PriceHistory(gomock.Any(), "SPY").Return(sampleBars, nil)

	f, err := filter.Compile("open_interest >= 80")
	require.NoError(t, err)

	res, err := newPipeline(src,
		pipeline.WithFilter(f),
		pipeline.WithClusters(1),
		pipeline.WithRenderer(chart.Renderer{Format: chart.SVG}),
	).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
	require.NoError(t, err)

	require.Len(t, res.Calls, 1)
	assert.Equal(t, 105.0, res.Calls[0].Strike)
	assert.Len(t, res.Puts, 2)
	assert.Equal(t, 1, cluster.Count(res.Puts))
	assert.Equal(t, chart.SVG, res.ChartType)
	assert.Contains(t, string(res.Chart), "<svg")
}

func TestAnalyze_SyntheticSourceEndToEnd(t *testing.T) {
	src := data.NewSyntheticProviderAt(exportDay)
	p := newPipeline(src)

	expiries, err := p.Expirations(t.Context(), "QQQ")
	require.NoError(t, err)

	res, err := p.Analyze(t.Context(), pipeline.Request{Ticker: "QQQ", Expiry: expiries[0]})
	require.NoError(t, err)
	assert.LessOrEqual(t, cluster.Count(res.Calls), cluster.DefaultK)
	assert.Len(t, res.Rows, len(res.Calls)+len(res.Puts))
	assert.True(t, bytes.HasPrefix(res.Chart, pngMagic))
}

func TestRejectsTickersThatAreNotSymbols(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)
	p := newPipeline(src)

	// the source must never see these
	for _, ticker := range []string{"../X", "..", "a/b", `..\private`, "<img src=x>", "TOOLONGSYMBOL"} {
		_, err := p.Expirations(t.Context(), ticker)
		assert.ErrorIs(t, err, pipeline.ErrInvalidInput, ticker)

		_, err = p.Analyze(t.Context(), pipeline.Request{Ticker: ticker, Expiry: expiry})
		assert.ErrorIs(t, err, pipeline.ErrInvalidInput, ticker)
	}
}

func TestExpirations_NormalizesTicker(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Expirations(gomock.Any(), "BRK.B").Return([]string{expiry}, nil)

	got, err := newPipeline(src).Expirations(t.Context(), " brk.b ")
	require.NoError(t, err)
	assert.Equal(t, []string{expiry}, got)
}

func TestAnalyze_FilterErrorIsInvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	src.EXPECT().Expirations(gomock.Any(), "SPY").Return([]string{expiry}, nil)
	src.EXPECT().OptionChain(gomock.Any(), "SPY", expiry).Return(sampleChain, nil)
	src.EXPECT().PriceHistory(gomock.Any(), "SPY").Return(sampleBars, nil)

	// compiles, but yields a number rather than a bool
	f, err := filter.Compile("strike * 2")
	require.NoError(t, err)

	_, err = newPipeline(src, pipeline.WithFilter(f)).Analyze(t.Context(), pipeline.Request{Ticker: "SPY", Expiry: expiry})
	assert.ErrorIs(t, err, pipeline.ErrInvalidInput)
	assert.ErrorIs(t, err, filter.ErrInvalidExpression)
}
