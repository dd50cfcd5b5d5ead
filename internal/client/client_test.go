package client

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codewiresh/gsapi/internal/config"
	gserrors "github.com/codewiresh/gsapi/internal/errors"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// recorder is an Exchanger that records every request and answers from a
// per-command reply table.
type recorder struct {
	mu       sync.Mutex
	requests []string
	replies  map[string]string
	err      error
}

func (r *recorder) Exchange(_ context.Context, req []byte) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, string(req))
	if r.err != nil {
		return nil, r.err
	}
	cmd, _, _ := strings.Cut(strings.TrimSuffix(string(req), "\r"), " ")
	return []byte(r.replies[cmd]), nil
}

func newTestClient(t *testing.T, replies map[string]string) (*Client, *recorder) {
	t.Helper()
	rec := &recorder{replies: replies}
	c, err := New(config.DefaultConnection(), WithExchanger(rec))
	require.NoError(t, err)
	return c, rec
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := config.DefaultConnection()
	cfg.Delimiter = ""
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = config.DefaultConnection()
	cfg.Codec = "klingon"
	_, err = New(cfg)
	assert.True(t, gserrors.IsInvalidArgument(err))
}

func TestRequestFraming(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		call func(*Client) error
		want string
	}{
		{"version", func(c *Client) error { _, err := c.Version(ctx); return err }, "get_version\r"},
		{"select model", func(c *Client) error { return c.SelectModel(ctx, "Whoosh") }, "select_model Whoosh\r"},
		{"path", func(c *Client) error { _, err := c.Path(ctx, protocol.PathPatchFolder); return err }, "get_path PATCH_FOLDER\r"},
		{"set sample rate", func(c *Client) error { return c.SetSampleRate(ctx, "48000") }, "set_samplerate 48000\r"},
		{"query patch names", func(c *Client) error {
			_, err := c.QueryPatchNames(ctx, "wind", PatchQuery{Name: true, Tags: true})
			return err
		}, "query_patchnames wind 1 0 1\r"},
		{"render", func(c *Client) error {
			return c.RenderPatch(ctx, RenderOptions{Path: "/tmp/out.wav", BitDepth: 24, Channels: 2, Duration: 5})
		}, "render_patch /tmp/out.wav 24 2 5\r"},
		{"set variation", func(c *Client) error { return c.SetVariation(ctx, 0.25) }, "set_variation 0.25\r"},
		{"set drawing", func(c *Client) error {
			return c.SetDrawing(ctx, []protocol.DrawingPoint{{T: 0, X: 0.5, Y: 0.5, P: 1}, {T: 1, X: 1, Y: 0, P: 0.5}})
		}, "set_drawing (0,0.5,0.5,1),(1,1,0,0.5)\r"},
		{"meta by index", func(c *Client) error { _, err := c.MetaValue(ctx, ByIndex(2)); return err }, "get_metavalue BY_INDEX 2\r"},
		{"meta by name", func(c *Client) error { _, err := c.MetaValue(ctx, ByName("Wind Speed")); return err }, "get_metavalue BY_NAME \"Wind Speed\"\r"},
		{"set meta by name", func(c *Client) error { return c.SetMetaValue(ctx, ByName("Mass"), 0.5) }, "set_metavalue BY_NAME \"Mass\" 0.5\r"},
		{"set curve by index", func(c *Client) error {
			return c.SetCurveValue(ctx, ByIndex(0), protocol.CurveValue{
				Points:   []protocol.CurvePoint{{X: 0, Y: 0}, {X: 1, Y: 1}},
				Duration: 0.56,
				IsLoop:   true,
			})
		}, "set_curvevalue BY_INDEX 0 \"(0,0),(1,1)\" 0.56 1\r"},
		{"set curve by name", func(c *Client) error {
			return c.SetCurveValue(ctx, ByName("Gust"), protocol.CurveValue{Duration: 2})
		}, "set_curvevalue BY_NAME \"Gust\" \"\" 2 0\r"},
		{"play", func(c *Client) error { return c.Play(ctx) }, "play\r"},
		{"events off", func(c *Client) error { return c.EnableEvents(ctx, false) }, "enable_events 0\r"},
		{"message", func(c *Client) error { return c.WindowMessage(ctx, "hello", ButtonRetryExit) }, "window_message hello RETRY_EXIT\r"},
		{"rendering", func(c *Client) error { return c.WindowRendering(ctx, true, false) }, "window_rendering 1 0\r"},
		{"params", func(c *Client) error {
			return c.WindowParameters(ctx, Bool{Name: "Loud", Default: true}, Label{Text: "Hi", Type: LabelHeader, Align: AlignCenter})
		}, "window_parameters {BOOL,\"Loud\",TRUE} {LABEL,\"Hi\",HEADER,CENTER}\r"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newTestClient(t, map[string]string{
				protocol.CmdGetMetaValue: "0.5",
			})
			require.NoError(t, tt.call(c))
			require.Len(t, rec.requests, 1)
			assert.Equal(t, tt.want, rec.requests[0])
		})
	}
}

func TestDecodedResults(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, map[string]string{
		protocol.CmdGetVersion:      "2024.1.3\r",
		protocol.CmdGetModels:       "Impacts,Whooshes,Wind,",
		protocol.CmdQueryTags:       "",
		protocol.CmdGetVariation:    "0.75",
		protocol.CmdGetMetaCount:    "3\r",
		protocol.CmdIsPlaying:       "1",
		protocol.CmdIsInfinite:      "0",
		protocol.CmdGetDrawing:      "(0,0,0,0)(bad)(1,1,1,1)",
		protocol.CmdGetCurveValue:   "(0,0)(1,1) label 0.56 0",
		protocol.CmdGetSampleRate:   "48000",
		protocol.CmdGetPatchName:    "Gentle Breeze",
		protocol.CmdGetCurveNames:   "Gust,Whistle",
		protocol.CmdGetMetaNames:    "Speed",
		protocol.CmdQueryPatchNames: "Breeze A,Breeze B",
	})

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024.1.3", v)

	models, err := c.Models(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Impacts", "Whooshes", "Wind"}, models)

	tags, err := c.QueryTags(ctx)
	require.NoError(t, err)
	assert.NotNil(t, tags)
	assert.Empty(t, tags)

	variation, err := c.Variation(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.75, variation)

	n, err := c.MetaCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	playing, err := c.IsPlaying(ctx)
	require.NoError(t, err)
	assert.True(t, playing)

	infinite, err := c.IsInfinite(ctx)
	require.NoError(t, err)
	assert.False(t, infinite)

	drawing, err := c.Drawing(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, drawing, 2)

	cv, err := c.CurveValue(ctx, ByName("Gust"))
	require.NoError(t, err)
	assert.Len(t, cv.Points, 2)
	assert.Equal(t, 0.56, cv.Duration)
	assert.False(t, cv.IsLoop)

	rate, err := c.SampleRate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "48000", rate)

	hits, err := c.QueryPatchNames(ctx, "Breeze", PatchQuery{Name: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Breeze A", "Breeze B"}, hits)
}

func TestMalformedScalar(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, map[string]string{
		protocol.CmdGetVariation:   "loud",
		protocol.CmdGetCurvesCount: "",
		protocol.CmdIsRandomized:   "yes",
		protocol.CmdGetCurveValue:  "(0,0) 1",
	})

	_, err := c.Variation(ctx)
	assert.True(t, gserrors.IsMalformedResponse(err), "variation: %v", err)
	_, err = c.CurveCount(ctx)
	assert.True(t, gserrors.IsMalformedResponse(err), "curve count: %v", err)
	_, err = c.IsRandomized(ctx)
	assert.True(t, gserrors.IsMalformedResponse(err), "randomized: %v", err)
	_, err = c.CurveValue(ctx, ByIndex(0))
	assert.True(t, gserrors.IsMalformedResponse(err), "curve value: %v", err)
}

func TestTransportErrorKeepsKind(t *testing.T) {
	c, rec := newTestClient(t, nil)
	rec.err = gserrors.NewReceiveTimeoutError("no response after 11 attempts", nil)

	_, err := c.Version(context.Background())
	require.Error(t, err)
	assert.True(t, gserrors.IsReceiveTimeout(err))
	assert.Contains(t, err.Error(), protocol.CmdGetVersion)
	assert.False(t, c.Ping(context.Background()))
}

func TestPingSendsDelimiterOnly(t *testing.T) {
	c, rec := newTestClient(t, nil)
	assert.True(t, c.Ping(context.Background()))
	assert.Equal(t, []string{"\r"}, rec.requests)
}

// ---------------------------------------------------------------------------
// Local preconditions: no exchange happens
// ---------------------------------------------------------------------------

func TestWindowParametersEmpty(t *testing.T) {
	c, rec := newTestClient(t, nil)

	err := c.WindowParameters(context.Background())
	assert.True(t, gserrors.IsInvalidArgument(err))
	assert.Empty(t, rec.requests)
}

func TestWindowParametersAllSkipped(t *testing.T) {
	c, rec := newTestClient(t, nil)

	err := c.WindowParameters(context.Background(),
		Enum{Name: "Empty"},
		Number{Name: "Bad", Type: NumberType(9)},
		nil,
	)
	assert.True(t, gserrors.IsInvalidArgument(err))
	assert.Empty(t, rec.requests)
}

func TestWindowParametersSkipsInvalid(t *testing.T) {
	c, rec := newTestClient(t, nil)

	err := c.WindowParameters(context.Background(),
		Enum{Name: "Empty"},
		Bool{Name: "Ok"},
	)
	require.NoError(t, err)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, "window_parameters {BOOL,\"Ok\",FALSE}\r", rec.requests[0])
}

func TestWindowMessageUnknownButton(t *testing.T) {
	c, rec := newTestClient(t, nil)

	err := c.WindowMessage(context.Background(), "hi", Button(42))
	assert.True(t, gserrors.IsInvalidArgument(err))
	assert.Empty(t, rec.requests)
}

func TestParseButton(t *testing.T) {
	for _, b := range []Button{ButtonOK, ButtonOKCancel, ButtonYesNo, ButtonRetryExit} {
		got, err := ParseButton(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseButton("MAYBE")
	assert.True(t, gserrors.IsInvalidArgument(err))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "index 3", ByIndex(3).String())
	assert.Equal(t, `name "Mass"`, ByName("Mass").String())
}
