package client

import (
	"context"
	"fmt"

	"github.com/codewiresh/gsapi/internal/connection"
	gserrors "github.com/codewiresh/gsapi/internal/errors"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// ---------------------------------------------------------------------------
// Tool
// ---------------------------------------------------------------------------

// Ping reports whether the Tool accepted a connection and answered a bare
// delimiter. The reply content is ignored.
func (c *Client) Ping(ctx context.Context) bool {
	payload, err := c.codec.EncodeString(c.conn.Delimiter)
	if err != nil {
		return false
	}
	return connection.IsReachable(ctx, c.ex, string(payload))
}

// Version returns the Tool's version string.
func (c *Client) Version(ctx context.Context) (string, error) {
	return c.scalar(ctx, protocol.CmdGetVersion)
}

// Commands returns the command names the Tool advertises.
func (c *Client) Commands(ctx context.Context) ([]string, error) {
	return c.list(ctx, protocol.CmdGetCommands)
}

// Models returns the names of the installed procedural models.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	return c.list(ctx, protocol.CmdGetModels)
}

// SelectModel switches the Tool to the named model.
func (c *Client) SelectModel(ctx context.Context, name string) error {
	return c.exec(ctx, protocol.CmdSelectModel, name)
}

// Path returns one of the Tool's system paths, e.g. PATCH_FOLDER.
func (c *Client) Path(ctx context.Context, name string) (string, error) {
	return c.scalar(ctx, protocol.CmdGetPath, name)
}

// SampleRate returns the current output sample rate as the Tool reports it.
func (c *Client) SampleRate(ctx context.Context) (string, error) {
	return c.scalar(ctx, protocol.CmdGetSampleRate)
}

// SetSampleRate sets the output sample rate.
func (c *Client) SetSampleRate(ctx context.Context, rate string) error {
	return c.exec(ctx, protocol.CmdSetSampleRate, rate)
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

// PatchQuery selects which patch fields a repository search matches.
type PatchQuery struct {
	Name     bool
	Category bool
	Tags     bool
}

// QueryPatchNames searches the repository for text in the selected fields.
func (c *Client) QueryPatchNames(ctx context.Context, text string, q PatchQuery) ([]string, error) {
	return c.list(ctx, protocol.CmdQueryPatchNames, text,
		protocol.FormatFlag(q.Name),
		protocol.FormatFlag(q.Category),
		protocol.FormatFlag(q.Tags),
	)
}

// QueryPatch loads the named repository patch into the Tool.
func (c *Client) QueryPatch(ctx context.Context, name string) error {
	return c.exec(ctx, protocol.CmdQueryPatch, name)
}

// QueryCategories returns the repository's category names.
func (c *Client) QueryCategories(ctx context.Context) ([]string, error) {
	return c.list(ctx, protocol.CmdQueryCategories)
}

// QueryTags returns the repository's tag names.
func (c *Client) QueryTags(ctx context.Context) ([]string, error) {
	return c.list(ctx, protocol.CmdQueryTags)
}

// ---------------------------------------------------------------------------
// Patch
// ---------------------------------------------------------------------------

// LoadPatch opens a patch file.
func (c *Client) LoadPatch(ctx context.Context, path string) error {
	return c.exec(ctx, protocol.CmdLoadPatch, path)
}

// SavePatch saves the current patch to path.
func (c *Client) SavePatch(ctx context.Context, path string) error {
	return c.exec(ctx, protocol.CmdSavePatch, path)
}

// RenderOptions describes an offline render of the current patch.
type RenderOptions struct {
	Path     string
	BitDepth int
	Channels int
	// Duration is whole seconds.
	Duration int
}

// RenderPatch asks the Tool to render the current patch to a file. A nil
// error means the request was accepted, not that rendering has finished.
func (c *Client) RenderPatch(ctx context.Context, opts RenderOptions) error {
	return c.exec(ctx, protocol.CmdRenderPatch, opts.Path,
		protocol.FormatInt(opts.BitDepth),
		protocol.FormatInt(opts.Channels),
		protocol.FormatInt(opts.Duration),
	)
}

// ModelName returns the model of the current patch.
func (c *Client) ModelName(ctx context.Context) (string, error) {
	return c.scalar(ctx, protocol.CmdGetModelName)
}

// PatchName returns the name of the current patch.
func (c *Client) PatchName(ctx context.Context) (string, error) {
	return c.scalar(ctx, protocol.CmdGetPatchName)
}

// Variation returns the current variation amount.
func (c *Client) Variation(ctx context.Context) (float64, error) {
	return c.float(ctx, protocol.CmdGetVariation)
}

// SetVariation sets the variation amount.
func (c *Client) SetVariation(ctx context.Context, v float64) error {
	return c.exec(ctx, protocol.CmdSetVariation, protocol.FormatFloat(v))
}

// Drawing returns the drawing with the given index. Malformed points in the
// reply are skipped.
func (c *Client) Drawing(ctx context.Context, index int) ([]protocol.DrawingPoint, error) {
	resp, err := c.roundTrip(ctx, protocol.CmdGetDrawing, protocol.FormatInt(index))
	if err != nil {
		return nil, err
	}
	points, err := protocol.DecodeDrawing(resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", protocol.CmdGetDrawing, err)
	}
	return points, nil
}

// SetDrawing replaces the current drawing. Points are sent as given; range
// checking is left to the caller (see DrawingPoint.Validate).
func (c *Client) SetDrawing(ctx context.Context, points []protocol.DrawingPoint) error {
	return c.exec(ctx, protocol.CmdSetDrawing, protocol.FormatDrawing(points))
}

// ---------------------------------------------------------------------------
// Meta parameters
// ---------------------------------------------------------------------------

// MetaCount returns the number of meta parameters of the current patch.
func (c *Client) MetaCount(ctx context.Context) (int, error) {
	return c.int(ctx, protocol.CmdGetMetaCount)
}

// MetaNames returns every meta parameter name.
func (c *Client) MetaNames(ctx context.Context) ([]string, error) {
	return c.list(ctx, protocol.CmdGetMetaNames)
}

// MetaName returns the name of the meta parameter at index.
func (c *Client) MetaName(ctx context.Context, index int) (string, error) {
	return c.scalar(ctx, protocol.CmdGetMetaName, protocol.FormatInt(index))
}

// MetaValue returns the value of the selected meta parameter.
func (c *Client) MetaValue(ctx context.Context, key Key) (float64, error) {
	return c.float(ctx, protocol.CmdGetMetaValue, key.args()...)
}

// SetMetaValue sets the selected meta parameter.
func (c *Client) SetMetaValue(ctx context.Context, key Key, v float64) error {
	args := append(key.args(), protocol.FormatFloat(v))
	return c.exec(ctx, protocol.CmdSetMetaValue, args...)
}

// ---------------------------------------------------------------------------
// Automation curves
// ---------------------------------------------------------------------------

// CurveCount returns the number of automation curves.
func (c *Client) CurveCount(ctx context.Context) (int, error) {
	return c.int(ctx, protocol.CmdGetCurvesCount)
}

// CurveNames returns every curve name.
func (c *Client) CurveNames(ctx context.Context) ([]string, error) {
	return c.list(ctx, protocol.CmdGetCurveNames)
}

// CurveName returns the name of the curve at index.
func (c *Client) CurveName(ctx context.Context, index int) (string, error) {
	return c.scalar(ctx, protocol.CmdGetCurveName, protocol.FormatInt(index))
}

// CurveValue returns the selected curve.
func (c *Client) CurveValue(ctx context.Context, key Key) (protocol.CurveValue, error) {
	resp, err := c.roundTrip(ctx, protocol.CmdGetCurveValue, key.args()...)
	if err != nil {
		return protocol.CurveValue{}, err
	}
	cv, err := protocol.DecodeCurveRecord(resp)
	if err != nil {
		return protocol.CurveValue{}, fmt.Errorf("%s: %w", protocol.CmdGetCurveValue, err)
	}
	return cv, nil
}

// SetCurveValue replaces the selected curve.
func (c *Client) SetCurveValue(ctx context.Context, key Key, cv protocol.CurveValue) error {
	args := append(key.args(),
		protocol.Quote(protocol.FormatCurvePoints(cv.Points)),
		protocol.FormatFloat(cv.Duration),
		protocol.FormatFlag(cv.IsLoop),
	)
	return c.exec(ctx, protocol.CmdSetCurveValue, args...)
}

// ---------------------------------------------------------------------------
// Playback
// ---------------------------------------------------------------------------

// Play starts playback of the current patch.
func (c *Client) Play(ctx context.Context) error {
	return c.exec(ctx, protocol.CmdPlay)
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context) error {
	return c.exec(ctx, protocol.CmdStop)
}

// IsPlaying reports whether the Tool is playing.
func (c *Client) IsPlaying(ctx context.Context) (bool, error) {
	return c.flag(ctx, protocol.CmdIsPlaying)
}

// IsInfinite reports whether the current patch plays without end.
func (c *Client) IsInfinite(ctx context.Context) (bool, error) {
	return c.flag(ctx, protocol.CmdIsInfinite)
}

// IsRandomized reports whether playback randomization is on.
func (c *Client) IsRandomized(ctx context.Context) (bool, error) {
	return c.flag(ctx, protocol.CmdIsRandomized)
}

// EnableEvents turns Tool event notifications on or off.
func (c *Client) EnableEvents(ctx context.Context, on bool) error {
	return c.exec(ctx, protocol.CmdEnableEvents, protocol.FormatFlag(on))
}

// ---------------------------------------------------------------------------
// User interface
// ---------------------------------------------------------------------------

// WindowBack sends the Tool window behind other windows.
func (c *Client) WindowBack(ctx context.Context) error {
	return c.exec(ctx, protocol.CmdWindowBack)
}

// WindowFront brings the Tool window to the front.
func (c *Client) WindowFront(ctx context.Context) error {
	return c.exec(ctx, protocol.CmdWindowFront)
}

// WindowTest opens the Tool's test window.
func (c *Client) WindowTest(ctx context.Context) error {
	return c.exec(ctx, protocol.CmdWindowTest)
}

// Button selects the buttons of a message window.
type Button int

const (
	ButtonOK Button = iota
	ButtonOKCancel
	ButtonYesNo
	ButtonRetryExit
)

var buttonTokens = map[Button]string{
	ButtonOK:        "OK",
	ButtonOKCancel:  "OK_CANCEL",
	ButtonYesNo:     "YES_NO",
	ButtonRetryExit: "RETRY_EXIT",
}

func (b Button) String() string {
	if s, ok := buttonTokens[b]; ok {
		return s
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// ParseButton maps a wire token such as "YES_NO" back to a Button.
func ParseButton(s string) (Button, error) {
	for b, tok := range buttonTokens {
		if tok == s {
			return b, nil
		}
	}
	return 0, gserrors.NewInvalidArgumentError(fmt.Sprintf("unknown button %q", s), nil)
}

// WindowMessage shows a message box. An unknown button fails before any
// exchange.
func (c *Client) WindowMessage(ctx context.Context, text string, button Button) error {
	tok, ok := buttonTokens[button]
	if !ok {
		return gserrors.NewInvalidArgumentError(fmt.Sprintf("unknown button %d", int(button)), nil)
	}
	return c.exec(ctx, protocol.CmdWindowMessage, text, tok)
}

// WindowParameters opens a dialog built from params. Parameters that cannot
// be encoded are skipped with a warning; if none remain, or none were given,
// the call fails before any exchange.
func (c *Client) WindowParameters(ctx context.Context, params ...Parameter) error {
	if len(params) == 0 {
		return gserrors.NewInvalidArgumentError("window_parameters needs at least one parameter", nil)
	}
	args := make([]string, 0, len(params))
	for i, p := range params {
		enc, err := EncodeParameter(p)
		if err != nil {
			c.log.Warn().Err(err).Int("index", i).Msg("skipping dialog parameter")
			continue
		}
		args = append(args, enc)
	}
	if len(args) == 0 {
		return gserrors.NewInvalidArgumentError("no dialog parameter could be encoded", nil)
	}
	return c.exec(ctx, protocol.CmdWindowParameters, args...)
}

// WindowRendering opens the render window.
func (c *Client) WindowRendering(ctx context.Context, showDuration, showVariations bool) error {
	return c.exec(ctx, protocol.CmdWindowRendering,
		protocol.FormatFlag(showDuration),
		protocol.FormatFlag(showVariations),
	)
}
