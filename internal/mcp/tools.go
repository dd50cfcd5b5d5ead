package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/codewiresh/gsapi/internal/client"
)

type registeredTool struct {
	def     mcp.Tool
	handler server.ToolHandlerFunc
}

// ---------------------------------------------------------------------------
// Tool definitions
// ---------------------------------------------------------------------------

func schema(required []string, props map[string]interface{}) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": description}
}

func metaKeyProps() map[string]interface{} {
	return map[string]interface{}{
		"name":  prop("string", "Meta parameter name"),
		"index": prop("integer", "Meta parameter index, used when name is empty"),
	}
}

func (b *bridge) tools() []registeredTool {
	withValue := metaKeyProps()
	withValue["value"] = prop("number", "New value")

	return []registeredTool{
		{
			def: mcp.Tool{
				Name:        "gs_status",
				Description: "Show the current model, patch, variation, meta parameters and playback state",
				InputSchema: schema(nil, map[string]interface{}{}),
			},
			handler: b.status,
		},
		{
			def: mcp.Tool{
				Name:        "gs_play",
				Description: "Start playback of the current patch",
				InputSchema: schema(nil, map[string]interface{}{}),
			},
			handler: b.play,
		},
		{
			def: mcp.Tool{
				Name:        "gs_stop",
				Description: "Stop playback",
				InputSchema: schema(nil, map[string]interface{}{}),
			},
			handler: b.stop,
		},
		{
			def: mcp.Tool{
				Name:        "gs_get_meta",
				Description: "Read a meta parameter by name or index",
				InputSchema: schema(nil, metaKeyProps()),
			},
			handler: b.getMeta,
		},
		{
			def: mcp.Tool{
				Name:        "gs_set_meta",
				Description: "Set a meta parameter by name or index",
				InputSchema: schema([]string{"value"}, withValue),
			},
			handler: b.setMeta,
		},
		{
			def: mcp.Tool{
				Name:        "gs_load_patch",
				Description: "Open a patch file in the Tool",
				InputSchema: schema([]string{"path"}, map[string]interface{}{
					"path": prop("string", "Path of the .gspatch file"),
				}),
			},
			handler: b.loadPatch,
		},
		{
			def: mcp.Tool{
				Name:        "gs_render_patch",
				Description: "Render the current patch to an audio file",
				InputSchema: schema([]string{"path"}, map[string]interface{}{
					"path":      prop("string", "Output file path"),
					"bit_depth": prop("integer", "Bits per sample (default: 16)"),
					"channels":  prop("integer", "Channel count (default: 2)"),
					"duration":  prop("integer", "Duration in seconds (default: 1)"),
				}),
			},
			handler: b.renderPatch,
		},
		{
			def: mcp.Tool{
				Name:        "gs_query_patches",
				Description: "Search the Tool's patch repository, or the local catalog when local is true",
				InputSchema: schema([]string{"text"}, map[string]interface{}{
					"text":  prop("string", "Search text"),
					"local": prop("boolean", "Search the local patch catalog instead (default: false)"),
				}),
			},
			handler: b.queryPatches,
		},
	}
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

// failed turns a tool failure into an error result the agent can read.
func (b *bridge) failed(tool string, err error) (*mcp.CallToolResult, error) {
	b.log.Debug().Err(err).Str("tool", tool).Msg("tool call failed")
	return mcp.NewToolResultError(err.Error()), nil
}

func (b *bridge) status(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := b.cl.Snapshot(ctx)
	if err != nil {
		return b.failed("gs_status", err)
	}
	out, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return b.failed("gs_status", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (b *bridge) play(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := b.cl.Play(ctx); err != nil {
		return b.failed("gs_play", err)
	}
	return mcp.NewToolResultText("Playing"), nil
}

func (b *bridge) stop(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := b.cl.Stop(ctx); err != nil {
		return b.failed("gs_stop", err)
	}
	return mcp.NewToolResultText("Stopped"), nil
}

type metaArgs struct {
	Name  string   `json:"name"`
	Index *int     `json:"index"`
	Value *float64 `json:"value"`
}

func (a metaArgs) key() (client.Key, error) {
	if a.Name != "" {
		return client.ByName(a.Name), nil
	}
	if a.Index == nil {
		return client.Key{}, errors.New("need 'name' or 'index'")
	}
	if *a.Index < 0 {
		return client.Key{}, errors.New("'index' must be non-negative")
	}
	return client.ByIndex(*a.Index), nil
}

func (b *bridge) getMeta(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args metaArgs
	if err := request.BindArguments(&args); err != nil {
		return b.failed("gs_get_meta", fmt.Errorf("invalid arguments: %w", err))
	}
	key, err := args.key()
	if err != nil {
		return b.failed("gs_get_meta", err)
	}
	v, err := b.cl.MetaValue(ctx, key)
	if err != nil {
		return b.failed("gs_get_meta", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s = %g", key, v)), nil
}

func (b *bridge) setMeta(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args metaArgs
	if err := request.BindArguments(&args); err != nil {
		return b.failed("gs_set_meta", fmt.Errorf("invalid arguments: %w", err))
	}
	key, err := args.key()
	if err != nil {
		return b.failed("gs_set_meta", err)
	}
	if args.Value == nil {
		return b.failed("gs_set_meta", errors.New("missing 'value'"))
	}
	if err := b.cl.SetMetaValue(ctx, key, *args.Value); err != nil {
		return b.failed("gs_set_meta", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Set %s to %g", key, *args.Value)), nil
}

func (b *bridge) loadPatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Path string `json:"path"`
	}
	if err := request.BindArguments(&args); err != nil {
		return b.failed("gs_load_patch", fmt.Errorf("invalid arguments: %w", err))
	}
	if args.Path == "" {
		return b.failed("gs_load_patch", errors.New("missing 'path'"))
	}
	if err := b.cl.LoadPatch(ctx, args.Path); err != nil {
		return b.failed("gs_load_patch", err)
	}
	return mcp.NewToolResultText("Loaded " + args.Path), nil
}

func (b *bridge) renderPatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := client.RenderOptions{BitDepth: 16, Channels: 2, Duration: 1}
	args := struct {
		Path     *string `json:"path"`
		BitDepth *int    `json:"bit_depth"`
		Channels *int    `json:"channels"`
		Duration *int    `json:"duration"`
	}{
		Path:     &opts.Path,
		BitDepth: &opts.BitDepth,
		Channels: &opts.Channels,
		Duration: &opts.Duration,
	}
	if err := request.BindArguments(&args); err != nil {
		return b.failed("gs_render_patch", fmt.Errorf("invalid arguments: %w", err))
	}
	if opts.Path == "" {
		return b.failed("gs_render_patch", errors.New("missing 'path'"))
	}
	if err := b.cl.RenderPatch(ctx, opts); err != nil {
		return b.failed("gs_render_patch", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Render of %s requested (%d-bit, %d ch, %ds)",
		opts.Path, opts.BitDepth, opts.Channels, opts.Duration)), nil
}

func (b *bridge) queryPatches(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Text  string `json:"text"`
		Local bool   `json:"local"`
	}
	if err := request.BindArguments(&args); err != nil {
		return b.failed("gs_query_patches", fmt.Errorf("invalid arguments: %w", err))
	}
	if args.Text == "" {
		return b.failed("gs_query_patches", errors.New("missing 'text'"))
	}

	if args.Local {
		if b.catalog == nil {
			return b.failed("gs_query_patches", errors.New("no local catalog configured"))
		}
		recs, err := b.catalog.PatchSearch(ctx, args.Text)
		if err != nil {
			return b.failed("gs_query_patches", err)
		}
		if len(recs) == 0 {
			return mcp.NewToolResultText("No patches found"), nil
		}
		var sb strings.Builder
		for _, r := range recs {
			fmt.Fprintf(&sb, "%s\t%s\n", r.PatchName, r.FilePath)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}

	names, err := b.cl.QueryPatchNames(ctx, args.Text, client.PatchQuery{Name: true, Category: true, Tags: true})
	if err != nil {
		return b.failed("gs_query_patches", err)
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("No patches found"), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}
