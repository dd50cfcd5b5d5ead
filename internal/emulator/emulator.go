package emulator

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/codewiresh/gsapi/internal/protocol"
)

// RepoPatch is a repository entry the emulator can find and load.
type RepoPatch struct {
	Name     string
	Model    string
	Category string
	Tags     []string
}

// Render is one accepted render_patch request.
type Render struct {
	Path     string
	BitDepth int
	Channels int
	Duration int
}

type metaParam struct {
	name  string
	value float64
}

type curve struct {
	name  string
	value protocol.CurveValue
}

// Emulator is a stateful Handler that behaves like a Tool with one patch
// open. The zero value is not usable; call New.
type Emulator struct {
	mu sync.Mutex

	version    string
	models     []string
	model      string
	patch      string
	sampleRate string
	variation  float64
	meta       []metaParam
	curves     []curve
	drawing    []protocol.DrawingPoint
	playing    bool
	infinite   bool
	randomized bool
	events     bool
	front      bool
	paths      map[string]string
	repo       []RepoPatch
	saved      []string
	renders    []Render
	messages   []string
	dialogs    [][]string

	commands map[string]func([]string) (string, error)
}

// New returns an Emulator with a small wind patch loaded.
func New() *Emulator {
	e := &Emulator{
		version:    "2024.1.0-emulator",
		models:     []string{"Impacts", "Particles", "Whooshes", "Wind"},
		model:      "Wind",
		patch:      "Gentle Breeze",
		sampleRate: "44100",
		variation:  0.5,
		meta: []metaParam{
			{name: "Speed", value: 0.5},
			{name: "Gustiness", value: 0.25},
		},
		curves: []curve{
			{name: "Gust", value: protocol.CurveValue{
				Points:   []protocol.CurvePoint{{X: 0, Y: 0}, {X: 1, Y: 1}},
				Duration: 1,
			}},
		},
		paths: make(map[string]string),
		repo: []RepoPatch{
			{Name: "Gentle Breeze", Model: "Wind", Category: "WIND", Tags: []string{"soft", "outdoor"}},
			{Name: "Storm Front", Model: "Wind", Category: "WIND", Tags: []string{"loud", "outdoor"}},
			{Name: "Sword Swing", Model: "Whooshes", Category: "WHOOSH", Tags: []string{"fast"}},
			{Name: "Glass Drop", Model: "Impacts", Category: "GLASS", Tags: []string{"fast", "break"}},
		},
	}
	for _, name := range protocol.PathNames() {
		e.paths[name] = "/gamesynth/" + strings.ToLower(name)
	}
	e.commands = e.commandTable()
	return e
}

// Handle implements Handler.
func (e *Emulator) Handle(_ context.Context, req protocol.Request) (string, error) {
	fn, ok := e.commands[req.Command]
	if !ok {
		return "", fmt.Errorf("unknown command %q", req.Command)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(req.Args)
}

// Renders returns the accepted render requests.
func (e *Emulator) Renders() []Render {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.renders)
}

// Messages returns the texts shown with window_message.
func (e *Emulator) Messages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.messages)
}

// Dialogs returns the raw parameter tokens of every window_parameters call.
func (e *Emulator) Dialogs() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.dialogs)
}

// SetRepository replaces the repository contents.
func (e *Emulator) SetRepository(patches []RepoPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.repo = slices.Clone(patches)
}

func (e *Emulator) commandTable() map[string]func([]string) (string, error) {
	reply := func(s string) func([]string) (string, error) {
		return func([]string) (string, error) { return s, nil }
	}
	return map[string]func([]string) (string, error){
		protocol.CmdGetVersion:  func([]string) (string, error) { return e.version, nil },
		protocol.CmdGetCommands: reply(strings.Join(protocol.Commands(), ",")),
		protocol.CmdGetModels:   func([]string) (string, error) { return strings.Join(e.models, ","), nil },
		protocol.CmdSelectModel: e.selectModel,
		protocol.CmdGetPath:     e.getPath,
		protocol.CmdGetSampleRate: func([]string) (string, error) {
			return e.sampleRate, nil
		},
		protocol.CmdSetSampleRate: func(args []string) (string, error) {
			if err := wantArgs(args, 1); err != nil {
				return "", err
			}
			e.sampleRate = args[0]
			return "", nil
		},

		protocol.CmdQueryPatchNames: e.queryPatchNames,
		protocol.CmdQueryPatch:      e.queryPatch,
		protocol.CmdQueryCategories: func([]string) (string, error) {
			return e.repoValues(func(p RepoPatch) []string { return []string{p.Category} }), nil
		},
		protocol.CmdQueryTags: func([]string) (string, error) {
			return e.repoValues(func(p RepoPatch) []string { return p.Tags }), nil
		},

		protocol.CmdLoadPatch: func(args []string) (string, error) {
			if len(args) == 0 {
				return "", fmt.Errorf("load_patch: missing path")
			}
			path := strings.Join(args, " ")
			e.patch = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			return "", nil
		},
		protocol.CmdSavePatch: func(args []string) (string, error) {
			if len(args) == 0 {
				return "", fmt.Errorf("save_patch: missing path")
			}
			e.saved = append(e.saved, strings.Join(args, " "))
			return "", nil
		},
		protocol.CmdRenderPatch:  e.renderPatch,
		protocol.CmdGetModelName: func([]string) (string, error) { return e.model, nil },
		protocol.CmdGetPatchName: func([]string) (string, error) { return e.patch, nil },
		protocol.CmdGetVariation: func([]string) (string, error) {
			return protocol.FormatFloat(e.variation), nil
		},
		protocol.CmdSetVariation: func(args []string) (string, error) {
			v, err := floatArg(args, 0)
			if err != nil {
				return "", err
			}
			e.variation = v
			return "", nil
		},
		protocol.CmdGetDrawing: func(args []string) (string, error) {
			i, err := intArg(args, 0)
			if err != nil {
				return "", err
			}
			if i != 0 {
				return "", nil
			}
			return protocol.FormatDrawing(e.drawing), nil
		},
		protocol.CmdSetDrawing: func(args []string) (string, error) {
			points, err := protocol.DecodeDrawing(strings.Join(args, ""))
			if err != nil {
				return "", err
			}
			e.drawing = points
			return "", nil
		},

		protocol.CmdGetMetaCount: func([]string) (string, error) {
			return protocol.FormatInt(len(e.meta)), nil
		},
		protocol.CmdGetMetaNames: func([]string) (string, error) {
			return strings.Join(e.metaNames(), ","), nil
		},
		protocol.CmdGetMetaName: func(args []string) (string, error) {
			i, err := e.metaIndex(protocol.ByIndexToken, args)
			if err != nil {
				return "", err
			}
			return e.meta[i].name, nil
		},
		protocol.CmdGetMetaValue: func(args []string) (string, error) {
			if len(args) != 2 {
				return "", fmt.Errorf("get_metavalue: want 2 args, got %d", len(args))
			}
			i, err := e.metaIndex(args[0], args[1:])
			if err != nil {
				return "", err
			}
			return protocol.FormatFloat(e.meta[i].value), nil
		},
		protocol.CmdSetMetaValue: func(args []string) (string, error) {
			if len(args) != 3 {
				return "", fmt.Errorf("set_metavalue: want 3 args, got %d", len(args))
			}
			i, err := e.metaIndex(args[0], args[1:2])
			if err != nil {
				return "", err
			}
			v, err := floatArg(args, 2)
			if err != nil {
				return "", err
			}
			e.meta[i].value = v
			return "", nil
		},

		protocol.CmdGetCurvesCount: func([]string) (string, error) {
			return protocol.FormatInt(len(e.curves)), nil
		},
		protocol.CmdGetCurveNames: func([]string) (string, error) {
			return strings.Join(e.curveNames(), ","), nil
		},
		protocol.CmdGetCurveName: func(args []string) (string, error) {
			i, err := e.curveIndex(protocol.ByIndexToken, args)
			if err != nil {
				return "", err
			}
			return e.curves[i].name, nil
		},
		protocol.CmdGetCurveValue: e.getCurveValue,
		protocol.CmdSetCurveValue: e.setCurveValue,

		protocol.CmdPlay: func([]string) (string, error) {
			e.playing = true
			return "", nil
		},
		protocol.CmdStop: func([]string) (string, error) {
			e.playing = false
			return "", nil
		},
		protocol.CmdIsPlaying:    func([]string) (string, error) { return protocol.FormatFlag(e.playing), nil },
		protocol.CmdIsInfinite:   func([]string) (string, error) { return protocol.FormatFlag(e.infinite), nil },
		protocol.CmdIsRandomized: func([]string) (string, error) { return protocol.FormatFlag(e.randomized), nil },
		protocol.CmdEnableEvents: func(args []string) (string, error) {
			on, err := flagArg(args, 0)
			if err != nil {
				return "", err
			}
			e.events = on
			return "", nil
		},

		protocol.CmdWindowBack: func([]string) (string, error) {
			e.front = false
			return "", nil
		},
		protocol.CmdWindowFront: func([]string) (string, error) {
			e.front = true
			return "", nil
		},
		protocol.CmdWindowTest: reply(""),
		protocol.CmdWindowMessage: func(args []string) (string, error) {
			if len(args) < 2 {
				return "", fmt.Errorf("window_message: want text and button")
			}
			e.messages = append(e.messages, strings.Join(args[:len(args)-1], " "))
			return "", nil
		},
		protocol.CmdWindowParameters: func(args []string) (string, error) {
			if len(args) == 0 {
				return "", fmt.Errorf("window_parameters: no parameters")
			}
			e.dialogs = append(e.dialogs, slices.Clone(args))
			return "", nil
		},
		protocol.CmdWindowRendering: func(args []string) (string, error) {
			if err := wantArgs(args, 2); err != nil {
				return "", err
			}
			return "", nil
		},
	}
}

func (e *Emulator) selectModel(args []string) (string, error) {
	if err := wantArgs(args, 1); err != nil {
		return "", err
	}
	if !slices.Contains(e.models, args[0]) {
		return "", fmt.Errorf("unknown model %q", args[0])
	}
	e.model = args[0]
	e.patch = "Untitled"
	return "", nil
}

func (e *Emulator) getPath(args []string) (string, error) {
	if err := wantArgs(args, 1); err != nil {
		return "", err
	}
	p, ok := e.paths[args[0]]
	if !ok {
		return "", fmt.Errorf("unknown path %q", args[0])
	}
	return p, nil
}

func (e *Emulator) queryPatchNames(args []string) (string, error) {
	if len(args) < 4 {
		return "", fmt.Errorf("query_patchnames: want text and 3 flags")
	}
	n := len(args)
	text := strings.ToLower(strings.Join(args[:n-3], " "))
	var flags [3]bool
	for i := range flags {
		f, err := flagArg(args, n-3+i)
		if err != nil {
			return "", err
		}
		flags[i] = f
	}

	var hits []string
	for _, p := range e.repo {
		match := flags[0] && strings.Contains(strings.ToLower(p.Name), text) ||
			flags[1] && strings.Contains(strings.ToLower(p.Category), text) ||
			flags[2] && slices.ContainsFunc(p.Tags, func(t string) bool {
				return strings.Contains(strings.ToLower(t), text)
			})
		if match {
			hits = append(hits, p.Name)
		}
	}
	return strings.Join(hits, ","), nil
}

func (e *Emulator) queryPatch(args []string) (string, error) {
	name := strings.Join(args, " ")
	for _, p := range e.repo {
		if p.Name == name {
			e.patch = p.Name
			e.model = p.Model
			return "", nil
		}
	}
	return "", fmt.Errorf("no repository patch %q", name)
}

func (e *Emulator) repoValues(field func(RepoPatch) []string) string {
	var out []string
	for _, p := range e.repo {
		for _, v := range field(p) {
			if !slices.Contains(out, v) {
				out = append(out, v)
			}
		}
	}
	slices.Sort(out)
	return strings.Join(out, ",")
}

func (e *Emulator) renderPatch(args []string) (string, error) {
	if len(args) < 4 {
		return "", fmt.Errorf("render_patch: want path and 3 numbers")
	}
	n := len(args)
	r := Render{Path: strings.Join(args[:n-3], " ")}
	var err error
	if r.BitDepth, err = intArg(args, n-3); err != nil {
		return "", err
	}
	if r.Channels, err = intArg(args, n-2); err != nil {
		return "", err
	}
	if r.Duration, err = intArg(args, n-1); err != nil {
		return "", err
	}
	e.renders = append(e.renders, r)
	return "", nil
}

func (e *Emulator) getCurveValue(args []string) (string, error) {
	if len(args) != 2 {
		return "", fmt.Errorf("get_curvevalue: want 2 args, got %d", len(args))
	}
	i, err := e.curveIndex(args[0], args[1:])
	if err != nil {
		return "", err
	}
	c := e.curves[i]
	label := strings.ReplaceAll(c.name, " ", "_")
	return fmt.Sprintf("%s %s %s %s",
		protocol.FormatCurvePoints(c.value.Points), label,
		protocol.FormatFloat(c.value.Duration), protocol.FormatFlag(c.value.IsLoop)), nil
}

func (e *Emulator) setCurveValue(args []string) (string, error) {
	if len(args) != 5 {
		return "", fmt.Errorf("set_curvevalue: want 5 args, got %d", len(args))
	}
	i, err := e.curveIndex(args[0], args[1:2])
	if err != nil {
		return "", err
	}
	points, err := protocol.DecodeCurvePoints(protocol.Unquote(args[2]))
	if err != nil {
		return "", err
	}
	duration, err := floatArg(args, 3)
	if err != nil {
		return "", err
	}
	loop, err := flagArg(args, 4)
	if err != nil {
		return "", err
	}
	e.curves[i].value = protocol.CurveValue{Points: points, Duration: duration, IsLoop: loop}
	return "", nil
}

func (e *Emulator) metaNames() []string {
	names := make([]string, len(e.meta))
	for i, m := range e.meta {
		names[i] = m.name
	}
	return names
}

func (e *Emulator) curveNames() []string {
	names := make([]string, len(e.curves))
	for i, c := range e.curves {
		names[i] = c.name
	}
	return names
}

func (e *Emulator) metaIndex(mode string, args []string) (int, error) {
	return resolve("meta parameter", e.metaNames(), mode, args)
}

func (e *Emulator) curveIndex(mode string, args []string) (int, error) {
	return resolve("curve", e.curveNames(), mode, args)
}

// resolve maps a BY_INDEX/BY_NAME selector to a position in names.
func resolve(what string, names []string, mode string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("%s selector: want 1 arg, got %d", what, len(args))
	}
	switch mode {
	case protocol.ByIndexToken:
		i, err := intArg(args, 0)
		if err != nil {
			return 0, err
		}
		if i < 0 || i >= len(names) {
			return 0, fmt.Errorf("%s index %d out of range", what, i)
		}
		return i, nil
	case protocol.ByNameToken:
		name := protocol.Unquote(args[0])
		i := slices.Index(names, name)
		if i < 0 {
			return 0, fmt.Errorf("no %s named %q", what, name)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("unknown selector %q", mode)
	}
}

func wantArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("want %d args, got %d", n, len(args))
	}
	return nil
}

func floatArg(args []string, i int) (float64, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	return protocol.ParseFloat(args[i])
}

func intArg(args []string, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	return protocol.ParseInt(args[i])
}

func flagArg(args []string, i int) (bool, error) {
	if i >= len(args) {
		return false, fmt.Errorf("missing argument %d", i)
	}
	return protocol.ParseFlag(args[i])
}
