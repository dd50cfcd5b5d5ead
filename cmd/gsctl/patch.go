package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codewiresh/gsapi/internal/client"
	"github.com/codewiresh/gsapi/internal/patch"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// ---------------------------------------------------------------------------
// Patch
// ---------------------------------------------------------------------------

func patchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Load, save, render and inspect patches",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "load <path>",
			Short: "Open a patch file in the Tool",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				if err := cl.LoadPatch(ctx, args[0]); err != nil {
					return err
				}
				return a.printDone(cmd, "loaded "+args[0])
			}),
		},
		&cobra.Command{
			Use:   "save <path>",
			Short: "Save the current patch",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				if err := cl.SavePatch(ctx, args[0]); err != nil {
					return err
				}
				return a.printDone(cmd, "saved "+args[0])
			}),
		},
		patchRenderCmd(a),
		&cobra.Command{
			Use:   "name",
			Short: "Print the current patch name",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				name, err := cl.PatchName(ctx)
				if err != nil {
					return err
				}
				return a.printValue(cmd, "patch", name)
			}),
		},
		&cobra.Command{
			Use:   "info <file>",
			Short: "Print the metadata of a local patch file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				md, err := patch.ParseFile(args[0])
				if err != nil {
					return err
				}
				return a.print(cmd, md, func(w io.Writer) error {
					return table(w, nil, [][]string{
						{"file", md.FilePath},
						{"name", md.PatchName},
						{"version", md.PatchVersion},
						{"author", md.Author},
						{"tool", md.ToolVersion},
						{"ucs", strings.Trim(md.UCSCategory+"/"+md.UCSSubCategory, "/")},
					})
				})
			},
		},
	)

	return cmd
}

func patchRenderCmd(a *app) *cobra.Command {
	opts := client.RenderOptions{BitDepth: 16, Channels: 2, Duration: 1}

	cmd := &cobra.Command{
		Use:   "render <path>",
		Short: "Render the current patch to an audio file",
		Long:  "Render the current patch. The command returns once the Tool accepts the request, not when the file is written.",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			if err := cl.RenderPatch(ctx, opts); err != nil {
				return err
			}
			return a.printDone(cmd, "render requested: "+opts.Path)
		}),
	}

	cmd.Flags().IntVar(&opts.BitDepth, "bit-depth", opts.BitDepth, "Bits per sample")
	cmd.Flags().IntVar(&opts.Channels, "channels", opts.Channels, "Channel count")
	cmd.Flags().IntVar(&opts.Duration, "duration", opts.Duration, "Duration in whole seconds")

	return cmd
}

func variationCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "variation",
		Short: "Print or set the variation amount",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			v, err := cl.Variation(ctx)
			if err != nil {
				return err
			}
			return a.printValue(cmd, "variation", v)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <value>",
		Short: "Set the variation amount",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid variation %q: %w", args[0], err)
			}
			if err := cl.SetVariation(ctx, v); err != nil {
				return err
			}
			return a.printDone(cmd, "variation set to "+protocol.FormatFloat(v))
		}),
	})

	return cmd
}

func drawingCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drawing",
		Short: "Read or replace the model drawing",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <index>",
			Short: "Print a drawing's points",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				i, err := indexArg(args[0])
				if err != nil {
					return err
				}
				points, err := cl.Drawing(ctx, i)
				if err != nil {
					return err
				}
				return a.print(cmd, points, func(w io.Writer) error {
					rows := make([][]string, 0, len(points))
					for _, p := range points {
						rows = append(rows, []string{
							protocol.FormatFloat(p.T), protocol.FormatFloat(p.X),
							protocol.FormatFloat(p.Y), protocol.FormatFloat(p.P),
						})
					}
					return table(w, []string{"T", "X", "Y", "P"}, rows)
				})
			}),
		},
		&cobra.Command{
			Use:   "set <file>",
			Short: "Replace the drawing with points from a YAML or JSON file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				points, err := loadDrawing(args[0])
				if err != nil {
					return err
				}
				return a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
					if err := cl.SetDrawing(ctx, points); err != nil {
						return err
					}
					return a.printDone(cmd, fmt.Sprintf("drawing set (%d points)", len(points)))
				})(cmd, args)
			},
		},
	)

	return cmd
}

// ---------------------------------------------------------------------------
// Meta parameters and curves
// ---------------------------------------------------------------------------

// keyFlag selects name or index addressing for meta/curve commands.
type keyFlag struct {
	byIndex bool
}

func (k *keyFlag) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&k.byIndex, "index", "i", false, "Treat the key as a 0-based index instead of a name")
}

func (k *keyFlag) key(arg string) (client.Key, error) {
	if !k.byIndex {
		return client.ByName(arg), nil
	}
	i, err := indexArg(arg)
	if err != nil {
		return client.Key{}, err
	}
	return client.ByIndex(i), nil
}

func indexArg(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

func metaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Read and set meta parameters of the current patch",
	}

	var getKey, setKey keyFlag

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a meta parameter value",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			key, err := getKey.key(args[0])
			if err != nil {
				return err
			}
			v, err := cl.MetaValue(ctx, key)
			if err != nil {
				return err
			}
			return a.printValue(cmd, "value", v)
		}),
	}
	getKey.register(get)

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a meta parameter value",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			key, err := setKey.key(args[0])
			if err != nil {
				return err
			}
			v, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[1], err)
			}
			if err := cl.SetMetaValue(ctx, key, v); err != nil {
				return err
			}
			return a.printDone(cmd, fmt.Sprintf("meta %s set to %s", key, protocol.FormatFloat(v)))
		}),
	}
	setKey.register(set)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of meta parameters",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				n, err := cl.MetaCount(ctx)
				if err != nil {
					return err
				}
				return a.printValue(cmd, "count", n)
			}),
		},
		&cobra.Command{
			Use:   "names",
			Short: "List meta parameter names",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				names, err := cl.MetaNames(ctx)
				if err != nil {
					return err
				}
				return a.printList(cmd, "names", names)
			}),
		},
		&cobra.Command{
			Use:   "name <index>",
			Short: "Print the name of a meta parameter",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				i, err := indexArg(args[0])
				if err != nil {
					return err
				}
				name, err := cl.MetaName(ctx, i)
				if err != nil {
					return err
				}
				return a.printValue(cmd, "name", name)
			}),
		},
		get,
		set,
	)

	return cmd
}

func curveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curve",
		Short: "Read and set automation curves of the current patch",
	}

	var getKey, setKey keyFlag

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print an automation curve",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			key, err := getKey.key(args[0])
			if err != nil {
				return err
			}
			cv, err := cl.CurveValue(ctx, key)
			if err != nil {
				return err
			}
			return a.print(cmd, cv, func(w io.Writer) error {
				fmt.Fprintf(w, "duration: %s\nloop: %t\n", protocol.FormatFloat(cv.Duration), cv.IsLoop)
				rows := make([][]string, 0, len(cv.Points))
				for _, p := range cv.Points {
					rows = append(rows, []string{protocol.FormatFloat(p.X), protocol.FormatFloat(p.Y)})
				}
				return table(w, []string{"X", "Y"}, rows)
			})
		}),
	}
	getKey.register(get)

	set := &cobra.Command{
		Use:   "set <key> <file>",
		Short: "Replace an automation curve from a YAML or JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := setKey.key(args[0])
			if err != nil {
				return err
			}
			cv, err := loadCurve(args[1])
			if err != nil {
				return err
			}
			return a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				if err := cl.SetCurveValue(ctx, key, cv); err != nil {
					return err
				}
				return a.printDone(cmd, fmt.Sprintf("curve %s set (%d points)", key, len(cv.Points)))
			})(cmd, args)
		},
	}
	setKey.register(set)

	cmd.AddCommand(
		&cobra.Command{
			Use:   "count",
			Short: "Print the number of automation curves",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				n, err := cl.CurveCount(ctx)
				if err != nil {
					return err
				}
				return a.printValue(cmd, "count", n)
			}),
		},
		&cobra.Command{
			Use:   "names",
			Short: "List automation curve names",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				names, err := cl.CurveNames(ctx)
				if err != nil {
					return err
				}
				return a.printList(cmd, "names", names)
			}),
		},
		&cobra.Command{
			Use:   "name <index>",
			Short: "Print the name of an automation curve",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				i, err := indexArg(args[0])
				if err != nil {
					return err
				}
				name, err := cl.CurveName(ctx, i)
				if err != nil {
					return err
				}
				return a.printValue(cmd, "name", name)
			}),
		},
		get,
		set,
	)

	return cmd
}
