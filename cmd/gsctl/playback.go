package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codewiresh/gsapi/internal/client"
	"github.com/codewiresh/gsapi/internal/protocol"
)

// ---------------------------------------------------------------------------
// Playback
// ---------------------------------------------------------------------------

func playCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Start playback",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			if err := cl.Play(ctx); err != nil {
				return err
			}
			return a.printDone(cmd, "playing")
		}),
	}
}

func stopCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop playback",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			if err := cl.Stop(ctx); err != nil {
				return err
			}
			return a.printDone(cmd, "stopped")
		}),
	}
}

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current model, patch, parameters and playback state",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			snap, err := cl.Snapshot(ctx)
			if err != nil {
				return err
			}
			return a.print(cmd, snap, func(w io.Writer) error {
				rows := [][]string{
					{"model", snap.Model},
					{"patch", snap.Patch},
					{"variation", protocol.FormatFloat(snap.Variation)},
					{"playing", fmt.Sprint(snap.Playing)},
					{"infinite", fmt.Sprint(snap.Infinite)},
					{"randomized", fmt.Sprint(snap.Randomized)},
					{"curves", strings.Join(snap.Curves, ", ")},
				}
				for _, m := range snap.Meta {
					rows = append(rows, []string{"meta " + m.Name, protocol.FormatFloat(m.Value)})
				}
				return table(w, nil, rows)
			})
		}),
	}
}

func eventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Enable or disable Tool events",
	}

	for _, on := range []bool{true, false} {
		name := "off"
		if on {
			name = "on"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   name,
			Short: "Turn events " + name,
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				if err := cl.EnableEvents(ctx, on); err != nil {
					return err
				}
				return a.printDone(cmd, "events "+name)
			}),
		})
	}

	return cmd
}

// ---------------------------------------------------------------------------
// Windows
// ---------------------------------------------------------------------------

func windowCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "window",
		Short: "Control the Tool's windows and dialogs",
	}

	simple := func(use, short string, fn func(*client.Client, context.Context) error) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				if err := fn(cl, ctx); err != nil {
					return err
				}
				return a.printDone(cmd, "ok")
			}),
		}
	}

	cmd.AddCommand(
		simple("back", "Send the Tool window to the back", (*client.Client).WindowBack),
		simple("front", "Bring the Tool window to the front", (*client.Client).WindowFront),
		simple("test", "Open the test window", (*client.Client).WindowTest),
		windowMessageCmd(a),
		windowRenderingCmd(a),
		windowParamsCmd(a),
	)

	return cmd
}

func windowMessageCmd(a *app) *cobra.Command {
	var button string

	cmd := &cobra.Command{
		Use:   "message <text>",
		Short: "Show a message box",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			b, err := client.ParseButton(strings.ToUpper(button))
			if err != nil {
				return err
			}
			if err := cl.WindowMessage(ctx, strings.Join(args, " "), b); err != nil {
				return err
			}
			return a.printDone(cmd, "message shown")
		}),
	}

	cmd.Flags().StringVar(&button, "button", client.ButtonOK.String(), "Buttons: OK, OK_CANCEL, YES_NO or RETRY_EXIT")

	return cmd
}

func windowRenderingCmd(a *app) *cobra.Command {
	var showDuration, showVariations bool

	cmd := &cobra.Command{
		Use:   "rendering",
		Short: "Open the render window",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			if err := cl.WindowRendering(ctx, showDuration, showVariations); err != nil {
				return err
			}
			return a.printDone(cmd, "render window opened")
		}),
	}

	cmd.Flags().BoolVar(&showDuration, "duration", true, "Show the duration field")
	cmd.Flags().BoolVar(&showVariations, "variations", true, "Show the variations field")

	return cmd
}

func windowParamsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "params <file>",
		Short: "Open a parameter dialog described by a YAML or JSON file",
		Long: `Open a parameter dialog. The file is a list of parameters, e.g.:

  - {type: number, name: Speed, subtype: float, unit: m/s, min: 0, max: 10, default: 1, decimals: 2}
  - {type: bool, name: Loud, default: true}
  - {type: string, name: Output, subtype: filesave, default: out.wav}
  - {type: enum, name: Mode, subtype: combo, choices: [soft, hard], default: 1}
  - {type: label, text: Settings, subtype: header, align: center}

Parameters the Tool cannot express are skipped with a warning.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams(args[0])
			if err != nil {
				return err
			}
			return a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				if err := cl.WindowParameters(ctx, params...); err != nil {
					return err
				}
				return a.printDone(cmd, "dialog opened")
			})(cmd, args)
		},
	}
}
