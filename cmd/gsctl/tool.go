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
// Tool
// ---------------------------------------------------------------------------

func pingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the Tool accepts connections",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			addr := cl.Config().Addr()
			if !cl.Ping(ctx) {
				return fmt.Errorf("tool not reachable at %s", addr)
			}
			return a.print(cmd, map[string]any{"reachable": true, "addr": addr}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "ok %s\n", addr)
				return err
			})
		}),
	}
}

func versionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the Tool version",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			v, err := cl.Version(ctx)
			if err != nil {
				return err
			}
			return a.printValue(cmd, "version", v)
		}),
	}
}

func commandsCmd(a *app) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the commands the Tool advertises",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if local {
				return a.printList(cmd, "commands", protocol.Commands())
			}
			return a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				names, err := cl.Commands(ctx)
				if err != nil {
					return err
				}
				return a.printList(cmd, "commands", names)
			})(cmd, args)
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "List the commands this client knows instead of asking the Tool")

	return cmd
}

func modelsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the installed procedural models",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			models, err := cl.Models(ctx)
			if err != nil {
				return err
			}
			return a.printList(cmd, "models", models)
		}),
	}
}

func modelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Select or show the current model",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "select <name>",
			Short: "Switch to a model",
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				if err := cl.SelectModel(ctx, args[0]); err != nil {
					return err
				}
				return a.printDone(cmd, "selected model "+args[0])
			}),
		},
		&cobra.Command{
			Use:   "current",
			Short: "Print the model of the current patch",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				name, err := cl.ModelName(ctx)
				if err != nil {
					return err
				}
				return a.printValue(cmd, "model", name)
			}),
		},
	)

	return cmd
}

func pathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "path <NAME>",
		Short:     "Print one of the Tool's system paths",
		Long:      "Print one of the Tool's system paths. NAME is one of:\n  " + strings.Join(protocol.PathNames(), "\n  "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: protocol.PathNames(),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			p, err := cl.Path(ctx, strings.ToUpper(args[0]))
			if err != nil {
				return err
			}
			return a.printValue(cmd, "path", p)
		}),
	}
}

func sampleRateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "samplerate",
		Short: "Print or set the output sample rate",
		Args:  cobra.NoArgs,
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
			rate, err := cl.SampleRate(ctx)
			if err != nil {
				return err
			}
			return a.printValue(cmd, "samplerate", rate)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <hz>",
		Short: "Set the output sample rate",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			if err := cl.SetSampleRate(ctx, args[0]); err != nil {
				return err
			}
			return a.printDone(cmd, "sample rate set to "+args[0])
		}),
	})

	return cmd
}

// ---------------------------------------------------------------------------
// Repository
// ---------------------------------------------------------------------------

func repoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Search and load patches from the Tool's repository",
	}

	cmd.AddCommand(
		repoSearchCmd(a),
		&cobra.Command{
			Use:   "load <name>",
			Short: "Load a repository patch by name",
			Args:  cobra.MinimumNArgs(1),
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
				name := strings.Join(args, " ")
				if err := cl.QueryPatch(ctx, name); err != nil {
					return err
				}
				return a.printDone(cmd, "loaded "+name)
			}),
		},
		&cobra.Command{
			Use:   "categories",
			Short: "List repository categories",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				cats, err := cl.QueryCategories(ctx)
				if err != nil {
					return err
				}
				return a.printList(cmd, "categories", cats)
			}),
		},
		&cobra.Command{
			Use:   "tags",
			Short: "List repository tags",
			Args:  cobra.NoArgs,
			RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, _ []string) error {
				tags, err := cl.QueryTags(ctx)
				if err != nil {
					return err
				}
				return a.printList(cmd, "tags", tags)
			}),
		},
	)

	return cmd
}

func repoSearchCmd(a *app) *cobra.Command {
	var q client.PatchQuery

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search repository patch names, categories or tags",
		Long:  "Search the repository. With none of --name, --category or --tags, all three fields are searched.",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(ctx context.Context, cl *client.Client, cmd *cobra.Command, args []string) error {
			if !q.Name && !q.Category && !q.Tags {
				q = client.PatchQuery{Name: true, Category: true, Tags: true}
			}
			names, err := cl.QueryPatchNames(ctx, strings.Join(args, " "), q)
			if err != nil {
				return err
			}
			return a.printList(cmd, "patches", names)
		}),
	}

	cmd.Flags().BoolVar(&q.Name, "name", false, "Match patch names")
	cmd.Flags().BoolVar(&q.Category, "category", false, "Match categories")
	cmd.Flags().BoolVar(&q.Tags, "tags", false, "Match tags")

	return cmd
}
