package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/codewiresh/gsapi/internal/catalog"
	"github.com/codewiresh/gsapi/internal/config"
	"github.com/codewiresh/gsapi/internal/emulator"
	"github.com/codewiresh/gsapi/internal/mcp"
	"github.com/codewiresh/gsapi/internal/store"
)

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func (a *app) openCatalog() (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(a.cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	return st, nil
}

func catalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Index and search local patch files",
	}

	cmd.AddCommand(
		catalogIndexCmd(a),
		&cobra.Command{
			Use:   "list",
			Short: "List indexed patches",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				st, err := a.openCatalog()
				if err != nil {
					return err
				}
				defer st.Close()
				recs, err := st.PatchList(cmd.Context())
				if err != nil {
					return err
				}
				return a.printRecords(cmd, recs)
			},
		},
		&cobra.Command{
			Use:   "search <text>",
			Short: "Search indexed patches by name, author or UCS category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.openCatalog()
				if err != nil {
					return err
				}
				defer st.Close()
				recs, err := st.PatchSearch(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.printRecords(cmd, recs)
			},
		},
	)

	return cmd
}

func catalogIndexCmd(a *app) *cobra.Command {
	var opts catalog.Options

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Index every .gspatch file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openCatalog()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, cancel := a.context(cmd)
			defer cancel()

			res, err := catalog.Index(ctx, st, args[0], opts)
			if err != nil {
				return err
			}
			for _, f := range res.Failures {
				a.log.Warn().Str("path", f.Path).Str("error", f.Err).Msg("skipped patch")
			}
			return a.print(cmd, res, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "indexed %d, pruned %d, skipped %d\n", res.Indexed, res.Pruned, len(res.Failures))
				return err
			})
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", catalog.DefaultWorkers, "Files parsed in parallel")
	cmd.Flags().BoolVar(&opts.Prune, "prune", false, "Drop records under <dir> whose files are gone")

	return cmd
}

func (a *app) printRecords(cmd *cobra.Command, recs []store.PatchRecord) error {
	if recs == nil {
		recs = []store.PatchRecord{}
	}
	return a.print(cmd, recs, func(w io.Writer) error {
		if len(recs) == 0 {
			_, err := fmt.Fprintln(w, "No patches found")
			return err
		}
		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			rows = append(rows, []string{r.PatchName, r.Author, r.UCSCategory, r.FilePath})
		}
		return table(w, []string{"NAME", "AUTHOR", "UCS", "PATH"}, rows)
	})
}

// ---------------------------------------------------------------------------
// Config
// ---------------------------------------------------------------------------

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or save the resolved configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the configuration after file, environment and flag overrides",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				view := configView(a.cfg)
				return a.print(cmd, view, func(w io.Writer) error {
					rows := [][]string{
						{"host", view.Host},
						{"port", fmt.Sprint(view.Port)},
						{"codec", view.Codec},
						{"delimiter", fmt.Sprintf("%q", view.Delimiter)},
						{"settle_delay", view.SettleDelay},
						{"receive_timeout", view.ReceiveTimeout},
						{"retry_interval", view.RetryInterval},
						{"max_retries", fmt.Sprint(view.MaxRetries)},
						{"worst_case", view.WorstCase},
						{"catalog", view.Catalog},
					}
					return table(w, nil, rows)
				})
			},
		},
		&cobra.Command{
			Use:   "save",
			Short: "Write the resolved configuration to gsapi.toml",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := a.cfg.Save(a.configDir); err != nil {
					return err
				}
				return a.printDone(cmd, "saved "+a.configDir+string(os.PathSeparator)+config.FileName)
			},
		},
	)

	return cmd
}

type configSummary struct {
	Host           string `json:"host" yaml:"host"`
	Port           uint16 `json:"port" yaml:"port"`
	Codec          string `json:"codec" yaml:"codec"`
	Delimiter      string `json:"delimiter" yaml:"delimiter"`
	SettleDelay    string `json:"settle_delay" yaml:"settle_delay"`
	ReceiveTimeout string `json:"receive_timeout" yaml:"receive_timeout"`
	RetryInterval  string `json:"retry_interval" yaml:"retry_interval"`
	MaxRetries     int    `json:"max_retries" yaml:"max_retries"`
	WorstCase      string `json:"worst_case" yaml:"worst_case"`
	Catalog        string `json:"catalog" yaml:"catalog"`
}

func configView(cfg *config.Config) configSummary {
	return configSummary{
		Host:           cfg.Connection.Host,
		Port:           cfg.Connection.Port,
		Codec:          cfg.Connection.Codec,
		Delimiter:      cfg.Connection.Delimiter,
		SettleDelay:    cfg.Timing.SettleDelay.String(),
		ReceiveTimeout: cfg.Timing.ReceiveTimeout.String(),
		RetryInterval:  cfg.Timing.RetryInterval.String(),
		MaxRetries:     cfg.Timing.MaxRetries,
		WorstCase:      cfg.Timing.WorstCase().String(),
		Catalog:        cfg.Catalog.Path,
	}
}

// ---------------------------------------------------------------------------
// Emulator and MCP bridge
// ---------------------------------------------------------------------------

func simCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Run an offline Tool emulator",
		Long:  "Run an in-process emulator that speaks the Tool's TCP API, for trying gsctl without the Tool. Stops on Ctrl+C.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr := listen
			if addr == "" {
				addr = a.cfg.Connection.Addr()
			}
			srv, err := emulator.Listen(addr, emulator.New(),
				emulator.WithDelimiter(a.cfg.Connection.Delimiter),
				emulator.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[gsctl] emulator listening on %s\n", srv.Addr())

			err = srv.Serve(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default: the configured host:port)")

	return cmd
}

func mcpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve Tool control as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := a.client()
			if err != nil {
				return err
			}

			opts := []mcp.Option{mcp.WithLogger(a.log)}
			if st, err := a.openCatalog(); err != nil {
				a.log.Warn().Err(err).Msg("local catalog unavailable")
			} else {
				defer st.Close()
				opts = append(opts, mcp.WithCatalog(st))
			}

			a.log.Info().Str("addr", cl.Config().Addr()).Msg("mcp bridge ready")
			err = mcp.Run(cmd.Context(), cl, cmd.InOrStdin(), cmd.OutOrStdout(), opts...)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
