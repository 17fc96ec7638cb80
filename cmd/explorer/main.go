package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/spf13/cobra"

	"github.com/samirrijal/mapexplorer/internal/adapters/gemini"
	"github.com/samirrijal/mapexplorer/internal/core/domain"
	"github.com/samirrijal/mapexplorer/internal/core/usecases"
	"github.com/samirrijal/mapexplorer/internal/pkg/config"
	"github.com/samirrijal/mapexplorer/internal/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "explorer",
		Short: "Ask for places and day plans, rendered as a map itinerary",
		Long: `explorer sends a natural-language query to the map explorer API (or runs
it in-process with --local) and prints the locations, routes and day plan
as they stream in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("MAPEXPLORER_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}
	root.PersistentFlags().String("server", server, "API base URL")

	root.AddCommand(newAskCmd(), newExportCmd())
	return root
}

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ask <query>",
		Short:   "Run a query and print the resulting places",
		Example: `  explorer ask "Ancient ruins in Rome"
  explorer ask --planner "One day in Paris" --export ics -o paris.ics`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			planner, _ := cmd.Flags().GetBool("planner")
			local, _ := cmd.Flags().GetBool("local")
			format, _ := cmd.Flags().GetString("export")
			output, _ := cmd.Flags().GetString("output")
			server, _ := cmd.Flags().GetString("server")

			mode := domain.ModeExplorer
			if planner {
				mode = domain.ModeDayPlanner
			}
			query := strings.Join(args, " ")
			out := cmd.OutOrStdout()
			onEvent := func(ev domain.MapEvent) {
				if line := renderEvent(ev); line != "" {
					fmt.Fprintln(out, line)
				}
			}

			var (
				view   domain.View
				export func(format string) ([]byte, string, error)
				err    error
			)
			if local {
				view, export, err = askLocal(cmd.Context(), mode, query, onEvent)
			} else {
				view, export, err = askRemote(cmd.Context(), newClient(server), mode, query, onEvent)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderView(view))

			if format == "" {
				return nil
			}
			data, name, err := export(format)
			if errors.Is(err, domain.ErrEmptyItinerary) {
				fmt.Fprintln(out, dimStyle.Render("Nothing to export: the answer has no day plan."))
				return nil
			}
			if err != nil {
				return err
			}
			return writeExport(cmd, data, output, name)
		},
	}

	cmd.Flags().BoolP("planner", "p", false, "Ask for a day plan instead of free exploration")
	cmd.Flags().Bool("local", false, "Run the query in-process against the model (needs MAPEXPLORER_MODEL_API_KEY)")
	cmd.Flags().StringP("export", "e", "", "Also export the plan: txt or ics")
	cmd.Flags().StringP("output", "o", "", "Export file path (defaults to the server's file name)")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Download the day plan of an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")
			server, _ := cmd.Flags().GetString("server")

			c := newClient(server)
			var (
				data []byte
				name string
				err  error
			)
			_ = spinner.New().
				Title(fmt.Sprintf("Exporting session %s as %s...", args[0], format)).
				Action(func() {
					data, name, err = c.export(cmd.Context(), args[0], format)
				}).
				Run()

			if errors.Is(err, domain.ErrEmptyItinerary) {
				return fmt.Errorf("session %s has no day plan to export", args[0])
			}
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			return writeExport(cmd, data, output, name)
		},
	}

	cmd.Flags().StringP("format", "f", "txt", "Export format: txt or ics")
	cmd.Flags().StringP("output", "o", "", "Output file path (defaults to the server's file name)")
	return cmd
}

func askRemote(ctx context.Context, c *client, mode domain.Mode, query string, onEvent func(domain.MapEvent)) (domain.View, func(string) ([]byte, string, error), error) {
	created, err := c.createSession(ctx, mode)
	if err != nil {
		return domain.View{}, nil, err
	}
	view, err := c.stream(ctx, created.SessionID, query, onEvent)
	if err != nil {
		return domain.View{}, nil, err
	}
	export := func(format string) ([]byte, string, error) {
		return c.export(ctx, created.SessionID, format)
	}
	return view, export, nil
}

func askLocal(ctx context.Context, mode domain.Mode, query string, onEvent func(domain.MapEvent)) (domain.View, func(string) ([]byte, string, error), error) {
	cfg, err := config.Load("mapexplorer-cli")
	if err != nil {
		return domain.View{}, nil, err
	}
	logging.Setup(os.Stderr, "", "warn", "text")

	model, err := gemini.New(ctx, cfg.Model.APIKey, cfg.Model.Name)
	if err != nil {
		return domain.View{}, nil, err
	}
	sessions := usecases.NewSessionService(1, 0)
	explorer := usecases.NewExploreService(sessions, model, nil, nil, cfg.Model.Temperature, 0)
	exports := usecases.NewExportService(sessions)

	created, err := sessions.Create(mode)
	if err != nil {
		return domain.View{}, nil, err
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Server.QueryTimeout)*time.Second)
	defer cancel()
	view, err := explorer.Explore(runCtx, created.SessionID, query, onEvent)
	if err != nil {
		return domain.View{}, nil, err
	}

	export := func(format string) ([]byte, string, error) {
		switch format {
		case "txt", "text":
			data, err := exports.Text(created.SessionID)
			return data, usecases.PlanFilename, err
		case "ics", "ical":
			data, err := exports.Calendar(created.SessionID, time.Time{})
			return data, usecases.CalendarFilename, err
		default:
			return nil, "", fmt.Errorf("unknown export format %q (want txt or ics)", format)
		}
	}
	return view, export, nil
}

func writeExport(cmd *cobra.Command, data []byte, output, name string) error {
	if output == "" {
		output = name
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Saved day plan to %s", output)))
	return nil
}
