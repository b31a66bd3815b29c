package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	contractx "github.com/tanpawarit/drawdb-mcp/agent/contract"
	toolx "github.com/tanpawarit/drawdb-mcp/agent/tool"
	configx "github.com/tanpawarit/drawdb-mcp/pkg/config"
	drawdbx "github.com/tanpawarit/drawdb-mcp/pkg/drawdb"
	logx "github.com/tanpawarit/drawdb-mcp/pkg/logger"
	_ "github.com/tanpawarit/drawdb-mcp/pkg/logger/autoload"
	mcpserverx "github.com/tanpawarit/drawdb-mcp/pkg/mcpserver"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "drawdb-mcp",
		Short:         "MCP server that edits DrawDB diagrams over a remote-control channel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newToolsCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// toolDescription is what `tools` prints per tool: the eino description a function-calling
// model receives.
type toolDescription struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  any    `json:"parameters,omitempty"`
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "Print the tool catalog as JSON function descriptions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			hub := drawdbx.NewHub(drawdbx.Config{}, drawdbx.WithLogger(logx.Component("drawdb")))
			defer hub.Close()

			catalog, err := buildCatalog(hub)
			if err != nil {
				return err
			}

			infos := catalog.Infos()
			out := make([]toolDescription, 0, len(infos))
			for _, info := range infos {
				params, err := info.ParamsOneOf.ToOpenAPIV3()
				if err != nil {
					return fmt.Errorf("describe %s: %w", info.Name, err)
				}
				out = append(out, toolDescription{Name: info.Name, Description: info.Desc, Parameters: params})
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

type remoteControl interface {
	contractx.RemoteClient
	contractx.StatusProvider
}

func buildCatalog(remote remoteControl) (*toolx.Catalog, error) {
	addType, err := toolx.NewAddTypeTool(remote, toolx.WithLogger(logx.Component("add_type")))
	if err != nil {
		return nil, err
	}
	status, err := toolx.NewStatusTool(remote)
	if err != nil {
		return nil, err
	}
	return toolx.NewCatalog(addType, status)
}

func newServeCmd() *cobra.Command {
	var (
		envFile   string
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools and the DrawDB remote-control endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := serve(ctx, envFile, transport, addr)
			if err != nil {
				log.Error().Err(err).Msg("drawdb-mcp stopped")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&envFile, "env", "", "path to .env file")
	cmd.Flags().StringVar(&transport, "transport", "", "MCP transport: stdio or http (overrides MCP_TRANSPORT)")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for http transport (overrides MCP_HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, envFile, transport, addr string) error {
	opts := []configx.Option{configx.WithEnvFile(envFile)}

	logCfg, err := configx.New[logx.Config]("LOG", opts...)
	if err != nil {
		return fmt.Errorf("load log config: %w", err)
	}
	logx.Init(*logCfg)

	if transport != "" {
		if err := os.Setenv("MCP_TRANSPORT", transport); err != nil {
			return err
		}
	}
	if addr != "" {
		if err := os.Setenv("MCP_HTTP_ADDR", addr); err != nil {
			return err
		}
	}

	serverCfg, err := configx.New[mcpserverx.Config]("MCP", opts...)
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	if serverCfg.Version == "dev" {
		serverCfg.Version = version
	}

	drawdbCfg, err := configx.New[drawdbx.Config]("DRAWDB", opts...)
	if err != nil {
		return fmt.Errorf("load drawdb config: %w", err)
	}

	hub := drawdbx.NewHub(*drawdbCfg, drawdbx.WithLogger(logx.Component("drawdb")))
	defer hub.Close()

	catalog, err := buildCatalog(hub)
	if err != nil {
		return err
	}

	srv, err := mcpserverx.New(*serverCfg, catalog, hub, log.Logger)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
