package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/eleven-am/docshift/internal/api"
	"github.com/eleven-am/docshift/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the users and todos HTTP API",
	Long: `Connect to the configured database and serve the users and todos API
until interrupted. The listen port comes from --port, PORT or server.port.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default 3000)")
}

func servePortFor(cmd *cobra.Command) int {
	if cmd.Flags().Changed("port") && servePort > 0 {
		return servePort
	}
	return currentConfig().Server.Port
}

func runServe(cmd *cobra.Command, args []string) error {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := storeConfig(currentConfig()).Connect(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.CLI().WithError(err).Warn("Error disconnecting from MongoDB")
		}
	}()

	return api.NewServer(servePortFor(cmd), st).Run(ctx)
}
