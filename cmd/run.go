package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/memory-mirror/internal/kiosk"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the kiosk: camera loop, recognition and web API",
	Long: `Run the full Memory Mirror kiosk. Frames are read from the capture
spool directory, recognized persons are greeted over the speaker, and the
caregiver API is served on the configured port.`,
	RunE: runKiosk,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runKiosk(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer app.close()

	camera := kiosk.NewDirectoryCamera(app.config.Camera.SpoolDir)

	errCh := make(chan error, 2)

	go func() {
		errCh <- app.web.Start()
	}()
	go func() {
		errCh <- app.orchestrator.Run(ctx, camera)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		fmt.Printf("Received %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "kiosk error: %v\n", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	return app.web.Shutdown(shutdownCtx)
}
