package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lambda-tester/internal/xray"
)

func newXRayCmd(logger *logrus.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xray",
		Short: "X-Ray daemon stand-in",
	}
	cmd.AddCommand(newXRayListenCmd(logger))
	return cmd
}

func newXRayListenCmd(logger *logrus.Logger) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Collect trace segments until interrupted and print them as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return listen(ctx, cmd, xray.NewServer(xray.WithPort(port), xray.WithLogger(logger)), logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", xray.DefaultPort, "UDP port to listen on (0 picks a free port)")
	return cmd
}

func listen(ctx context.Context, cmd *cobra.Command, server *xray.Server, logger logrus.FieldLogger) error {
	if err := server.Start(ctx); err != nil {
		return err
	}
	logger.WithField("addr", server.Addr()).Info("Collecting trace segments")

	<-ctx.Done()

	if err := server.Settle(context.Background()); err != nil {
		return err
	}
	if err := server.Stop(); err != nil {
		return err
	}

	segments := server.Segments()
	logger.WithField("segments", len(segments)).Info("Collector stopped")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(segments)
}
