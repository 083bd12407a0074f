package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type sheetOptions struct {
	start string
	end   string
}

func newSheetCmd() *cobra.Command {
	opts := &sheetOptions{}
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Runs a batch check over the spreadsheet",
		Long: `Resolves missing permalinks and checks exposure for every eligible row
dated within [--start, --end] (M/D), writing results back to the sheet. The
first SIGINT requests a stop at the next row boundary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSheet(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.start, "start", "", "first date of the window, M/D")
	cmd.Flags().StringVar(&opts.end, "end", "", "last date of the window, M/D")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func runSheet(cmd *cobra.Command, opts *sheetOptions) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	controller := appInstance.Controller()
	logger := appInstance.Logger()

	if err := controller.Start(cmd.Context(), opts.start, opts.end); err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	waitCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		select {
		case <-sigCh:
			logger.Info("interrupt received, stopping run")
			if err := controller.Stop(); err != nil {
				logger.Debug("stop ignored", zap.Error(err))
			}
		case <-waitCtx.Done():
		}
	}()

	snap := controller.Wait(waitCtx)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if snap.Result != nil && !snap.Result.Success {
		return fmt.Errorf("run failed: %s", snap.Result.Message)
	}
	return nil
}
