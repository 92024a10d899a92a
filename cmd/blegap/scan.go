package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/blegap/internal/config"
	"github.com/srg/blegap/internal/driver/goble"
	"github.com/srg/blegap/internal/gap"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for BLE devices",
	Long: `Scan for Bluetooth Low Energy advertisers in the vicinity.

Advertising and scan response packets are merged per device address. When
the scan ends (timeout or Ctrl+C) the merged devices are printed as a table
or as JSON. With --watch every merged report is also printed as it arrives.

Scan interval and window are given in 0.625ms steps between 2.5ms and
10.24s; the window must not exceed the interval. The timeout must be
between 10ms and 655.35s, or 0 to scan until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

var (
	scanInterval time.Duration
	scanWindow   time.Duration
	scanTimeout  time.Duration
	scanPassive  bool
	scanKeep     bool
	scanFormat   string
	scanWatch    bool
)

func init() {
	scanCmd.Flags().DurationVar(&scanInterval, "interval", gap.DefaultScanInterval, "Scan interval")
	scanCmd.Flags().DurationVar(&scanWindow, "window", gap.DefaultScanWindow, "Scan window (must not exceed the interval)")
	scanCmd.Flags().DurationVarP(&scanTimeout, "timeout", "t", gap.DefaultScanTimeout, "Scan timeout (0 scans until interrupted)")
	scanCmd.Flags().BoolVar(&scanPassive, "passive", false, "Passive scan, do not request scan responses")
	scanCmd.Flags().BoolVar(&scanKeep, "keep", false, "Restart the scan when it times out, keeping the reports, until interrupted")
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", config.FormatTable, "Output format (table, json)")
	scanCmd.Flags().BoolVarP(&scanWatch, "watch", "w", false, "Print every report as it arrives")
}

// applyScanFlags overrides configuration values with the flags the user set.
func applyScanFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("interval") {
		cfg.ScanInterval = scanInterval
	}
	if flags.Changed("window") {
		cfg.ScanWindow = scanWindow
	}
	if flags.Changed("timeout") {
		cfg.ScanTimeout = scanTimeout
	}
	if flags.Changed("passive") {
		cfg.ActiveScan = !scanPassive
	}
	if flags.Changed("format") {
		cfg.OutputFormat = scanFormat
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applyScanFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	params, err := cfg.ScanParameters()
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	drv, err := goble.Open(params, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := drv.Close(); err != nil {
			logger.WithError(err).Debug("Failed to close BLE device")
		}
	}()

	scanner := gap.NewScanner(drv, logger)
	defer scanner.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	colors := colorEnabled(out)

	var printer *watchPrinter
	if scanWatch {
		printer = newWatchPrinter(out, cfg.OutputFormat, colors, logger)
		printer.Attach(scanner)
		defer printer.Close()
	}

	reports, err := scanUntilDone(ctx, scanner, params, scanKeep, logger)
	if err != nil {
		return err
	}

	if printer != nil {
		// flush streamed lines before the summary
		printer.Close()
		if cfg.OutputFormat == config.FormatJSON {
			return nil
		}
		fmt.Fprintln(out)
	}
	return renderPeers(out, reports.Peers(), cfg.OutputFormat, colors)
}

// scanUntilDone runs scans until one times out, or until ctx is done when
// keep is set. Interrupting the scan is not an error; the reports collected
// so far are returned.
func scanUntilDone(ctx context.Context, s *gap.Scanner, params gap.ScanParameters, keep bool, logger *logrus.Logger) (*gap.ScanReportCollection, error) {
	clearReports := true
	for {
		session, err := s.StartScan(&params, clearReports)
		if err != nil {
			return nil, err
		}
		clearReports = false

		reports, err := session.Wait(ctx)
		switch {
		case err == nil:
		case errors.Is(err, gap.ErrScanStopped):
			return reports, nil
		case ctx.Err() != nil:
			s.Stop()
			logger.Debug("Scan interrupted")
			return s.Reports(), nil
		default:
			return nil, err
		}

		if !keep {
			return reports, nil
		}
		logger.WithField("device_count", reports.Len()).Debug("Scan timed out, restarting")
	}
}
