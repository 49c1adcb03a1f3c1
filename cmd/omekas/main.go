// Package main provides the omekas command line client.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/spf13/cobra"
	omekas "github.com/st-keller/omekas-client"
	"github.com/st-keller/omekas-client/config"
	"github.com/st-keller/omekas-client/metric"
)

const (
	Version = "0.1.0"
	appName = "omekas"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	stats      bool
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Command line client for an Omeka S repository API",
		Long: `omekas reads items, vocabularies and properties from an Omeka S
repository API and can append or remove item values.

Settings are read from a YAML or JSON config file (default ~/omekas.yaml)
and can be overridden with OMEKAS_* environment variables. Run
"omekas config init" to write a starter file and "omekas config env" to
list the variables.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", config.DefaultPath(), "Config file path (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	cmd.PersistentFlags().BoolVar(&g.stats, "stats", false, "Print per-route connectivity statistics to stderr after the command")

	cmd.AddCommand(
		itemsCmd(g),
		itemCmd(g),
		addValueCmd(g),
		removeValueCmd(g),
		vocabulariesCmd(g),
		vocabularyCmd(g),
		propertyCmd(g),
		configCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// session is a loaded repository plus the bits needed to report on it.
type session struct {
	repo     *omekas.Repository
	registry *prometheus.Registry
	stats    bool
	stderr   io.Writer
}

func (g *globals) open(cmd *cobra.Command) (*session, error) {
	path := g.configPath
	// A missing default file means environment-only configuration.
	if !cmd.Flags().Changed("config") && path != "" {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger := newLogger(cmd.ErrOrStderr(), level)

	registry := prometheus.NewRegistry()
	metrics, err := metric.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	repo, err := omekas.New(cfg, omekas.WithLogger(logger), omekas.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}

	return &session{repo: repo, registry: registry, stats: g.stats, stderr: cmd.ErrOrStderr()}, nil
}

// close prints the connectivity summaries and the collected metrics when
// --stats is set.
func (s *session) close() {
	if !s.stats {
		return
	}
	for _, sum := range s.repo.Client().Connectivity().Summaries() {
		fmt.Fprintf(s.stderr, "%-6s %-14s %-9s calls=%d success=%.0f%% p50=%dms p95=%dms\n",
			sum.Verb, sum.Resource, sum.Status, sum.TotalCalls, sum.SuccessRate*100, sum.LatencyP50, sum.LatencyP95)
		for _, e := range sum.RecentErrors {
			fmt.Fprintf(s.stderr, "       error: %s\n", e)
		}
	}

	families, err := s.registry.Gather()
	if err != nil {
		fmt.Fprintf(s.stderr, "gather metrics: %v\n", err)
		return
	}
	printMetrics(s.stderr, families)
}

// printMetrics writes one line per series in a text exposition style.
func printMetrics(w io.Writer, families []*dto.MetricFamily) {
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			series := mf.GetName()
			if len(labels) > 0 {
				series += "{" + strings.Join(labels, ",") + "}"
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %g\n", series, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s %g\n", series, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%.3fs\n", series, h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
