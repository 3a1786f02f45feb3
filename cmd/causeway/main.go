package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	serverrun "github.com/rzbill/causeway/internal/cmd/server"
	cfgpkg "github.com/rzbill/causeway/internal/config"
	"github.com/rzbill/causeway/internal/naming"
	pebblestore "github.com/rzbill/causeway/internal/storage/pebble"
	logpkg "github.com/rzbill/causeway/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	level := os.Getenv("CAUSEWAY_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)
	logpkg.RedirectStdLog(logger, logpkg.InfoLevel)

	rootCmd := &cobra.Command{
		Use:   "causeway",
		Short: "Causeway causal tracing collector CLI",
		Long:  "Causeway collects probe reports and reconstructs cross-probe causal history. This CLI manages the collector and queries its graph.",
	}

	rootCmd.AddCommand(newServerCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newProbesCommand())
	rootCmd.AddCommand(newNamesCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServerCommand() *cobra.Command {
	serverCmd := &cobra.Command{Use: "server", Short: "Collector server commands"}
	startCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start the collector (HTTP API and UDP report listener)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			udpAddr, _ := cmd.Flags().GetString("udp")
			sessionName, _ := cmd.Flags().GetString("session")
			probesCSV, _ := cmd.Flags().GetString("probes-csv")
			eventsCSV, _ := cmd.Flags().GetString("events-csv")
			configPath, _ := cmd.Flags().GetString("config")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return err
			}
			cfgpkg.FromEnv(&cfg)

			if logLevel != "" {
				_ = os.Setenv("CAUSEWAY_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("CAUSEWAY_LOG_FORMAT", logFormat)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:       dataDir,
				HTTPAddr:      httpAddr,
				UDPAddr:       udpAddr,
				Session:       sessionName,
				ProbesCSV:     probesCSV,
				EventsCSV:     eventsCSV,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Config:        cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	startCmd.Flags().String("data-dir", "", "Data directory (defaults to OS-specific application data directory)")
	startCmd.Flags().String("http", ":7070", "HTTP listen address (ingest + graph API)")
	startCmd.Flags().String("udp", ":2718", "UDP report listen address (empty disables)")
	startCmd.Flags().String("session", "", "Session name (defaults to config defaultSessionName)")
	startCmd.Flags().String("probes-csv", "", "Probe name manifest (id,name,description)")
	startCmd.Flags().String("events-csv", "", "Event name manifest (id,name,description)")
	startCmd.Flags().String("config", "", "JSON config file path")
	startCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	startCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms")
	startCmd.Flags().String("log-level", os.Getenv("CAUSEWAY_LOG_LEVEL"), "Log level: debug|info|warn|error")
	startCmd.Flags().String("log-format", os.Getenv("CAUSEWAY_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(startCmd)
	return serverCmd
}

func newGraphCommand() *cobra.Command {
	graphCmd := &cobra.Command{Use: "graph", Short: "Causal graph queries"}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the causal graph as Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			resp, err := http.Get(apiURL() + "/v1/graph/dot")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("collector returned %s", resp.Status)
			}
			w := os.Stdout
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			_, err = io.Copy(w, resp.Body)
			return err
		},
	}
	exportCmd.Flags().String("out", "", "Output file (default stdout)")
	graphCmd.AddCommand(exportCmd)

	nodesCmd := &cobra.Command{
		Use:   "nodes",
		Short: "List graph nodes, optionally filtered by a CEL expression",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, _ := cmd.Flags().GetString("filter")
			u := apiURL() + "/v1/graph/nodes"
			if filter != "" {
				u += "?filter=" + url.QueryEscape(filter)
			}
			return dumpJSON(u)
		},
	}
	nodesCmd.Flags().String("filter", "", `CEL filter, e.g. "event == 100 && probe == 1"`)
	graphCmd.AddCommand(nodesCmd)

	graphCmd.AddCommand(&cobra.Command{
		Use:   "edges",
		Short: "List established causal edges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpJSON(apiURL() + "/v1/graph/edges")
		},
	})
	graphCmd.AddCommand(&cobra.Command{
		Use:   "pending",
		Short: "List merge edges still waiting on unreported data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpJSON(apiURL() + "/v1/graph/pending")
		},
	})
	return graphCmd
}

func newProbesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "probes",
		Short: "List probes seen by the collector",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpJSON(apiURL() + "/v1/probes")
		},
	}
}

func newNamesCommand() *cobra.Command {
	namesCmd := &cobra.Command{Use: "names", Short: "Name manifest operations"}
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate probe/event name manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			probesCSV, _ := cmd.Flags().GetString("probes-csv")
			eventsCSV, _ := cmd.Flags().GetString("events-csv")
			if probesCSV == "" && eventsCSV == "" {
				return fmt.Errorf("pass --probes-csv and/or --events-csv")
			}
			if _, err := naming.Load(probesCSV, eventsCSV); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}
	checkCmd.Flags().String("probes-csv", "", "Probe name manifest")
	checkCmd.Flags().String("events-csv", "", "Event name manifest")
	namesCmd.AddCommand(checkCmd)

	resolveCmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve probe/event ids to names using manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			probesCSV, _ := cmd.Flags().GetString("probes-csv")
			eventsCSV, _ := cmd.Flags().GetString("events-csv")
			probeID, _ := cmd.Flags().GetUint32("probe")
			eventID, _ := cmd.Flags().GetUint32("event")
			reg, err := naming.Load(probesCSV, eventsCSV)
			if err != nil {
				return err
			}
			if probeID == 0 && eventID == 0 {
				return fmt.Errorf("pass --probe and/or --event")
			}
			if probeID != 0 {
				fmt.Println(reg.ProbeName(probeID))
			}
			if eventID != 0 {
				fmt.Println(reg.EventName(eventID))
			}
			return nil
		},
	}
	resolveCmd.Flags().String("probes-csv", "", "Probe name manifest")
	resolveCmd.Flags().String("events-csv", "", "Event name manifest")
	resolveCmd.Flags().Uint32("probe", 0, "Probe id to resolve")
	resolveCmd.Flags().Uint32("event", 0, "Event id to resolve")
	namesCmd.AddCommand(resolveCmd)
	return namesCmd
}

func dumpJSON(u string) error {
	resp, err := http.Get(u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("collector returned %s: %s", resp.Status, body)
	}
	var pretty any
	if err := json.Unmarshal(body, &pretty); err != nil {
		fmt.Println(string(body))
		return nil
	}
	out, _ := json.MarshalIndent(pretty, "", "  ")
	fmt.Println(string(out))
	return nil
}

func apiURL() string {
	if v := os.Getenv("CAUSEWAY_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:7070"
}
