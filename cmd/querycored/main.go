package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/erigontech/erigon-lib/log/v3"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/ydb-platform/ydb-go-query-core/querycore/compile"
	qconfig "github.com/ydb-platform/ydb-go-query-core/querycore/config"
	"github.com/ydb-platform/ydb-go-query-core/querycore/hostrpc"
)

var (
	configPath string
	hostAddr   string
	verbosity  string
	replayDir  string
)

func rootContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var rootCmd = &cobra.Command{
	Use:   "querycored",
	Short: "Run the query-core compile actor supervisor",
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Root().SetHandler(log.LvlFilterHandler(parseLvl(verbosity), log.StderrHandler))
		logger := log.New()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		conn, err := grpc.Dial(hostAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			return fmt.Errorf("dial query host %s: %w", hostAddr, err)
		}
		defer conn.Close()

		host := hostrpc.NewHostAdapter(hostrpc.NewQueryHostClient(conn))

		replay := compile.NewReplayWriter(
			filepath.Join(replayDir, "replay.log"),
			filepath.Join(replayDir, "replay.diagnostics.log"),
			100, 10, 28,
		)
		defer replay.Close()

		ctx := cmd.Context()
		sup := newSupervisor(logger, host, cfg, replay)
		return sup.Run(ctx)
	},
}

func parseLvl(s string) log.Lvl {
	lvl, err := log.LvlFromString(s)
	if err != nil {
		return log.LvlInfo
	}
	return lvl
}

func loadConfig(path string) (qconfig.Config, error) {
	if path == "" {
		return qconfig.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return qconfig.Config{}, err
	}
	return qconfig.Load(data)
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the query-core YAML config (spec §6); defaults built in when omitted")
	rootCmd.Flags().StringVar(&hostAddr, "host.addr", "localhost:9191", "address of the external compile Host (§6)")
	rootCmd.Flags().StringVar(&verbosity, "verbosity", "info", "log level: trace|debug|info|warn|error|crit")
	rootCmd.Flags().StringVar(&replayDir, "replay.dir", ".", "directory for the rotated replay log files (spec §4.E)")
}

func main() {
	ctx, cancel := rootContext()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Printf("ExecuteContext: %v\n", err)
			os.Exit(1)
		}
	}
}
