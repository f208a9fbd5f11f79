package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/hanzhe-sun/paxosledger/internal/config"
	"github.com/hanzhe-sun/paxosledger/internal/ledger"
)

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC)

	if err := newRootCmd(logger).Execute(); err != nil {
		logger.Log("msg", "fatal error", "error", err)
		os.Exit(1)
	}
}

func newRootCmd(logger log.Logger) *cobra.Command {
	var (
		configPath    string
		exportPath    string
		serverId      int
		creditWeight  int
		redisAddr     string
		redisPassword string
		redisDB       int
	)

	cmd := &cobra.Command{
		Use:   "paxosd",
		Short: "Runs one server process of the Paxos-elected leader cluster.",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config load failed: %w", err)
			}
			if serverId < 0 || serverId >= topo.ServerNum {
				return fmt.Errorf("serverId %d out of range [0,%d)", serverId, topo.ServerNum)
			}

			rdb := redis.NewClient(&redis.Options{
				Addr:     redisAddr,
				Password: redisPassword,
				DB:       redisDB,
			})
			ledgerSvc := ledger.NewService(logger, rdb)

			reg := prometheus.NewRegistry()

			app, err := newApp(logger, topo, serverId, creditWeight, ledgerSvc, reg)
			if err != nil {
				return fmt.Errorf("startup failed: %w", err)
			}

			if exportPath != "" {
				export := config.ClientExport{ServerNum: topo.ServerNum}
				for _, e := range topo.ServerConfigurationMap.ServerList {
					export.ServerAddressList = append(export.ServerAddressList, e.Address)
				}
				if err := config.WriteClientExport(exportPath, export); err != nil {
					logger.Log("msg", "failed to write client export file", "error", err)
				}
			}

			ctx, cancel := context.WithCancel(context.Background())
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			app.Run(ctx)
			<-sig
			logger.Log("msg", "shutdown signal received")
			cancel()
			app.Stop()
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to the cluster topology JSON file (required)")
	flags.StringVar(&exportPath, "export", "", "path to write the client-exported address list (optional)")
	flags.IntVar(&serverId, "server-id", -1, "this process's serverId (required)")
	flags.IntVar(&creditWeight, "credit-weight", 100, "credit weight in [1,100] biasing proposal tie-breaking")
	flags.StringVar(&redisAddr, "redis-addr", "127.0.0.1:6379", "address of the Redis instance backing the ledger store")
	flags.StringVar(&redisPassword, "redis-password", "", "password for the Redis instance")
	flags.IntVar(&redisDB, "redis-db", 0, "Redis logical database number")
	cmd.MarkFlagRequired("config")
	cmd.MarkFlagRequired("server-id")

	return cmd
}
