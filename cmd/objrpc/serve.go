package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"objrpc/dispatch"
	"objrpc/middleware"
	"objrpc/registry"
	"objrpc/server"
)

func serveCmd() *cobra.Command {
	var (
		port          int
		etcdEndpoints []string
		advertise     string
		serviceName   string
		ratePerSec    float64
		burst         int
		timeout       time.Duration
		metricsAddr   string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the RPC server with the builtin handler table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := dispatch.NewTable(dispatch.Builtins()...)
			if err != nil {
				return err
			}
			svr := server.NewServer(table)

			svr.Use(middleware.LoggingMiddleware())
			if ratePerSec > 0 {
				svr.Use(middleware.RateLimitMiddleware(ratePerSec, burst))
			}
			if timeout > 0 {
				svr.Use(middleware.TimeoutMiddleware(timeout))
			}
			if metricsAddr != "" {
				svr.Use(middleware.MetricsMiddleware(prometheus.DefaultRegisterer))
				go func() {
					mux := http.NewServeMux()
					mux.Handle("/metrics", promhttp.Handler())
					if err := http.ListenAndServe(metricsAddr, mux); err != nil {
						log.Printf("metrics listener: %v", err)
					}
				}()
			}

			if len(etcdEndpoints) > 0 {
				reg, err := registry.NewEtcdRegistry(etcdEndpoints)
				if err != nil {
					return err
				}
				defer reg.Close()
				addr := advertise
				if addr == "" {
					addr = fmt.Sprintf("127.0.0.1:%d", port)
				}
				svr.Advertise(reg, serviceName, addr)
			}

			if err := svr.Run(port); err != nil {
				return err
			}
			log.Printf("listening on %s", svr.Addr())

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig
			log.Printf("shutting down")
			return svr.Stop(5 * time.Second)
		},
	}

	cmd.Flags().IntVar(&port, "port", 9999, "TCP port to listen on")
	cmd.Flags().StringSliceVar(&etcdEndpoints, "etcd", nil, "etcd endpoints for service registration")
	cmd.Flags().StringVar(&advertise, "advertise", "", "address to advertise in etcd (defaults to 127.0.0.1:<port>)")
	cmd.Flags().StringVar(&serviceName, "service", "objrpc", "service name to register")
	cmd.Flags().Float64Var(&ratePerSec, "rate", 0, "rate limit in requests/second (0 disables)")
	cmd.Flags().IntVar(&burst, "burst", 10, "rate limit burst size")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request handler timeout (0 disables)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics listener")
	return cmd
}
