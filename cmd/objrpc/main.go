// Command objrpc runs the framed RPC server or issues calls against one.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "objrpc",
		Short:         "Framed msgpack RPC server and client",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), callCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
