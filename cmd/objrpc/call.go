package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"objrpc/client"
)

func callCmd() *cobra.Command {
	var (
		addr   string
		kwargs string
	)

	cmd := &cobra.Command{
		Use:   "call <method> [arg...]",
		Short: "Invoke a method on a running server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := client.Dial(addr, 1)
			defer cli.Close()

			var (
				result any
				err    error
			)
			if kwargs != "" {
				kw := map[string]any{}
				if err := json.Unmarshal([]byte(kwargs), &kw); err != nil {
					return fmt.Errorf("parse --kwargs: %w", err)
				}
				result, err = cli.CallKeyword(args[0], kw)
			} else {
				positional := make([]any, 0, len(args)-1)
				for _, raw := range args[1:] {
					positional = append(positional, parseArg(raw))
				}
				result, err = cli.Call(args[0], positional...)
			}
			if err != nil {
				return err
			}

			switch v := result.(type) {
			case []byte:
				cmd.OutOrStdout().Write(v)
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%v\n", v)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9999", "server address")
	cmd.Flags().StringVar(&kwargs, "kwargs", "", "JSON object of keyword arguments (replaces positional args)")
	return cmd
}

// parseArg interprets a positional argument as JSON, falling back to a plain
// string for bare words like file names.
func parseArg(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
