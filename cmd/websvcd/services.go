package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/cmstar/go-websvc"
	"github.com/spf13/cobra"
)

func newServicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List the registered services and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}

			a, err := newApp(cfg, io.Discard)
			if err != nil {
				return err
			}

			return printServices(cmd.OutOrStdout(), a.manager)
		},
	}
}

func printServices(w io.Writer, manager *websvc.ServicesManager) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tMETHODS\tAUTH\tPARAMETERS")

	for _, s := range manager.Services() {
		methods := "*"
		if m := s.RequestMethods(); len(m) > 0 {
			methods = strings.Join(m, ",")
		}

		params := make([]string, 0, len(s.Parameters()))
		for _, p := range s.Parameters() {
			params = append(params, p.String())
		}

		fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", s.Name(), methods, s.IsAuthRequired(), strings.Join(params, " "))
	}
	return tw.Flush()
}
