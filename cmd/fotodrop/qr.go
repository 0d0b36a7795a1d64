package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mdp/qrterminal/v3"
	"github.com/spf13/cobra"
)

func newQRCmd() *cobra.Command {
	var linkBase string
	cmd := &cobra.Command{
		Use:   "qr <event-id>",
		Short: "Print an event's subscription link as a QR code",
		Long: `Print a scannable QR code for an event's subscription link, for
sharing an event with guests at the venue.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := linkBase
			if base == "" {
				rt, err := newRuntime(cmd)
				if err != nil {
					return err
				}
				base = rt.cfg.API.BaseURL
			}
			link := strings.TrimRight(base, "/") + "/subscribe?event=" + url.QueryEscape(args[0])
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", link)
			qrterminal.GenerateHalfBlock(link, qrterminal.L, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&linkBase, "link-base", "", "base url for the subscription link (default: configured api base url)")
	return cmd
}
