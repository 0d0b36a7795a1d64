package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/fotodrop/schema"
)

func newPhotosCmd() *cobra.Command {
	var page, limit int
	cmd := &cobra.Command{
		Use:   "photos <event-id>",
		Short: "List an event's photos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if limit == 0 {
				limit = rt.cfg.Photos.PageLimit
			}
			result, err := rt.api.Photos(cmd.Context(), schema.EventID(args[0]), page, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(result.Photos) == 0 {
				fmt.Fprintln(out, "no photos")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tURL\tUPLOADED")
			for _, photo := range result.Photos {
				uploaded := ""
				if !photo.Uploaded.IsZero() {
					uploaded = photo.Uploaded.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", photo.ID, photo.URL, uploaded)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			totalPages := (result.Total + limit - 1) / limit
			fmt.Fprintf(out, "page %d/%d (%d photos total)\n", page, totalPages, result.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&limit, "limit", 0, "photos per page (0 = configured page limit)")
	return cmd
}
