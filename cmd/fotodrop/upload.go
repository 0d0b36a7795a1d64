package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/fotodrop/intake"
	"pkt.systems/fotodrop/preview"
	"pkt.systems/fotodrop/schema"
	"pkt.systems/fotodrop/upload"
	"pkt.systems/pslog"
)

// approxPixelsPerColumn translates terminal columns into the pixel widths
// the preview breakpoints are defined over.
const approxPixelsPerColumn = 8

func newUploadCmd() *cobra.Command {
	var (
		eventID       string
		filesOnly     bool
		showPreview   bool
		viewportWidth int
	)
	cmd := &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload photos to an event",
		Long: `Upload photos to an event. Arguments may be files or directories;
directories are enumerated recursively and non-image entries are skipped.
With --files-only, directory arguments are skipped instead of entered.

All resolved photos are sent as a single batch. A failed batch leaves the
selection intact, so the same command can simply be run again.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			logger := pslog.Ctx(cmd.Context())

			resolver := intake.NewResolver(logger)
			var pending []intake.PendingUpload
			if filesOnly {
				pending, err = resolver.ResolveFiles(cmd.Context(), args)
			} else {
				pending, err = resolver.ResolveDrop(cmd.Context(), args)
			}
			if err != nil {
				return err
			}
			if len(pending) == 0 {
				return errors.New("selection contains no images")
			}

			if showPreview {
				width := viewportWidth
				if width == 0 {
					width = rt.cfg.Upload.ViewportWidth
				}
				if width == 0 {
					width = detectViewportWidth()
				}
				window := preview.NewWindow(pending, width, nil, logger)
				defer window.Close()
				if err := printPreviewPages(cmd, window); err != nil {
					return err
				}
			}

			batch, err := upload.NewBatchWithLogger(schema.EventID(eventID), pending, logger)
			if err != nil {
				return err
			}
			if _, err := batch.Submit(cmd.Context(), rt.api); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d photos to %s\n", batch.Len(), eventID)
			return nil
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "event id")
	cmd.Flags().BoolVar(&filesOnly, "files-only", false, "skip directory arguments instead of entering them")
	cmd.Flags().BoolVar(&showPreview, "preview", false, "render thumbnail preview pages before uploading")
	cmd.Flags().IntVar(&viewportWidth, "viewport-width", 0, "viewport width in pixels for preview paging (0 = detect)")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// detectViewportWidth approximates a viewport width from the terminal size.
func detectViewportWidth() int {
	cols, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || cols <= 0 {
		return 1024
	}
	return cols * approxPixelsPerColumn
}

// printPreviewPages walks every preview page, forcing thumbnail allocation
// for each, and prints what the batch is about to send.
func printPreviewPages(cmd *cobra.Command, window *preview.Window) error {
	out := cmd.OutOrStdout()
	for {
		items := window.Visible()
		fmt.Fprintf(out, "page %d/%d\n", window.Page()+1, window.TotalPages())
		for _, item := range items {
			if item.Resource != nil {
				fmt.Fprintf(out, "  %s (%s, %d byte thumbnail)\n",
					item.Pending.Handle.Name, item.Pending.MediaType, item.Resource.Len())
				continue
			}
			fmt.Fprintf(out, "  %s (%s, no preview)\n", item.Pending.Handle.Name, item.Pending.MediaType)
		}
		if !window.Next() {
			return nil
		}
	}
}
