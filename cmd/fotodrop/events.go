package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pkt.systems/fotodrop/schema"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Manage events",
	}
	cmd.AddCommand(newEventsListCmd())
	cmd.AddCommand(newEventsShowCmd())
	cmd.AddCommand(newEventsCreateCmd())
	cmd.AddCommand(newEventsUpdateCmd())
	cmd.AddCommand(newEventsDeleteCmd())
	cmd.AddCommand(newEventsMineCmd())
	return cmd
}

func newEventsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List events",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			events, err := rt.api.Events(cmd.Context())
			if err != nil {
				return err
			}
			return printEvents(cmd, events)
		},
	}
}

func newEventsMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List events you subscribe to",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			events, err := rt.api.SubscribedEvents(cmd.Context())
			if err != nil {
				return err
			}
			return printEvents(cmd, events)
		},
	}
}

func newEventsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			event, err := rt.api.Event(cmd.Context(), schema.EventID(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "id:          %s\n", event.ID)
			fmt.Fprintf(out, "title:       %s\n", event.Title)
			if event.Description != "" {
				fmt.Fprintf(out, "description: %s\n", event.Description)
			}
			if event.Location != "" {
				fmt.Fprintf(out, "location:    %s\n", event.Location)
			}
			fmt.Fprintf(out, "subscribers: %d\n", len(event.Subscribers))
			return nil
		},
	}
}

func newEventsCreateCmd() *cobra.Command {
	var req schema.EventRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an event",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			event, err := rt.api.CreateEvent(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", eventLabel(event))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "event title")
	cmd.Flags().StringVar(&req.Description, "description", "", "event description")
	cmd.Flags().StringVar(&req.Date, "date", "", "event date")
	cmd.Flags().StringVar(&req.Location, "location", "", "event location")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newEventsUpdateCmd() *cobra.Command {
	var req schema.EventRequest
	cmd := &cobra.Command{
		Use:   "update <event-id>",
		Short: "Update an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			event, err := rt.api.UpdateEvent(cmd.Context(), schema.EventID(args[0]), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", eventLabel(event))
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "event title")
	cmd.Flags().StringVar(&req.Description, "description", "", "event description")
	cmd.Flags().StringVar(&req.Date, "date", "", "event date")
	cmd.Flags().StringVar(&req.Location, "location", "", "event location")
	return cmd
}

func newEventsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <event-id>",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.api.DeleteEvent(cmd.Context(), schema.EventID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func newReadyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ready <event-id>",
		Short: "Push an event's photos to its subscribers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.api.PushReady(cmd.Context(), schema.EventID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "distribution queued")
			return nil
		},
	}
}

func newSubscribersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribers <event-id>",
		Short: "List an event's subscribers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			subs, err := rt.api.Subscribers(cmd.Context(), schema.EventID(args[0]))
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no subscribers")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL")
			for _, sub := range subs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", sub.ID, sub.Name, sub.Email)
			}
			return w.Flush()
		},
	}
}

func printEvents(cmd *cobra.Command, events []schema.Event) error {
	if len(events) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no events")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tSUBSCRIBERS")
	for _, event := range events {
		fmt.Fprintf(w, "%s\t%s\t%d\n", event.ID, event.Title, len(event.Subscribers))
	}
	return w.Flush()
}
