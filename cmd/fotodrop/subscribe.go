package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/fotodrop/internal/session"
	"pkt.systems/fotodrop/schema"
	"pkt.systems/fotodrop/subscribe"
	"pkt.systems/pslog"
)

func newSubscribeCmd() *cobra.Command {
	var eventID string
	var wait bool
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Subscribe to an event",
		Long: `Subscribe to an event by id, typically taken from a shared link or QR code.

Without a stored login the intent is parked and completed automatically by
the next "fotodrop register" or "fotodrop login". With --wait the command
instead blocks until a login lands, from this terminal or another, and
finishes the subscription itself.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			flow := subscribe.New(schema.EventID(eventID), rt.api, rt.session, rt.intents, pslog.Ctx(cmd.Context()))
			state, err := flow.Resolve(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch state {
			case subscribe.StateAwaitingAuth:
				if !wait {
					fmt.Fprintln(out, "no account yet: subscription saved")
					fmt.Fprintln(out, "run \"fotodrop register\" to create an account and complete it")
					return nil
				}
				fmt.Fprintln(out, "no account yet: waiting for a login from another terminal")
				if err := waitForLogin(cmd.Context(), rt.session); err != nil {
					return err
				}
				flow, resumed, err := subscribe.ResumeParked(cmd.Context(), rt.api, rt.session, rt.intents, pslog.Ctx(cmd.Context()))
				if err != nil {
					return err
				}
				if !resumed || !flow.Success() {
					return fmt.Errorf("subscription was not completed")
				}
				fmt.Fprintf(out, "subscribed to %s\n", eventLabel(flow.Event()))
				return nil
			case subscribe.StateDone:
				fmt.Fprintf(out, "already subscribed to %s\n", eventLabel(flow.Event()))
				return nil
			}
			if _, err := flow.SubscribeNow(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(out, "subscribed to %s\n", eventLabel(flow.Event()))
			return nil
		},
	}
	cmd.Flags().StringVar(&eventID, "event", "", "event id")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until a login completes the subscription")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}

// waitForLogin blocks until another process stores a credential. The watcher
// reloads the store on file changes; the subscription fires on the transition
// to authenticated.
func waitForLogin(ctx context.Context, sess *session.Store) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	authed := make(chan struct{}, 1)
	unsubscribe := sess.Subscribe(func(status session.Status) {
		if status.IsAuthenticated {
			select {
			case authed <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	watchErr := make(chan error, 1)
	go func() { watchErr <- sess.Watch(ctx) }()

	// The login may have landed between Resolve and the watch starting.
	sess.Reload()
	if sess.Status().IsAuthenticated {
		return nil
	}
	select {
	case <-authed:
		return nil
	case err := <-watchErr:
		if err != nil {
			return err
		}
		return fmt.Errorf("credential watch stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newUnsubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsubscribe <event-id>",
		Short: "Unsubscribe from an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.api.Unsubscribe(cmd.Context(), schema.EventID(args[0])); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "unsubscribed")
			return nil
		},
	}
}
