package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pkt.systems/fotodrop/internal/session"
	"pkt.systems/fotodrop/schema"
	"pkt.systems/fotodrop/subscribe"
	"pkt.systems/pslog"
)

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			password, err = ensurePassword(cmd, password)
			if err != nil {
				return err
			}
			resp, err := rt.api.Login(cmd.Context(), schema.LoginRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := storeCredential(rt, cmd, resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			return resumeParkedSubscription(cmd, rt)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			password, err = ensurePassword(cmd, password)
			if err != nil {
				return err
			}
			resp, err := rt.api.Register(cmd.Context(), schema.RegisterRequest{Name: name, Email: email, Password: password})
			if err != nil {
				return err
			}
			if err := storeCredential(rt, cmd, resp); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account created")
			return resumeParkedSubscription(cmd, rt)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Discard the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			if err := rt.session.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged out")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			user, err := rt.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", user.Name, user.Email)
			return nil
		},
	}
}

func ensurePassword(cmd *cobra.Command, password string) (string, error) {
	if password != "" {
		return password, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "password: ")
	data, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	password = strings.TrimSpace(string(data))
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

func storeCredential(rt *runtime, cmd *cobra.Command, resp schema.AuthResponse) error {
	if resp.Token == "" {
		return errors.New("backend returned no token")
	}
	userID := resp.User.ID
	if userID == "" {
		// Older backends omit the user in the auth response.
		if err := rt.session.SetCredential(session.Credential{Token: resp.Token}); err != nil {
			return err
		}
		user, err := rt.api.Me(cmd.Context())
		if err != nil {
			return err
		}
		userID = user.ID
	}
	return rt.session.SetCredential(session.Credential{Token: resp.Token, UserID: userID})
}

// resumeParkedSubscription completes a subscription the user committed to
// before authenticating.
func resumeParkedSubscription(cmd *cobra.Command, rt *runtime) error {
	flow, resumed, err := subscribe.ResumeParked(cmd.Context(), rt.api, rt.session, rt.intents, pslog.Ctx(cmd.Context()))
	if err != nil {
		return fmt.Errorf("resume parked subscription: %w", err)
	}
	if !resumed {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "subscribed to %s\n", eventLabel(flow.Event()))
	return nil
}

func eventLabel(event schema.Event) string {
	if event.Title != "" {
		return fmt.Sprintf("%s (%s)", event.Title, event.ID)
	}
	return string(event.ID)
}
