package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pkt.systems/fotodrop/schema"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			user, err := rt.api.Profile(cmd.Context())
			if err != nil {
				return err
			}
			printUser(cmd, user)
			return nil
		},
	}
	cmd.AddCommand(newProfileUpdateCmd())
	return cmd
}

func newProfileUpdateCmd() *cobra.Command {
	var req schema.UpdateProfileRequest
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update profile fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" && req.Email == "" {
				return fmt.Errorf("nothing to update; set --name or --email")
			}
			rt, err := newRuntime(cmd)
			if err != nil {
				return err
			}
			user, err := rt.api.UpdateProfile(cmd.Context(), req)
			if err != nil {
				return err
			}
			printUser(cmd, user)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	return cmd
}

func printUser(cmd *cobra.Command, user schema.User) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "id:    %s\n", user.ID)
	fmt.Fprintf(out, "name:  %s\n", user.Name)
	fmt.Fprintf(out, "email: %s\n", user.Email)
}
