package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authPassword string
	authName     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authEmail == "" || authPassword == "" {
			return errors.New("--email and --password are required")
		}
		return getApp().Login(cmd.Context(), authEmail, authPassword)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and log in",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authEmail == "" || authPassword == "" {
			return errors.New("--email and --password are required")
		}
		return getApp().Register(cmd.Context(), authEmail, authPassword, authName)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Terminate the current session and forget the stored identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Logout(cmd.Context())
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the identity requests are made under",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Whoami(cmd.Context())
	},
}

var updateProfileCmd = &cobra.Command{
	Use:   "update-profile",
	Short: "Change the logged-in account's display name",
	RunE: func(cmd *cobra.Command, args []string) error {
		if authName == "" {
			return errors.New("--name is required")
		}
		return getApp().UpdateProfile(cmd.Context(), authName)
	},
}

func init() {
	loginCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&authPassword, "password", "", "Account password")

	registerCmd.Flags().StringVar(&authEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "Account password")
	registerCmd.Flags().StringVar(&authName, "name", "", "Display name")

	updateProfileCmd.Flags().StringVar(&authName, "name", "", "New display name")
}
