package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	authPassword string
	authFullName string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the authentication session",
	Long:  `Log in to the route-planning service, register accounts and inspect the current session.`,
}

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in and persist the session token",
	Long: `Authenticate against the service and store the access token in the
session token file (default: ~/.pathium/token). Subsequent commands reuse
the stored token until it expires or you log out.

Examples:
  pathium auth login ops@example.com
  pathium auth login ops@example.com --password secret`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register [email]",
	Short: "Create an account and log in",
	Long: `Register a new account with the service. On success the command logs
in immediately, so the session is authenticated afterwards.

Examples:
  pathium auth register ops@example.com --full-name "Ops Team"`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current identity",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&authPassword, "password", "", "password (prompted when omitted)")
	registerCmd.Flags().StringVar(&authPassword, "password", "", "password (prompted when omitted)")
	registerCmd.Flags().StringVar(&authFullName, "full-name", "", "display name for the account")

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(whoamiCmd)
}

func readPassword() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email := args[0]

	password, err := readPassword()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	if err := a.sessions.Login(cmd.Context(), email, password); err != nil {
		return err
	}

	identity := a.sessions.Identity()
	fmt.Printf("✓ Logged in as %s (%s)\n", identity.Email, identity.Role)
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	email := args[0]

	password, err := readPassword()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	var fullName *string
	if authFullName != "" {
		fullName = &authFullName
	}

	if err := a.sessions.Register(cmd.Context(), email, password, fullName); err != nil {
		return err
	}

	fmt.Printf("✓ Registered and logged in as %s\n", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	a.sessions.Logout()
	fmt.Println("✓ Logged out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	identity := a.sessions.Identity()
	if identity == nil {
		fmt.Println("Not authenticated")
		return nil
	}

	fmt.Printf("Email:  %s\n", identity.Email)
	if identity.FullName != nil {
		fmt.Printf("Name:   %s\n", *identity.FullName)
	}
	fmt.Printf("Role:   %s\n", identity.Role)
	fmt.Printf("Active: %t\n", identity.IsActive)
	return nil
}
