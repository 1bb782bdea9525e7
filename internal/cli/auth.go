package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/pratik-mahalle/emsdispatch/internal/auth"
	"github.com/pratik-mahalle/emsdispatch/internal/domain/user"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}

	cmd.AddCommand(newAuthSetTokenCmd())
	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthWhoamiCmd())

	return cmd
}

func newAuthSetTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-token [token]",
		Short: "Store an access token issued by the identity provider",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			} else {
				token = promptPassword("Access token: ")
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("token is required")
			}

			viper.Set("auth.token", token)
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			fmt.Println("Token stored")
			return nil
		},
	}
}

// newAuthTokenCmd signs a token locally with the shared secret. Intended for
// operators and development setups that hold the signing key.
func newAuthTokenCmd() *cobra.Command {
	var userID, name, role string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint and store a token with the shared signing secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := user.Role(role)
			if !r.Valid() {
				return fmt.Errorf("invalid role %q (citizen, ems_personnel, admin)", role)
			}
			if userID == "" {
				userID = promptInput("User ID: ")
			}
			if userID == "" {
				return fmt.Errorf("user ID is required")
			}

			secret := viper.GetString("auth.secret")
			if secret == "" {
				secret = promptPassword("Signing secret: ")
			}
			if secret == "" {
				return fmt.Errorf("signing secret is required")
			}

			token, err := auth.MintToken(
				user.Actor{ID: userID, Role: r, Name: name},
				secret,
				viper.GetString("auth.issuer"),
				ttl,
			)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			viper.Set("auth.token", token)
			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}
			fmt.Printf("Token stored for %s (%s), valid for %s\n", userID, r, ttl)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user ID")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(user.RoleEMSPersonnel), "role: citizen, ems_personnel or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			viper.Set("auth.token", "")

			if err := writeConfig(); err != nil {
				return fmt.Errorf("failed to clear credentials: %w", err)
			}

			fmt.Println("Logged out successfully")
			return nil
		},
	}
}

func newAuthWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show current user info",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := apiClient.Users().Me(context.Background())
			if err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}

			if getOutputFormat() != "table" {
				return printOutput(u)
			}

			fmt.Printf("ID:    %s\n", u.ID)
			fmt.Printf("Email: %s\n", u.Email)
			if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
				fmt.Printf("Name:  %s\n", name)
			}
			if u.PhoneNumber != "" {
				fmt.Printf("Phone: %s\n", u.PhoneNumber)
			}
			fmt.Printf("Role:  %s\n", u.Role)
			return nil
		},
	}
}

func promptInput(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func promptPassword(prompt string) string {
	fmt.Print(prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(secret)
}
