package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"tipranks-client/internal/credentials"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func init() {
	keyringCmd.AddCommand(keyringSetCmd)
	keyringCmd.AddCommand(keyringDeleteCmd)
	rootCmd.AddCommand(keyringCmd)
}

var keyringCmd = &cobra.Command{
	Use:   "keyring",
	Short: "Manages the password stored in the OS keyring.",
}

var keyringSetCmd = &cobra.Command{
	Use:   "set [email]",
	Short: "Reads a password from stdin and stores it for the email (defaults to the configured email).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := keyringEmail(args)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "password for %s: ", email)
		password, err := readPassword(cmd)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		return credentials.Store(email, password)
	},
}

// readPassword reads one line from stdin without echoing it when stdin is a terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		return string(password), err
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

var keyringDeleteCmd = &cobra.Command{
	Use:   "delete [email]",
	Short: "Removes the stored password of the email (defaults to the configured email).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, err := keyringEmail(args)
		if err != nil {
			return err
		}
		return credentials.Forget(email)
	},
}

func keyringEmail(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := readConfig()
	if err != nil {
		return "", fmt.Errorf("read config: %w", err)
	}
	if cfg.Email == "" {
		return "", fmt.Errorf("no email given or configured")
	}
	return cfg.Email, nil
}
