package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yllada/tunnel-tray/common"
	"github.com/yllada/tunnel-tray/config"
	"github.com/yllada/tunnel-tray/keyring"
)

var secretCmd = &cobra.Command{
	Use:   "secret",
	Short: "Manage the stored elevation password",
	Long: "The elevation password is kept in the system keyring, or in an encrypted\n" +
		"file when no keyring is available. When sudo_password_stdin is set it is\n" +
		"written to the elevation command's stdin.",
}

var secretSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the elevation password and enable sudo_password_stdin",
	Args:  cobra.NoArgs,
	RunE:  runSecretSet,
}

var secretClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored password and disable sudo_password_stdin",
	Args:  cobra.NoArgs,
	RunE:  runSecretClear,
}

var secretStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a password is stored",
	Args:  cobra.NoArgs,
	RunE:  runSecretStatus,
}

func init() {
	secretCmd.AddCommand(secretSetCmd, secretClearCmd, secretStatusCmd)
	rootCmd.AddCommand(secretCmd)
}

func runSecretSet(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray secret set: %w", err)
	}
	store, err := a.secrets.open()
	if err != nil {
		return fmt.Errorf("tunnel-tray secret set: %w", err)
	}

	password, err := readPassword(cmd, "Elevation password: ")
	if err != nil {
		return fmt.Errorf("tunnel-tray secret set: %w", err)
	}
	if password == "" {
		return errors.New("tunnel-tray secret set: empty password")
	}

	if err := store.Set(keyring.ElevationAccount, password); err != nil {
		return fmt.Errorf("tunnel-tray secret set: %w", err)
	}
	if err := a.store.Update(func(c *config.Config) { c.SudoPasswordStdin = true }); err != nil {
		return fmt.Errorf("tunnel-tray secret set: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Password stored in the %s.\n", store.Backend())
	if cfg := a.store.Snapshot(); !readsStdin(cfg.SudoCommand) {
		fmt.Fprintf(out, "Note: %q may not read the password from stdin; \"sudo -S\" does.\n", cfg.SudoCommand)
	}
	return nil
}

func runSecretClear(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray secret clear: %w", err)
	}
	store, err := a.secrets.open()
	if err != nil {
		return fmt.Errorf("tunnel-tray secret clear: %w", err)
	}

	if err := store.Delete(keyring.ElevationAccount); err != nil {
		return fmt.Errorf("tunnel-tray secret clear: %w", err)
	}
	if err := a.store.Update(func(c *config.Config) { c.SudoPasswordStdin = false }); err != nil {
		return fmt.Errorf("tunnel-tray secret clear: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Password removed.")
	return nil
}

func runSecretStatus(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return fmt.Errorf("tunnel-tray secret status: %w", err)
	}
	store, err := a.secrets.open()
	if err != nil {
		return fmt.Errorf("tunnel-tray secret status: %w", err)
	}

	out := cmd.OutOrStdout()
	_, err = store.Get(keyring.ElevationAccount)
	switch {
	case errors.Is(err, common.ErrSecretNotFound):
		fmt.Fprintf(out, "No password stored (%s).\n", store.Backend())
	case err != nil:
		return fmt.Errorf("tunnel-tray secret status: %w", err)
	default:
		fmt.Fprintf(out, "Password stored in the %s.\n", store.Backend())
	}
	fmt.Fprintf(out, "sudo_password_stdin: %v\n", a.store.Snapshot().SudoPasswordStdin)
	return nil
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise, so the password can be piped in.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(cmd.ErrOrStderr(), prompt)
		data, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readsStdin(command string) bool {
	for _, field := range strings.Fields(command) {
		if field == "-S" || field == "--stdin" {
			return true
		}
	}
	return false
}
