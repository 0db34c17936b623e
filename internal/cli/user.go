package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"tweetlink/internal/storage"
	"tweetlink/internal/users"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userAddCmd = &cobra.Command{
	Use:   "add [email]",
	Short: "Create a user with a password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password, err = readPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
		}

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer storage.Close(db)

		repo := users.NewRepository(db, newValidator(cfg))
		user, err := repo.Create(cmd.Context(), args[0], password)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created user %d <%s>\n", user.ID, user.Email)
		return nil
	},
}

var userShowCmd = &cobra.Command{
	Use:   "show [email]",
	Short: "Show a user and their linked Twitter account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer storage.Close(db)

		user, err := users.NewRepository(db, nil).WithTwitterAccount(cmd.Context(), args[0])
		if errors.Is(err, users.ErrNotFound) {
			return fmt.Errorf("no user with email %s", args[0])
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User %d <%s>\n", user.ID, user.Email)
		if acct := user.TwitterAccount; acct != nil {
			fmt.Fprintf(out, "Twitter: @%s (%s), linked %s\n", acct.Username, acct.Name, acct.CreatedAt.Format("2006-01-02"))
		} else {
			fmt.Fprintln(out, "Twitter: not linked")
		}
		return nil
	},
}

func readPassword(out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no --password given and stdin is not a terminal")
	}

	fmt.Fprint(out, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func init() {
	userAddCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userShowCmd)
}
