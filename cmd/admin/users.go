package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"socialhub/internal/repository"
	"socialhub/internal/service"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and remove accounts",
}

var usersListLimit int

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		users, err := userRepository(db).List(cmd.Context(), repository.Page{Limit: usersListLimit})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, u.CreatedAt.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var usersDeleteEmail string

var usersDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete an account and everything it owns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		// Images are left in storage; the admin tool has no store configured.
		users := service.NewUserService(userRepository(db), nil)
		if err := users.DeleteByEmail(cmd.Context(), usersDeleteEmail); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", usersDeleteEmail)
		return nil
	},
}

func init() {
	usersListCmd.Flags().IntVar(&usersListLimit, "limit", 50, "maximum accounts to show (0 for all)")
	usersDeleteCmd.Flags().StringVar(&usersDeleteEmail, "email", "", "email of the account to delete")
	_ = usersDeleteCmd.MarkFlagRequired("email")

	usersCmd.AddCommand(usersListCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}
