package main

import (
	"fmt"
	"time"

	"socialhub/internal/repository"

	"github.com/spf13/cobra"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Password recovery code maintenance",
}

var codesPurgeGrace time.Duration

var codesPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete used recovery codes and codes expired longer than the grace period",
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		n, err := repository.NewResetCodeRepository(db).PurgeStale(cmd.Context(), time.Now().Add(-codesPurgeGrace))
		if err != nil {
			return err
		}
		fmt.Printf("purged %d codes\n", n)
		return nil
	},
}

func init() {
	codesPurgeCmd.Flags().DurationVar(&codesPurgeGrace, "grace", 0, "keep expired codes this much longer")
	codesCmd.AddCommand(codesPurgeCmd)
	rootCmd.AddCommand(codesCmd)
}
