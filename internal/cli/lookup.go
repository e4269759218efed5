package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var lookupTimeout time.Duration

// lookupCmd represents the lookup command
var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Query the bibliographic metadata service",
	Long: `Lookup resolves the metadata the reference transformer would use for a
book or webpage citation, through the same cache and rate limits.`,
}

var lookupISBNCmd = &cobra.Command{
	Use:   "isbn <isbn>",
	Short: "Look up a book by ISBN",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, err := newResolver(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		book, ok, err := r.Book(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no book metadata for ISBN %s", args[0])
		}
		return printJSON(cmd, book)
	},
}

var lookupURLCmd = &cobra.Command{
	Use:   "url <url>",
	Short: "Look up a webpage title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		r, err := newResolver(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
		defer cancel()

		page, ok, err := r.Page(ctx, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no page metadata for %s", args[0])
		}
		return printJSON(cmd, page)
	},
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func init() {
	rootCmd.AddCommand(lookupCmd)
	lookupCmd.AddCommand(lookupISBNCmd)
	lookupCmd.AddCommand(lookupURLCmd)

	lookupCmd.PersistentFlags().DurationVar(&lookupTimeout, "timeout", 30*time.Second, "lookup timeout")
}
