package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/parser"
	"github.com/KaramelBytes/chartloom/internal/share"
	"github.com/KaramelBytes/chartloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	shareHours    int
	shareMarkdown bool
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Create and read expiring share links for analysis results",
}

var shareCreateCmd = &cobra.Command{
	Use:   "create <result.json>",
	Short: "Store an analysis result (from analyze --format json) behind a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		raw, err := parser.Fetch(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		var res analysis.Result
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		if res.Profile == nil {
			return fmt.Errorf("%s is not an analysis result (no profile)", args[0])
		}
		hours := c.ShareTTLHours
		if cmd.Flags().Changed("hours") {
			hours = shareHours
		}
		if hours < share.MinHours || hours > share.MaxHours {
			return fmt.Errorf("--hours must be between %d and %d", share.MinHours, share.MaxHours)
		}
		store, err := shareStore(c, true)
		if err != nil {
			return err
		}
		sh, err := share.New(res.Filename, raw, hours, time.Now())
		if err != nil {
			return err
		}
		if err := store.Put(cmd.Context(), sh); err != nil {
			return err
		}
		if n, err := store.Cleanup(cmd.Context()); err == nil && n > 0 {
			fmt.Printf("✓ Removed %d expired share link(s)\n", n)
		}
		fmt.Printf("✓ Share token: %s (expires %s)\n", sh.Token, sh.ExpiresAt.Local().Format(time.RFC1123))
		return nil
	},
}

var shareShowCmd = &cobra.Command{
	Use:   "show <token>",
	Short: "Print a shared analysis result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		store, err := shareStore(c, true)
		if err != nil {
			return err
		}
		sh, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if shareMarkdown {
			var res analysis.Result
			if err := json.Unmarshal(sh.Result, &res); err != nil {
				return fmt.Errorf("decode result: %w", err)
			}
			fmt.Println(res.Markdown())
			return nil
		}
		var v any
		if err := json.Unmarshal(sh.Result, &v); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
		out, err := utils.PrettyJSON(v)
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(shareCmd)
	shareCmd.AddCommand(shareCreateCmd)
	shareCmd.AddCommand(shareShowCmd)
	shareCreateCmd.Flags().IntVar(&shareHours, "hours", share.DefaultHours, "hours until the link expires (1-168)")
	shareShowCmd.Flags().BoolVar(&shareMarkdown, "markdown", false, "render the result as a Markdown report")
}
