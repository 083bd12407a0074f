package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <keyword> <blog-url>",
		Short: "Checks one keyword and article",
		Long: `Runs a single exposure check and prints the result as JSON. The exit
status is zero even when the article is not exposed; it is non-zero only
when the check could not be completed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := strings.TrimSpace(args[0])
			blogURL := strings.TrimSpace(args[1])
			if keyword == "" || blogURL == "" {
				return errors.New("keyword and blog url are required")
			}
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}

			result := appInstance.Engine().CheckExposure(cmd.Context(), keyword, blogURL)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			if !result.Success {
				return fmt.Errorf("check failed: %s", result.Message)
			}
			return nil
		},
	}
}
