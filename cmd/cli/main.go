package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/txsummary/internal/adapter/http/dto"
)

type options struct {
	baseURL string
	timeout time.Duration
	jsonOut bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "txsummary-cli",
		Short:         "Transaction summary CLI tool",
		Long:          `A command line interface for the transaction summary service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "Base URL of the txsummary API")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print raw JSON")

	rootCmd.AddCommand(
		newAccountsCmd(opts),
		newSendSummaryCmd(opts),
		newSummaryCmd(opts),
		newUploadCmd(opts),
		newMigrateCmd(),
	)
	return rootCmd
}

func newAccountsCmd(opts *options) *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("limit", fmt.Sprint(limit))
			query.Set("offset", fmt.Sprint(offset))

			var accounts []*dto.AccountResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/accounts?"+query.Encode(), nil, &accounts); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), accounts)
			}
			return printAccounts(cmd.OutOrStdout(), accounts)
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of accounts")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Number of accounts to skip")

	var nickname, email string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreateAccountRequest{Nickname: nickname, Email: email}

			var account dto.AccountResponse
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/accounts", req, &account); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), account)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %s (%s <%s>)\n", account.ID, account.Nickname, account.Email)
			return nil
		},
	}
	createCmd.Flags().StringVar(&nickname, "nickname", "", "Account nickname")
	createCmd.Flags().StringVar(&email, "email", "", "Account owner email")
	_ = createCmd.MarkFlagRequired("nickname")
	_ = createCmd.MarkFlagRequired("email")

	accountsCmd.AddCommand(listCmd, createCmd)
	return accountsCmd
}

func newSendSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send-summary <account-id>",
		Short: "Email the account's summary to its owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.SendSummaryResponse
			path := "/api/transactions/send-summary/" + url.PathEscape(args[0])
			if err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, path, nil, &resp); err != nil {
				return err
			}
			if opts.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Summary %s to %s\n", resp.Status, resp.Email)
			return nil
		},
	}
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(opts *options) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(opts.baseURL, "/"),
		http:    &http.Client{Timeout: opts.timeout},
	}
}

// do sends body as JSON and decodes a 2xx response into out. Error responses are
// returned with the server's message.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("%s (status %d): %s", apiErr.Error, resp.StatusCode, apiErr.Message)
			}
			return fmt.Errorf("%s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printAccounts(w io.Writer, accounts []*dto.AccountResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNICKNAME\tEMAIL")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", a.ID, truncate(a.Nickname, 24), truncate(a.Email, 40))
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
