package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	token   string
	userID  string
)

func main() {
	rootCmd := newRootCmd()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ubank-cli",
		Short: "uBank CLI tool",
		Long:  `A command line interface for interacting with the uBank funds-movement API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the uBank API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token for authentication")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "User ID header for gateway-trusted deployments")

	rootCmd.AddCommand(newTransferCmd())
	rootCmd.AddCommand(newDepositCmd())
	rootCmd.AddCommand(newAccountsCmd())
	rootCmd.AddCommand(newLedgerCmd())

	return rootCmd
}

func newTransferCmd() *cobra.Command {
	var (
		accountID   string
		iban        string
		amount      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move funds from one of your accounts to an IBAN",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"account_id": accountID,
				"iban":       iban,
				"amount":     amount,
			}
			if description != "" {
				body["description"] = description
			}
			return doJSON(http.MethodPost, "/api/v1/transactions/", body)
		},
	}

	cmd.Flags().StringVar(&accountID, "from", "", "Source account ID")
	cmd.Flags().StringVar(&iban, "iban", "", "Destination IBAN")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to transfer")
	cmd.Flags().StringVar(&description, "description", "", "Payment description")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("iban")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func newDepositCmd() *cobra.Command {
	var (
		accountID string
		amount    string
	)

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Credit one of your accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"account_id": accountID,
				"amount":     amount,
			}
			return doJSON(http.MethodPost, "/api/v1/transactions/deposit", body)
		},
	}

	cmd.Flags().StringVar(&accountID, "account", "", "Account ID to credit")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount to deposit")
	cmd.MarkFlagRequired("account")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func newAccountsCmd() *cobra.Command {
	accountsCmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/accounts/", nil)
		},
	})

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/accounts/"+args[0], nil)
		},
	})

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "transactions <id>",
		Short: "List ledger entries for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/accounts/"+args[0]+"/transactions", nil)
		},
	})

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "block <id>",
		Short: "Block an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodPost, "/api/v1/accounts/"+args[0]+"/block", nil)
		},
	})

	accountsCmd.AddCommand(&cobra.Command{
		Use:   "unblock <id>",
		Short: "Unblock an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodPost, "/api/v1/accounts/"+args[0]+"/unblock", nil)
		},
	})

	return accountsCmd
}

func newLedgerCmd() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	ledgerCmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check that completed transfer entries sum to zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			return doJSON(http.MethodGet, "/api/v1/ledger/consistency", nil)
		},
	})

	return ledgerCmd
}

// doJSON performs an API request and pretty-prints the JSON response.
func doJSON(method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, raw)
	}

	printJSON(raw)
	return nil
}

// printJSON indents raw JSON, falling back to the raw bytes when the body is
// not valid JSON.
func printJSON(raw []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}
