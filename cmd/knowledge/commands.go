package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/answerly/knowledge/internal/config"
	"github.com/answerly/knowledge/internal/ingest"
)

// --- create ---

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a tenant and start crawling its website",
	Long: `Create a tenant and start crawling its website.

Example:
  knowledge create --name "Acme Plumbing" --url https://acmeplumbing.example \
    --email info@acmeplumbing.example --phone "+1 555 0100"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		rootURL, _ := cmd.Flags().GetString("url")
		description, _ := cmd.Flags().GetString("description")
		email, _ := cmd.Flags().GetString("email")
		phone, _ := cmd.Flags().GetString("phone")
		address, _ := cmd.Flags().GetString("address")
		maxPages, _ := cmd.Flags().GetInt("max-pages")

		if name == "" {
			return fmt.Errorf("--name is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{
			"business_name": name,
			"description":   description,
			"email":         email,
			"phone":         phone,
			"address":       address,
			"website":       rootURL,
			"root_url":      rootURL,
		}
		if maxPages > 0 {
			req["max_pages"] = maxPages
		}

		resp, err := client.post(cmd.Context(), "/tenants", req)
		if err != nil {
			return err
		}

		var out struct {
			TenantID    string `json:"tenant_id"`
			CrawlQueued bool   `json:"crawl_queued"`
		}
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}

		printSuccess("Created tenant %s", out.TenantID)
		if out.CrawlQueued {
			printStep("Crawl queued, the knowledge base will fill in shortly")
		}
		return nil
	},
}

// --- train ---

var trainCmd = &cobra.Command{
	Use:   "train <tenant-id>",
	Short: "Add manual Q&A pairs to a tenant's knowledge base",
	Long: `Add manual Q&A pairs to a tenant's knowledge base.

Pairs are passed as repeated --qa flags with question and answer separated
by "::":

  knowledge train <tenant-id> --qa "What are your hours?::We are open 9-5."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qaFlags, _ := cmd.Flags().GetStringArray("qa")
		if len(qaFlags) == 0 {
			return fmt.Errorf("at least one --qa is required")
		}

		var pairs []ingest.QAPair
		for _, qa := range qaFlags {
			question, answer, ok := strings.Cut(qa, "::")
			if !ok {
				return fmt.Errorf("invalid --qa %q: expected question::answer", qa)
			}
			pairs = append(pairs, ingest.QAPair{
				Question: strings.TrimSpace(question),
				Answer:   strings.TrimSpace(answer),
			})
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/tenants/"+args[0]+"/train", map[string]any{"pairs": pairs})
		if err != nil {
			return err
		}

		var out struct {
			Trained int `json:"trained"`
		}
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}

		printSuccess("Trained %d pair(s)", out.Trained)
		return nil
	},
}

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <tenant-id> <message>",
	Short: "Send a chat message to a tenant's bot",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/tenants/"+args[0]+"/chat", map[string]any{"message": args[1]})
		if err != nil {
			return err
		}

		var out struct {
			Answer        string `json:"answer"`
			LimitExceeded bool   `json:"limit_exceeded"`
		}
		if err := decodeJSON(resp, &out); err != nil {
			return err
		}

		if out.LimitExceeded {
			printWarning("message limit exceeded")
		}
		fmt.Fprintln(os.Stdout, out.Answer)
		return nil
	},
}

// --- status ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			printError("config error: %v", err)
			return nil
		}

		serverURL := fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port)
		client := &http.Client{Timeout: 2 * time.Second}

		resp, err := client.Get(serverURL + "/health")
		if err != nil {
			printStatus("Server", "stopped")
			return nil
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on %s", serverURL)
		} else {
			printStatus("Server", "unhealthy (status %d)", resp.StatusCode)
		}
		printStatus("Data dir", "%s", cfg.Storage.DataDir)
		return nil
	},
}

func init() {
	createCmd.Flags().String("name", "", "business name (required)")
	createCmd.Flags().String("url", "", "website root URL to crawl")
	createCmd.Flags().String("description", "", "business description")
	createCmd.Flags().String("email", "", "contact email")
	createCmd.Flags().String("phone", "", "contact phone")
	createCmd.Flags().String("address", "", "business address")
	createCmd.Flags().Int("max-pages", 0, "crawl page bound (0 = server default)")

	trainCmd.Flags().StringArray("qa", nil, "question::answer pair (repeatable)")
}
