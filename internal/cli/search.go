package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/model"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search memories",
		Long:  "Rank memories by meaning (semantic), by keyword match (keyword), or by both (hybrid).",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().StringP("mode", "m", string(api.ModeHybrid), "Search mode: semantic, keyword or hybrid")
	cmd.Flags().IntP("limit", "l", api.DefaultSearchLimit, "Max results")
	cmd.Flags().StringP("type", "t", "", "Only return memories of this type")
	cmd.Flags().Float64("semantic-weight", 0, "Hybrid only: weight of the semantic score")
	cmd.Flags().Float64("keyword-weight", 0, "Hybrid only: weight of the keyword score")

	related := &cobra.Command{
		Use:   "related ID",
		Short: "Find memories similar to a memory",
		Args:  cobra.ExactArgs(1),
		Run:   runRelated,
	}
	related.Flags().IntP("limit", "l", 0, "Max results (default: server's)")

	RootCmd.AddCommand(cmd, related)
}

func runSearch(cmd *cobra.Command, args []string) {
	modeStr, _ := cmd.Flags().GetString("mode")
	limit, _ := cmd.Flags().GetInt("limit")
	typ, _ := cmd.Flags().GetString("type")
	sw, _ := cmd.Flags().GetFloat64("semantic-weight")
	kw, _ := cmd.Flags().GetFloat64("keyword-weight")
	query := strings.Join(args, " ")

	mode, err := api.ParseSearchMode(modeStr)
	if err != nil {
		exitErr("search", err)
	}

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	results, err := a.client.Search(cmd.Context(), mode, query, api.SearchOptions{
		Limit:          limit,
		ContentType:    model.MemoryType(typ),
		SemanticWeight: sw,
		KeywordWeight:  kw,
	})
	if err != nil {
		exitErr("search", err)
	}

	if jsonOutput() {
		if results == nil {
			results = []model.SearchResult{}
		}
		printJSON(results)
		return
	}
	writeResults(os.Stdout, results)
}

func runRelated(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")

	a := openApp(cmd)
	defer a.Close()
	a.requireAuth()

	results, err := a.client.Related(cmd.Context(), args[0], limit)
	if err != nil {
		exitErr("related", err)
	}
	if jsonOutput() {
		if results == nil {
			results = []model.SearchResult{}
		}
		printJSON(results)
		return
	}
	writeResults(os.Stdout, results)
}
