package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scout/internal/indexer"
	"github.com/Aman-CERP/scout/internal/output"
)

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		field      string
		alias      string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <name> [query...]",
		Short: "Search the live generation of an index",
		Long: `Search an index. Without a query every document matches.

Examples:
  scout search articles concurrency
  scout search articles --field title "hot swap"
  scout search articles --alias article --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := indexer.Query{
				Text:  strings.Join(args[1:], " "),
				Field: field,
				Alias: alias,
				Size:  limit,
			}
			return runSearch(cmd, opts, args[0], q, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&field, "field", "f", "", "Restrict matching to one property path")
	cmd.Flags().StringVarP(&alias, "alias", "a", "", "Restrict results to one mapping alias")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

// SearchHit is one result in the JSON output of the search command.
type SearchHit struct {
	ID     any                 `json:"id"`
	Alias  string              `json:"alias"`
	Score  float64             `json:"score"`
	Fields map[string][]string `json:"fields"`
}

// SearchOutput is the JSON output of the search command.
type SearchOutput struct {
	Index string      `json:"index"`
	Query string      `json:"query"`
	Total uint64      `json:"total"`
	Hits  []SearchHit `json:"hits"`
}

func runSearch(cmd *cobra.Command, opts *rootOptions, name string, q indexer.Query, jsonOutput bool) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	hits, total, err := a.indexer.Search(cmd.Context(), name, q)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		res := SearchOutput{Index: name, Query: q.Text, Total: total, Hits: make([]SearchHit, 0, len(hits))}
		for _, h := range hits {
			fields := make(map[string][]string)
			for _, p := range h.Resource.Properties() {
				fields[p.Name] = append(fields[p.Name], p.Value)
			}
			res.Hits = append(res.Hits, SearchHit{ID: h.ID, Alias: h.Alias, Score: h.Score, Fields: fields})
		}
		return out.JSON(res)
	}

	if len(hits) == 0 {
		out.Warning("No results")
		return nil
	}
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		rows = append(rows, []string{fmt.Sprint(h.ID), h.Alias, fmt.Sprintf("%.3f", h.Score)})
	}
	out.Table([]string{"ID", "ALIAS", "SCORE"}, rows)
	out.Newline()
	out.Infof("%d of %d results", len(hits), total)
	return nil
}
