package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scout/internal/indexer"
	"github.com/Aman-CERP/scout/internal/output"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:     "index <name> <documents.yaml>...",
		Aliases: []string{"rebuild"},
		Short:   "Build a new generation of an index and swap it in",
		Long: `Marshall every document in the given YAML files through its mapping,
write the result into a fresh generation, and atomically point <name> at it.

Searches already running keep the previous generation until they finish.
Generations no longer referenced are pruned once nothing holds them.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, opts, args[0], args[1:], jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result as JSON")
	return cmd
}

// IndexOutput is the JSON output of the index command.
type IndexOutput struct {
	Name       string   `json:"name"`
	Ref        string   `json:"ref"`
	Documents  int      `json:"documents"`
	Pruned     []string `json:"pruned,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

func runIndex(cmd *cobra.Command, opts *rootOptions, name string, files []string, jsonOutput bool) error {
	var sets []indexer.DocumentSet
	for _, path := range files {
		loaded, err := loadDocumentFile(path)
		if err != nil {
			return err
		}
		sets = append(sets, loaded...)
	}

	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	result, err := a.indexer.Rebuild(cmd.Context(), name, sets...)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if jsonOutput {
		return out.JSON(IndexOutput{
			Name:       result.Name,
			Ref:        result.Ref,
			Documents:  result.Documents,
			Pruned:     result.Pruned,
			DurationMS: result.Duration.Milliseconds(),
		})
	}
	out.Successf("Indexed %d documents into %s", result.Documents, result.Name)
	out.Infof("generation: %s", result.Ref)
	if len(result.Pruned) > 0 {
		out.Infof("pruned: %d old generations", len(result.Pruned))
	}
	return nil
}

func loadDocumentFile(path string) ([]indexer.DocumentSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open documents: %w", err)
	}
	defer f.Close()
	sets, err := indexer.LoadDocuments(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sets, nil
}
