package cmd

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/scout/internal/output"
)

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var (
		history    string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index bindings and generations",
		Long: `Show which generation every index is bound to, the generations on disk,
and with --history the recent swaps of one index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts, history, limit, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&history, "history", "", "Show the swap history of this index")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of history entries")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// StatusOutput is the JSON output of the status command.
type StatusOutput struct {
	Root        string          `json:"root"`
	Catalog     string          `json:"catalog"`
	Aliases     []string        `json:"aliases"`
	Bindings    []BindingOutput `json:"bindings"`
	Generations []string        `json:"generations"`
	Unbound     []string        `json:"unbound,omitempty"`
	History     []SwapOutput    `json:"history,omitempty"`
}

// BindingOutput is one index binding.
type BindingOutput struct {
	Name      string    `json:"name"`
	Ref       string    `json:"ref"`
	Documents uint64    `json:"documents"`
	BoundAt   time.Time `json:"bound_at"`
}

// SwapOutput is one recorded swap.
type SwapOutput struct {
	Ref       string    `json:"ref"`
	Previous  string    `json:"previous,omitempty"`
	SwappedAt time.Time `json:"swapped_at"`
}

func runStatus(cmd *cobra.Command, opts *rootOptions, history string, limit int, jsonOutput bool) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	bindings, err := a.catalog.Bindings()
	if err != nil {
		return err
	}
	gens, err := a.store.Generations()
	if err != nil {
		return err
	}

	res := StatusOutput{
		Root:        a.cfg.Index.Root,
		Catalog:     a.cfg.Index.Catalog,
		Aliases:     a.indexer.Aliases(),
		Generations: gens,
	}
	bound := make(map[string]bool, len(bindings))
	for _, b := range bindings {
		bound[b.Ref] = true
		out := BindingOutput{Name: b.Name, Ref: b.Ref, BoundAt: b.BoundAt}
		if h, err := a.manager.Acquire(cmd.Context(), b.Name); err == nil {
			out.Documents, _ = h.Reader().DocCount()
			a.manager.Release(h)
		} else {
			a.logger.Warn("status_open_failed",
				slog.String("index", b.Name),
				slog.String("error", err.Error()))
		}
		res.Bindings = append(res.Bindings, out)
	}
	for _, g := range gens {
		if !bound[g] {
			res.Unbound = append(res.Unbound, g)
		}
	}
	if history != "" {
		swaps, err := a.catalog.History(history, limit)
		if err != nil {
			return err
		}
		for _, s := range swaps {
			res.History = append(res.History, SwapOutput{Ref: s.Ref, Previous: s.Previous, SwappedAt: s.SwappedAt})
		}
	}

	w := output.New(cmd.OutOrStdout())
	if jsonOutput {
		return w.JSON(res)
	}

	w.Infof("root:    %s", res.Root)
	w.Infof("catalog: %s", res.Catalog)
	w.Infof("aliases: %v", res.Aliases)
	w.Newline()
	if len(res.Bindings) == 0 {
		w.Warning("No indexes built yet")
	} else {
		rows := make([][]string, 0, len(res.Bindings))
		for _, b := range res.Bindings {
			rows = append(rows, []string{b.Name, b.Ref, strconv.FormatUint(b.Documents, 10), b.BoundAt.Format(time.RFC3339)})
		}
		w.Table([]string{"INDEX", "GENERATION", "DOCUMENTS", "BOUND"}, rows)
	}
	if len(res.Unbound) > 0 {
		w.Newline()
		w.Warningf("%d unbound generations (run 'scout prune')", len(res.Unbound))
	}
	if len(res.History) > 0 {
		w.Newline()
		rows := make([][]string, 0, len(res.History))
		for _, s := range res.History {
			rows = append(rows, []string{s.SwappedAt.Format(time.RFC3339), s.Previous, s.Ref})
		}
		w.Table([]string{"SWAPPED", "FROM", "TO"}, rows)
	}
	return nil
}
