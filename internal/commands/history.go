package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/internal/gateway"
)

var (
	historyLimit      int
	historyAlgorithm  string
	historyOnlyFailed bool
	historyFormat     string
	statsFormat       string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded route queries",
	Long: `List past route queries, newest first.

Examples:
  pathium history
  pathium history --limit 10
  pathium history --algorithm dijkstra
  pathium history --only-failed --format json`,
	RunE: runHistory,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show query performance statistics",
	RunE:  runStats,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum entries (server default: 50)")
	historyCmd.Flags().StringVar(&historyAlgorithm, "algorithm", "", "filter by algorithm label")
	historyCmd.Flags().BoolVar(&historyOnlyFailed, "only-failed", false, "show failed queries only")
	historyCmd.Flags().StringVar(&historyFormat, "format", "table", "output format (table, json)")

	statsCmd.Flags().StringVar(&statsFormat, "format", "table", "output format (table, json)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	items, err := a.gateway.History(cmd.Context(), gateway.HistoryFilter{
		Limit:      historyLimit,
		Algorithm:  historyAlgorithm,
		OnlyFailed: historyOnlyFailed,
	})
	if err != nil {
		return fmt.Errorf("failed to fetch history: %w", err)
	}

	if historyFormat == "json" {
		return printJSON(items)
	}

	if len(items) == 0 {
		fmt.Println("No queries recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tROUTE\tALGORITHM\tCRITERIA\tWEIGHT\tOK")
	for _, item := range items {
		weight := "-"
		if item.TotalWeight != nil {
			weight = fmt.Sprintf("%g", *item.TotalWeight)
		}
		ok := "yes"
		if !item.Success {
			ok = "no"
		}
		fmt.Fprintf(w, "%d\t%s\t%d -> %d\t%s\t%s\t%s\t%s\n",
			item.ID,
			item.CreatedAt.Format("2006-01-02 15:04:05"),
			item.Source, item.Target,
			item.Algorithm,
			strings.Join(item.Criteria, ","),
			weight, ok)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d queries\n", len(items))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	stats, err := a.gateway.PerformanceStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	if statsFormat == "json" {
		return printJSON(stats)
	}

	fmt.Printf("Total queries:  %d\n", stats.TotalQueries)
	fmt.Printf("Successful:     %d\n", stats.SuccessfulQueries)
	fmt.Printf("Failed:         %d\n", stats.FailedQueries)
	if stats.AvgExecutionMS != nil {
		fmt.Printf("Avg execution:  %.2f ms\n", *stats.AvgExecutionMS)
	}
	if stats.MaxExecutionMS != nil {
		fmt.Printf("Max execution:  %.2f ms\n", *stats.MaxExecutionMS)
	}

	if len(stats.PerAlgorithm) == 0 {
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ALGORITHM\tQUERIES\tAVG MS\tMAX MS")
	for _, alg := range stats.PerAlgorithm {
		avg, max := "-", "-"
		if alg.AvgExecutionMS != nil {
			avg = fmt.Sprintf("%.2f", *alg.AvgExecutionMS)
		}
		if alg.MaxExecutionMS != nil {
			max = fmt.Sprintf("%.2f", *alg.MaxExecutionMS)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", alg.Algorithm, alg.QueryCount, avg, max)
	}
	w.Flush()
	return nil
}
