package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/models"
)

var (
	routeCriteria  []string
	routeAlgorithm string
	routeProfile   string
	routeScenario  int
	routeFormat    string
)

var routeCmd = &cobra.Command{
	Use:   "route [source] [target]",
	Short: "Compute a shortest path",
	Long: `Compute the shortest path between two nodes.

Examples:
  pathium route 0 3
  pathium route 0 3 --algorithm a_star
  pathium route 0 3 --criteria time,cost
  pathium route 0 3 --scenario 2
  pathium route 0 3 --format json`,
	Args: cobra.ExactArgs(2),
	RunE: runRoute,
}

func init() {
	routeCmd.Flags().StringSliceVar(&routeCriteria, "criteria", []string{models.CriterionTime}, "optimization criteria (time, distance, cost, transfers)")
	routeCmd.Flags().StringVar(&routeAlgorithm, "algorithm", models.AlgorithmDijkstra, "routing algorithm (dijkstra, a_star)")
	routeCmd.Flags().StringVar(&routeProfile, "profile", "", "routing profile")
	routeCmd.Flags().IntVar(&routeScenario, "scenario", 0, "scenario id to route against")
	routeCmd.Flags().StringVar(&routeFormat, "format", "table", "output format (table, json)")
}

func runRoute(cmd *cobra.Command, args []string) error {
	source, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid source node: %s", args[0])
	}
	target, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid target node: %s", args[1])
	}

	req := &models.RouteRequest{
		Source:    source,
		Target:    target,
		Criteria:  routeCriteria,
		Algorithm: routeAlgorithm,
	}
	if routeProfile != "" {
		req.Profile = &routeProfile
	}
	if cmd.Flag("scenario").Changed {
		req.ScenarioID = &routeScenario
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.bootstrap(cmd.Context()); err != nil {
		return err
	}

	resp, err := a.orch.SubmitRoute(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("route query failed: %w", err)
	}

	if routeFormat == "json" {
		return printJSON(resp)
	}

	printRoute(resp)
	return nil
}

func printRoute(resp *models.RouteResponse) {
	path := make([]string, len(resp.Nodes))
	for i, n := range resp.Nodes {
		path[i] = strconv.Itoa(n)
	}

	fmt.Printf("Path:      %s\n", strings.Join(path, " -> "))
	fmt.Printf("Weight:    %g\n", resp.TotalWeight)
	fmt.Printf("Algorithm: %s\n", resp.Algorithm)
	fmt.Printf("Took:      %.2f ms\n", resp.ExecutionTimeMS)

	if len(resp.Segments) == 0 {
		return
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FROM\tTO\tWEIGHT")
	for _, seg := range resp.Segments {
		fmt.Fprintf(w, "%d\t%d\t%g\n", seg.FromNode, seg.ToNode, seg.Weight)
	}
	w.Flush()
}
