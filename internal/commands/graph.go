package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/internal/orchestrator"
	"evalgo.org/pathium/models"
)

var graphFormat string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect and grow the routing graph",
}

var graphInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show node and edge counts",
	RunE:  runGraphInfo,
}

var addEdgeCmd = &cobra.Command{
	Use:   "add-edge [from] [to] [weight]",
	Short: "Add a directed weighted edge",
	Long: `Add a single directed edge to the graph. Nodes are created implicitly.

Examples:
  pathium graph add-edge 0 1 5.0
  pathium graph add-edge 4 7 12.5`,
	Args: cobra.ExactArgs(3),
	RunE: runAddEdge,
}

var addNodeCmd = &cobra.Command{
	Use:   "add-node [id]",
	Short: "Add an isolated node",
	Args:  cobra.ExactArgs(1),
	RunE:  runAddNode,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed an empty graph with the sample network",
	Long: `Insert the sample edge set used for first-run bootstrap. The command
refuses when the graph already has nodes.`,
	RunE: runSeed,
}

func init() {
	graphInfoCmd.Flags().StringVar(&graphFormat, "format", "table", "output format (table, json)")

	graphCmd.AddCommand(graphInfoCmd)
	graphCmd.AddCommand(addEdgeCmd)
	graphCmd.AddCommand(addNodeCmd)
	graphCmd.AddCommand(seedCmd)
}

func runGraphInfo(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	info, err := a.gateway.GraphInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch graph info: %w", err)
	}

	if graphFormat == "json" {
		return printJSON(info)
	}

	fmt.Printf("Nodes: %d\n", info.NodeCount)
	fmt.Printf("Edges: %d\n", info.EdgeCount)
	return nil
}

func runAddEdge(cmd *cobra.Command, args []string) error {
	from, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid from node: %s", args[0])
	}
	to, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid to node: %s", args[1])
	}
	weight, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid weight: %s", args[2])
	}

	edge := models.EdgeCreate{FromNode: from, ToNode: to, Weight: weight}
	if err := models.Validate(&edge); err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	info, err := a.gateway.AddEdges(cmd.Context(), []models.EdgeCreate{edge})
	if err != nil {
		return fmt.Errorf("failed to add edge: %w", err)
	}

	fmt.Printf("✓ Added edge %d -> %d (weight %g)\n", from, to, weight)
	fmt.Printf("Graph now has %d nodes and %d edges\n", info.NodeCount, info.EdgeCount)
	return nil
}

func runAddNode(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid node id: %s", args[0])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	info, err := a.gateway.AddNodes(cmd.Context(), []models.NodeCreate{{ID: id}})
	if err != nil {
		return fmt.Errorf("failed to add node: %w", err)
	}

	fmt.Printf("✓ Added node %d\n", id)
	fmt.Printf("Graph now has %d nodes and %d edges\n", info.NodeCount, info.EdgeCount)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	info, err := a.gateway.GraphInfo(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch graph info: %w", err)
	}
	if info.NodeCount > 0 {
		return fmt.Errorf("graph already has %d nodes, refusing to seed", info.NodeCount)
	}

	info, err = a.gateway.AddEdges(cmd.Context(), orchestrator.SeedEdges())
	if err != nil {
		return fmt.Errorf("failed to seed graph: %w", err)
	}

	fmt.Printf("✓ Seeded graph with %d edges (%d nodes)\n", info.EdgeCount, info.NodeCount)
	return nil
}
