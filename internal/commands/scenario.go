package commands

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/models"
)

var (
	scenarioDescription string
	scenarioFormat      string
	modDisable          bool
	modMultiplier       float64
	modNewWeight        float64
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Model what-if scenarios",
	Long: `Create and inspect scenarios. A scenario overrides edge weights or
disables edges without touching the base graph; route queries can then run
against the modified view with --scenario.`,
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenarios",
	RunE:  runScenarioList,
}

var scenarioCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a scenario",
	Long: `Create a named scenario.

Examples:
  pathium scenario create roadworks
  pathium scenario create rush-hour --description "Doubled inner-city weights"`,
	Args: cobra.ExactArgs(1),
	RunE: runScenarioCreate,
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a scenario and its modifications",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioShow,
}

var scenarioModifyCmd = &cobra.Command{
	Use:   "modify [id] [from] [to]",
	Short: "Add an edge modification to a scenario",
	Long: `Override one edge within a scenario.

Examples:
  pathium scenario modify 1 0 1 --disable
  pathium scenario modify 1 0 1 --multiplier 2.5
  pathium scenario modify 1 0 1 --weight 9.0`,
	Args: cobra.ExactArgs(3),
	RunE: runScenarioModify,
}

func init() {
	scenarioCreateCmd.Flags().StringVar(&scenarioDescription, "description", "", "scenario description")

	scenarioModifyCmd.Flags().BoolVar(&modDisable, "disable", false, "disable the edge")
	scenarioModifyCmd.Flags().Float64Var(&modMultiplier, "multiplier", 1.0, "weight multiplier")
	scenarioModifyCmd.Flags().Float64Var(&modNewWeight, "weight", 0, "replacement weight")

	scenarioListCmd.Flags().StringVar(&scenarioFormat, "format", "table", "output format (table, json)")
	scenarioShowCmd.Flags().StringVar(&scenarioFormat, "format", "table", "output format (table, json)")

	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioCreateCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
	scenarioCmd.AddCommand(scenarioModifyCmd)
}

func runScenarioList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	scenarios, err := a.gateway.Scenarios(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list scenarios: %w", err)
	}

	if scenarioFormat == "json" {
		return printJSON(scenarios)
	}

	if len(scenarios) == 0 {
		fmt.Println("No scenarios")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tACTIVE\tDESCRIPTION")
	for _, s := range scenarios {
		desc := ""
		if s.Description != nil {
			desc = *s.Description
		}
		fmt.Fprintf(w, "%d\t%s\t%t\t%s\n", s.ID, s.Name, s.IsActive, desc)
	}
	w.Flush()
	return nil
}

func runScenarioCreate(cmd *cobra.Command, args []string) error {
	req := &models.ScenarioCreate{Name: args[0]}
	if scenarioDescription != "" {
		req.Description = &scenarioDescription
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	scenario, err := a.gateway.CreateScenario(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}

	fmt.Printf("✓ Created scenario %d (%s)\n", scenario.ID, scenario.Name)
	return nil
}

func runScenarioShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid scenario id: %s", args[0])
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	detail, err := a.gateway.Scenario(cmd.Context(), id)
	if err != nil {
		return fmt.Errorf("failed to fetch scenario: %w", err)
	}

	if scenarioFormat == "json" {
		return printJSON(detail)
	}

	fmt.Printf("Scenario: %s (id %d)\n", detail.Name, detail.ID)
	if detail.Description != nil {
		fmt.Printf("About:    %s\n", *detail.Description)
	}

	if len(detail.Modifications) == 0 {
		fmt.Println("\nNo modifications")
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EDGE\tDISABLED\tMULTIPLIER\tNEW WEIGHT")
	for _, mod := range detail.Modifications {
		newWeight := "-"
		if mod.NewWeight != nil {
			newWeight = fmt.Sprintf("%g", *mod.NewWeight)
		}
		fmt.Fprintf(w, "%d -> %d\t%t\t%g\t%s\n",
			mod.FromNode, mod.ToNode, mod.Disable, mod.WeightMultiplier, newWeight)
	}
	w.Flush()
	return nil
}

func runScenarioModify(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid scenario id: %s", args[0])
	}
	from, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid from node: %s", args[1])
	}
	to, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid to node: %s", args[2])
	}

	mod := models.ScenarioModification{
		FromNode:         from,
		ToNode:           to,
		Disable:          modDisable,
		WeightMultiplier: modMultiplier,
	}
	if cmd.Flag("weight").Changed {
		mod.NewWeight = &modNewWeight
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	detail, err := a.gateway.AddModification(cmd.Context(), id, mod)
	if err != nil {
		return fmt.Errorf("failed to modify scenario: %w", err)
	}

	fmt.Printf("✓ Scenario %d now has %d modifications\n", detail.ID, len(detail.Modifications))
	return nil
}
