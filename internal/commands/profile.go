package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/models"
)

var (
	profileDescription     string
	profileWeightTime      float64
	profileWeightDistance  float64
	profileWeightCost      float64
	profileTransferPenalty float64
	profileFormat          string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage optimization profiles",
	Long: `Create and list optimization profiles. A profile names a fixed
weighting of time, distance and cost; route queries can reference it
with --profile instead of repeating the criteria.`,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List optimization profiles",
	RunE:  runProfileList,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create an optimization profile",
	Long: `Create a named optimization profile.

Examples:
  pathium profile create fastest --weight-time 1.0
  pathium profile create balanced --weight-time 0.5 --weight-distance 0.5 --transfer-penalty 2.0`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileCreate,
}

func init() {
	profileCreateCmd.Flags().StringVar(&profileDescription, "description", "", "profile description")
	profileCreateCmd.Flags().Float64Var(&profileWeightTime, "weight-time", 1.0, "weight for travel time")
	profileCreateCmd.Flags().Float64Var(&profileWeightDistance, "weight-distance", 0, "weight for distance")
	profileCreateCmd.Flags().Float64Var(&profileWeightCost, "weight-cost", 0, "weight for cost")
	profileCreateCmd.Flags().Float64Var(&profileTransferPenalty, "transfer-penalty", 0, "penalty per transfer")

	profileListCmd.Flags().StringVar(&profileFormat, "format", "table", "output format (table, json)")

	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileCreateCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	profiles, err := a.gateway.Profiles(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list profiles: %w", err)
	}

	if profileFormat == "json" {
		return printJSON(profiles)
	}

	if len(profiles) == 0 {
		fmt.Println("No profiles defined")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDISTANCE\tCOST\tTRANSFER\tDESCRIPTION")
	for _, p := range profiles {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		fmt.Fprintf(w, "%d\t%s\t%g\t%g\t%g\t%g\t%s\n",
			p.ID, p.Name, p.WeightTime, p.WeightDistance, p.WeightCost, p.TransferPenalty, desc)
	}
	w.Flush()
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	req := &models.ProfileCreate{
		Name:            args[0],
		WeightTime:      profileWeightTime,
		WeightDistance:  profileWeightDistance,
		WeightCost:      profileWeightCost,
		TransferPenalty: profileTransferPenalty,
	}
	if profileDescription != "" {
		req.Description = &profileDescription
	}

	profile, err := a.gateway.CreateProfile(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	fmt.Printf("Created profile %q (id %d)\n", profile.Name, profile.ID)
	return nil
}
