package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/pathium/models"
)

var (
	batchFile         string
	batchFormat       string
	batchWait         bool
	batchPollInterval time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run many route queries at once",
	Long: `Run route queries in bulk, either synchronously or as an asynchronous
server-side job.

Queries are given as source:target pairs on the command line or as a JSON
array of route requests with --file.`,
}

var batchRunCmd = &cobra.Command{
	Use:   "run [source:target ...]",
	Short: "Run a batch synchronously",
	Long: `Run a batch of route queries and wait for all results.

Examples:
  pathium batch run 0:3 1:3 0:2
  pathium batch run --file queries.json`,
	RunE: runBatch,
}

var batchSubmitCmd = &cobra.Command{
	Use:   "submit [source:target ...]",
	Short: "Submit a batch as an asynchronous job",
	Long: `Submit a batch job to the server queue and return the job id
immediately. Use --wait to poll until the job finishes.

Examples:
  pathium batch submit 0:3 1:3
  pathium batch submit 0:3 1:3 --wait`,
	RunE: runBatchSubmit,
}

var batchStatusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Show the status of an asynchronous job",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchStatus,
}

var batchWaitCmd = &cobra.Command{
	Use:   "wait [job-id]",
	Short: "Wait for an asynchronous job to finish",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatchWait,
}

var batchMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show the server job queue metrics",
	RunE:  runBatchMetrics,
}

func init() {
	batchRunCmd.Flags().StringVar(&batchFile, "file", "", "JSON file with route requests")
	batchRunCmd.Flags().StringVar(&batchFormat, "format", "table", "output format (table, json)")

	batchSubmitCmd.Flags().StringVar(&batchFile, "file", "", "JSON file with route requests")
	batchSubmitCmd.Flags().BoolVar(&batchWait, "wait", false, "poll until the job finishes")
	batchSubmitCmd.Flags().DurationVar(&batchPollInterval, "poll-interval", 500*time.Millisecond, "delay between status polls")
	batchSubmitCmd.Flags().StringVar(&batchFormat, "format", "table", "output format (table, json)")

	batchWaitCmd.Flags().DurationVar(&batchPollInterval, "poll-interval", 500*time.Millisecond, "delay between status polls")
	batchWaitCmd.Flags().StringVar(&batchFormat, "format", "table", "output format (table, json)")

	batchStatusCmd.Flags().StringVar(&batchFormat, "format", "table", "output format (table, json)")
	batchMetricsCmd.Flags().StringVar(&batchFormat, "format", "table", "output format (table, json)")

	batchCmd.AddCommand(batchRunCmd)
	batchCmd.AddCommand(batchSubmitCmd)
	batchCmd.AddCommand(batchStatusCmd)
	batchCmd.AddCommand(batchWaitCmd)
	batchCmd.AddCommand(batchMetricsCmd)
}

// parseQueries reads batch queries from --file when given, otherwise from
// source:target pair arguments.
func parseQueries(args []string) ([]models.RouteRequest, error) {
	if batchFile != "" {
		data, err := os.ReadFile(batchFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", batchFile, err)
		}
		var queries []models.RouteRequest
		if err := json.Unmarshal(data, &queries); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", batchFile, err)
		}
		for i := range queries {
			if len(queries[i].Criteria) == 0 {
				queries[i].Criteria = []string{models.CriterionTime}
			}
		}
		return queries, nil
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("no queries given (use source:target arguments or --file)")
	}

	queries := make([]models.RouteRequest, 0, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid query %q (expected source:target)", arg)
		}
		source, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid source in %q", arg)
		}
		target, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid target in %q", arg)
		}
		queries = append(queries, models.RouteRequest{
			Source:   source,
			Target:   target,
			Criteria: []string{models.CriterionTime},
		})
	}
	return queries, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	queries, err := parseQueries(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.bootstrap(cmd.Context()); err != nil {
		return err
	}

	items, err := a.orch.SubmitBatch(cmd.Context(), queries)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	if batchFormat == "json" {
		return printJSON(items)
	}

	printBatchItems(items)
	return nil
}

func runBatchSubmit(cmd *cobra.Command, args []string) error {
	queries, err := parseQueries(args)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	if err := a.bootstrap(cmd.Context()); err != nil {
		return err
	}

	status, err := a.orch.SubmitAsyncBatch(cmd.Context(), queries)
	if err != nil {
		return fmt.Errorf("failed to submit job: %w", err)
	}

	if !batchWait {
		fmt.Printf("✓ Submitted job %s (%d queries)\n", status.ID, status.TotalQueries)
		return nil
	}

	return waitForJob(cmd.Context(), a, status.ID)
}

func runBatchStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	status, err := a.gateway.AsyncJob(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to fetch job: %w", err)
	}

	if batchFormat == "json" {
		return printJSON(status)
	}

	printJobStatus(status)
	return nil
}

func runBatchWait(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	return waitForJob(cmd.Context(), a, args[0])
}

func runBatchMetrics(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}

	metrics, err := a.gateway.AsyncMetrics(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}

	if batchFormat == "json" {
		return printJSON(metrics)
	}

	fmt.Printf("Queued:   %d\n", metrics.QueueLength)
	fmt.Printf("Running:  %d\n", metrics.RunningJobs)
	fmt.Printf("Finished: %d\n", metrics.FinishedJobs)
	fmt.Printf("Failed:   %d\n", metrics.FailedJobs)
	if metrics.AvgJobTimeMS != nil {
		fmt.Printf("Avg time: %.2f ms\n", *metrics.AvgJobTimeMS)
	}
	return nil
}

func waitForJob(ctx context.Context, a *app, id string) error {
	status, err := a.orch.WaitJob(ctx, id, func(ctx context.Context, status *models.AsyncJobStatus) error {
		fmt.Fprintf(os.Stderr, "Job %s: %s (%d/%d)\n",
			status.ID, status.Status, status.CompletedQueries, status.TotalQueries)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(batchPollInterval):
			return nil
		}
	})
	if err != nil {
		return fmt.Errorf("failed to wait for job: %w", err)
	}

	if status.Status == models.JobFailed {
		if status.ErrorMessage != nil {
			return fmt.Errorf("job %s failed: %s", status.ID, *status.ErrorMessage)
		}
		return fmt.Errorf("job %s failed", status.ID)
	}

	if batchFormat == "json" {
		return printJSON(status)
	}

	printJobStatus(status)
	if len(status.Result) > 0 {
		fmt.Println()
		printBatchItems(status.Result)
	}
	return nil
}

func printJobStatus(status *models.AsyncJobStatus) {
	fmt.Printf("Job:       %s\n", status.ID)
	fmt.Printf("Status:    %s\n", status.Status)
	fmt.Printf("Progress:  %d/%d\n", status.CompletedQueries, status.TotalQueries)
	if status.ExecutionTimeMS != nil {
		fmt.Printf("Took:      %.2f ms\n", *status.ExecutionTimeMS)
	}
	if status.ErrorMessage != nil {
		fmt.Printf("Error:     %s\n", *status.ErrorMessage)
	}
}

func printBatchItems(items []models.RouteBatchItem) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTARGET\tWEIGHT\tPATH")
	for _, item := range items {
		path := "-"
		if len(item.Response.Nodes) > 0 {
			parts := make([]string, len(item.Response.Nodes))
			for i, n := range item.Response.Nodes {
				parts[i] = strconv.Itoa(n)
			}
			path = strings.Join(parts, " -> ")
		}
		fmt.Fprintf(w, "%d\t%d\t%g\t%s\n",
			item.Request.Source, item.Request.Target, item.Response.TotalWeight, path)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d queries\n", len(items))
}
