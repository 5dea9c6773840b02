package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/bnema/retell/internal/domain"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [job-id]",
	Short: "List jobs or inspect one",
	Long: `List all jobs in the ledger or inspect a specific job by ID.

Examples:
  retell jobs            # List all jobs
  retell jobs abc123     # Show details and artifacts for job abc123`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJobs,
}

func runJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		job, artifacts, err := a.jobs.Get(args[0])
		if err != nil {
			return fmt.Errorf("get job: %w", err)
		}
		printJob(out, job, artifacts)
		return nil
	}

	jobs, err := a.jobs.List()
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	printJobs(out, jobs)
	return nil
}

func printJobs(w io.Writer, jobs []*domain.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found")
		return
	}

	fmt.Fprintf(w, "%-36s %-8s %-20s %-10s %s\n", "ID", "STATUS", "STATE", "STAGE", "CREATED")
	fmt.Fprintln(w, "------------------------------------------------------------------------------------------------")
	for _, job := range jobs {
		status := string(job.Status)
		if job.Degraded {
			status += "*"
		}
		fmt.Fprintf(w, "%-36s %-8s %-20s %-10s %s\n",
			job.ID, status, job.State, job.Stage, job.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	}
}

func printJob(w io.Writer, job *domain.Job, artifacts []domain.Artifact) {
	fmt.Fprintf(w, "Job: %s\n", job.ID)
	fmt.Fprintf(w, "  Status: %s\n", job.Status)
	fmt.Fprintf(w, "  State: %s\n", job.State)
	if job.Stage != "" {
		fmt.Fprintf(w, "  Stage: %s\n", job.Stage)
	}
	if job.Degraded {
		fmt.Fprintln(w, "  Degraded: yes (original audio kept)")
	}
	fmt.Fprintf(w, "  Attempts: %d\n", job.Attempts)
	fmt.Fprintf(w, "  Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.StartedAt.Valid {
		fmt.Fprintf(w, "  Started: %s\n", job.StartedAt.Time.Format(time.RFC3339))
	}
	if job.CompletedAt.Valid {
		fmt.Fprintf(w, "  Completed: %s (%s)\n", job.CompletedAt.Time.Format(time.RFC3339), job.Elapsed().Round(time.Millisecond))
	}
	if job.ErrorMessage != "" {
		fmt.Fprintf(w, "  Error: %s\n", job.ErrorMessage)
	}

	if len(artifacts) == 0 {
		return
	}
	fmt.Fprintln(w, "  Artifacts:")
	for _, art := range artifacts {
		fmt.Fprintf(w, "    %-22s %10d  %s\n", art.Kind, art.Size, art.File)
	}
}
