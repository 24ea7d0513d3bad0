package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flemzord/gatehouse/internal/router"
)

// TaskRunner is the subset of router.Router needed by scheduled jobs.
// Defined here to avoid a hard dependency on the full router surface.
type TaskRunner interface {
	Run(ctx context.Context, task string) (router.RunReport, error)
}

// RoutedTaskJob runs a configured free-text task through the router on
// each tick. The task goes through the same classification, permission,
// and audit path as an interactive request.
type RoutedTaskJob struct {
	JobName      string
	ScheduleExpr string
	Task         string
	Router       TaskRunner
	Logger       *slog.Logger
}

var _ Job = (*RoutedTaskJob)(nil)

// Name implements Job.
func (j *RoutedTaskJob) Name() string {
	return "routed_task:" + j.JobName
}

// Schedule implements Job.
func (j *RoutedTaskJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "0 * * * *"
}

// Run routes the configured task.
func (j *RoutedTaskJob) Run(ctx context.Context) error {
	report, err := j.Router.Run(ctx, j.Task)
	if err != nil {
		return fmt.Errorf("routed task %q: %w", j.JobName, err)
	}
	if j.Logger != nil {
		j.Logger.Info("cron: scheduled task completed",
			"job", j.JobName,
			"type", report.Type,
			"agents", len(report.Results),
			"duration", report.Duration,
		)
	}
	return nil
}
