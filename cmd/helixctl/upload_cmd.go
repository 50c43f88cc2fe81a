package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"helix/internal/console"
	"helix/internal/domain"
)

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var (
		flags    routeFlags
		priority string
		notes    string
		token    string
	)
	cmd := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Validate files and upload the valid ones to the processor",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = opts.cfg.CLI.Token
			}
			ctrl, err := loadConsole(opts, &flags, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderQueue(ctrl.Snapshot()))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			batch, err := ctrl.Submit(ctx, console.SubmitInput{
				Priority: priority,
				Notes:    notes,
				Token:    token,
			})
			if err != nil {
				return err
			}
			fmt.Fprint(out, renderBatch(batch))
			if batch.Failed > 0 {
				return fmt.Errorf("%d of %d files failed to upload", batch.Failed, len(batch.Outcomes))
			}
			if batch.State == domain.BatchStateCancelled {
				return fmt.Errorf("upload cancelled; %d files not attempted", batch.Skipped)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&priority, "priority", string(domain.PriorityNormal), "Priority: low, normal, high, urgent, critical")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-text notes sent with every file")
	cmd.Flags().StringVar(&token, "token", "", "Operator bearer token (default $HELIX_TOKEN)")
	return cmd
}

func renderBatch(b *domain.BatchResult) string {
	rows := make([][]string, 0, len(b.Outcomes))
	for _, o := range b.Outcomes {
		var status, detail string
		switch o.Status {
		case domain.FileStatusCompleted:
			status = successStyle.Render("uploaded")
			detail = o.JobID
		case domain.FileStatusSkipped:
			status = warningStyle.Render("skipped")
		default:
			status = errorStyle.Render("failed")
			detail = o.Error
		}
		rows = append(rows, []string{o.FileName, status, detail, o.Duration.Round(time.Millisecond).String()})
	}

	var total int64
	for _, o := range b.Outcomes {
		if o.Status == domain.FileStatusCompleted {
			total += o.Size
		}
	}
	summary := fmt.Sprintf("batch %s: %d uploaded (%s), %d failed, %d skipped",
		b.ID, b.Succeeded, humanize.IBytes(uint64(total)), b.Failed, b.Skipped)

	style := successStyle
	if b.Failed > 0 || b.Skipped > 0 {
		style = errorStyle
	}
	return "\n" + table([]string{"FILE", "RESULT", "JOB / ERROR", "TIME"}, rows) + "\n" + style.Render(summary) + "\n"
}
