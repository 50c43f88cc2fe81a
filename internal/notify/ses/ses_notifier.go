// Package ses emails batch summaries through Amazon SES.
package ses

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"

	"helix/internal/domain"
)

// EmailAPI is the subset of the SES client used here.
type EmailAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Notifier implements port.BatchNotifier.
type Notifier struct {
	client      EmailAPI
	fromAddress string
	fromName    string
	consoleURL  string
	logger      *zap.Logger
}

// NewNotifier creates an SES-backed batch notifier.
func NewNotifier(ctx context.Context, region, fromAddress, fromName, consoleURL string, logger *zap.Logger) (*Notifier, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	return NewNotifierWithClient(sesv2.NewFromConfig(cfg), fromAddress, fromName, consoleURL, logger), nil
}

// NewNotifierWithClient creates a notifier around an existing client (for testing).
func NewNotifierWithClient(client EmailAPI, fromAddress, fromName, consoleURL string, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		consoleURL:  strings.TrimRight(consoleURL, "/"),
		logger:      logger.Named("ses"),
	}
}

// NotifyBatch emails the batch summary to the submitting operator. Batches
// without an email address are skipped.
func (n *Notifier) NotifyBatch(ctx context.Context, batch *domain.BatchResult) error {
	if batch.Email == "" {
		n.logger.Debug("no recipient for batch summary", zap.String("batch_id", batch.ID))
		return nil
	}

	subject := fmt.Sprintf("Helix upload %s: %d succeeded, %d failed", batch.Routing, batch.Succeeded, batch.Failed)
	htmlBody := buildSummaryHTML(batch, n.batchURL(batch))
	textBody := buildSummaryText(batch, n.batchURL(batch))
	from := fmt.Sprintf("%s <%s>", n.fromName, n.fromAddress)

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{batch.Email},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
					Text: &types.Content{Data: aws.String(textBody)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func (n *Notifier) batchURL(batch *domain.BatchResult) string {
	return fmt.Sprintf("%s/upload/batches/%s", n.consoleURL, batch.ID)
}

func buildSummaryText(batch *domain.BatchResult, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Batch %s (%s, priority %s)\n", batch.ID, batch.Routing, batch.Priority)
	fmt.Fprintf(&b, "Succeeded: %d  Failed: %d  Skipped: %d\n\n", batch.Succeeded, batch.Failed, batch.Skipped)
	for _, o := range batch.Outcomes {
		switch o.Status {
		case domain.FileStatusCompleted:
			fmt.Fprintf(&b, "  OK    %s (job %s)\n", o.FileName, o.JobID)
		default:
			fmt.Fprintf(&b, "  %-5s %s: %s\n", strings.ToUpper(string(o.Status)), o.FileName, o.Error)
		}
	}
	fmt.Fprintf(&b, "\nDetails: %s\n\nHelix", link)
	return b.String()
}

func buildSummaryHTML(batch *domain.BatchResult, link string) string {
	var rows strings.Builder
	for _, o := range batch.Outcomes {
		detail := o.JobID
		color := "#16A34A"
		if o.Status != domain.FileStatusCompleted {
			detail = o.Error
			color = "#DC2626"
		}
		fmt.Fprintf(&rows, `    <tr><td>%s</td><td style="color: %s;">%s</td><td>%s</td></tr>
`, html.EscapeString(o.FileName), color, html.EscapeString(string(o.Status)), html.EscapeString(detail))
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Upload batch %s</h2>
  <p>Routing <strong>%s</strong>, priority <strong>%s</strong>.</p>
  <p>%d succeeded, %d failed, %d skipped.</p>
  <table style="width: 100%%; border-collapse: collapse;">
    <tr><th align="left">File</th><th align="left">Status</th><th align="left">Job / error</th></tr>
%s  </table>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Open batch</a>
  </p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">Helix - Financial File Routing</p>
</body>
</html>`, html.EscapeString(batch.ID), html.EscapeString(batch.Routing.String()), html.EscapeString(string(batch.Priority)),
		batch.Succeeded, batch.Failed, batch.Skipped, rows.String(), html.EscapeString(link))
}
