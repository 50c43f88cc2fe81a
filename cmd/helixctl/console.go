package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"helix/internal/backend"
	"helix/internal/console"
	"helix/internal/domain"
	"helix/internal/notify/noop"
	"helix/internal/payload"
	"helix/internal/routing"
)

// routeFlags selects the routing either as one code or level by level.
type routeFlags struct {
	route      string
	department string
	process    string
	fileType   string
}

func (f *routeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.route, "route", "", "Routing code DEPT-PROCESS-TYPE, e.g. FINANCE-PAYMENT-MT940")
	cmd.Flags().StringVar(&f.department, "department", "", "Department code")
	cmd.Flags().StringVar(&f.process, "process", "", "Process code")
	cmd.Flags().StringVar(&f.fileType, "file-type", "", "File type code")
	cmd.MarkFlagsMutuallyExclusive("route", "department")
}

func (f *routeFlags) code(tax *routing.Taxonomy) (domain.RoutingCode, error) {
	code := domain.RoutingCode{Department: f.department, Process: f.process, FileType: f.fileType}
	if f.route != "" {
		parsed, err := domain.ParseRoutingCode(f.route)
		if err != nil {
			return domain.RoutingCode{}, err
		}
		code = parsed
	}
	if code.Department == "" || code.Process == "" || code.FileType == "" {
		return domain.RoutingCode{}, fmt.Errorf("%w: use --route or --department, --process and --file-type", domain.ErrRoutingIncomplete)
	}
	code = domain.RoutingCode{
		Department: strings.ToUpper(code.Department),
		Process:    strings.ToUpper(code.Process),
		FileType:   strings.ToUpper(code.FileType),
	}
	if err := tax.Validate(code); err != nil {
		return domain.RoutingCode{}, err
	}
	return code, nil
}

// loadConsole builds an in-process console with the routing selected and
// every path queued through the same Add entry point the server uses.
func loadConsole(opts *rootOptions, flags *routeFlags, paths []string) (*console.Controller, error) {
	tax := routing.Default()
	code, err := flags.code(tax)
	if err != nil {
		return nil, err
	}

	notifier := noop.NewNotifier(opts.logger)
	ctrl := console.New("cli", tax, backend.NewClient(&opts.cfg.Backend, opts.logger), console.Options{
		MaxFileSize:               opts.cfg.Upload.MaxFileSize(),
		RevalidateOnRoutingChange: true,
		RequireCredential:         opts.cfg.Upload.RequireCredential,
		BatchNotifier:             notifier,
		ChangeNotifier:            notifier,
		Logger:                    opts.logger,
	})
	if err := ctrl.SetRouting(code); err != nil {
		return nil, err
	}

	for _, path := range paths {
		p, err := payload.OpenFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := ctrl.Add(p); err != nil {
			return nil, err
		}
	}
	return ctrl, nil
}

func renderQueue(v console.View) string {
	rows := make([][]string, 0, len(v.Files))
	for _, f := range v.Files {
		status := successStyle.Render(f.StatusText)
		if !f.Valid {
			status = errorStyle.Render(f.StatusText)
		}
		rows = append(rows, []string{f.Icon + " " + f.Name, f.SizeText, status})
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(v.RoutingLabel))
	if v.Supported != "" {
		b.WriteString("  " + mutedStyle.Render(v.Supported))
	}
	b.WriteString("\n")
	b.WriteString(table([]string{"FILE", "SIZE", "STATUS"}, rows))
	b.WriteString("\n")
	for _, f := range v.Files {
		for _, msg := range f.Errors {
			b.WriteString(indentStyle.Render(warningStyle.Render(f.Name + ": " + msg)))
			b.WriteString("\n")
		}
	}
	b.WriteString(fmt.Sprintf("%d valid, %d invalid\n", v.ValidCount, v.InvalidCount))
	return b.String()
}
