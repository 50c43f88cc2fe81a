package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"helix/internal/routing"
)

func newRoutingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routing",
		Short: "List departments, processes and file types",
		RunE: func(cmd *cobra.Command, args []string) error {
			tax := routing.Default()
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, titleStyle.Render("Routing taxonomy"))
			for _, code := range tax.Departments() {
				d, _ := tax.Department(code)
				fmt.Fprintf(out, "%s %s\n", headerStyle.Render(d.Code), mutedStyle.Render(d.Name))
				for _, p := range d.Processes {
					fmt.Fprintf(out, "  %-16s %s\n", p, strings.Join(tax.FileTypes(p), ", "))
				}
			}

			fmt.Fprintln(out)
			rows := make([][]string, 0)
			for _, ft := range tax.AllFileTypes() {
				rows = append(rows, []string{ft.Icon + " " + ft.Code, strings.Join(ft.Extensions, " "), ft.Description})
			}
			fmt.Fprintln(out, table([]string{"FILE TYPE", "EXTENSIONS", "DESCRIPTION"}, rows))
			return nil
		},
	}
}
