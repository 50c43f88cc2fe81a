package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	var flags routeFlags
	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Check files against a routing without uploading",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := loadConsole(opts, &flags, args)
			if err != nil {
				return err
			}
			v := ctrl.Snapshot()
			fmt.Fprint(cmd.OutOrStdout(), renderQueue(v))
			if v.InvalidCount > 0 {
				return fmt.Errorf("%d of %d files failed validation", v.InvalidCount, len(v.Files))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
