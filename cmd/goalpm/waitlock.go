package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
	"github.com/pacwrap/alpm-go/pkg/alpm/lockwait"
	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

func newWaitLockCommand(a *app) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "wait-lock",
		Short: "Block until the database lock is released",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lockfile string
			err := a.withHandle(cmd, func(h *alpm.Alpm) error {
				lockfile = h.Lockfile()
				return nil
			})
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			err = lockwait.Wait(ctx, lockfile, lockwait.Options{Logger: logging.New(a.logger())})
			if errors.Is(err, context.DeadlineExceeded) {
				return &exitError{code: 3, err: fmt.Errorf("%s still held after %s", lockfile, timeout)}
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, successStyle.Render("unlocked"))
			return nil
		},
	}
	cmd.Flags().DurationVarP(&timeout, "timeout", "t", 0, "give up after this long (0 waits forever)")
	return cmd
}
