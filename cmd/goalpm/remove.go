package main

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func newRemoveCommand(a *app) *cobra.Command {
	var (
		cascade bool
		recurse bool
		noLock  bool
		dbOnly  bool
	)
	cmd := &cobra.Command{
		Use:   "remove <package>...",
		Short: "Queue installed packages for removal and print the targets",
		Long: `Open a removal transaction, queue the named installed packages and print
the resulting targets. The transaction is released without being committed,
so nothing on disk changes; the database lock is held meanwhile unless
--nolock is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var flags alpm.TransFlag
			if cascade {
				flags |= alpm.TransCascade
			}
			if recurse {
				flags |= alpm.TransRecurse
			}
			if noLock {
				flags |= alpm.TransNoLock
			}
			if dbOnly {
				flags |= alpm.TransDBOnly
			}
			return a.withHandle(cmd, func(h *alpm.Alpm) (err error) {
				if err := h.TransInit(flags); err != nil {
					if errors.Is(err, alpm.ErrHandleLock) {
						return &exitError{code: 3, err: fmt.Errorf("%w (see goalpm wait-lock)", err)}
					}
					return err
				}
				defer func() { err = errors.Join(err, h.TransRelease()) }()

				local := h.LocalDB()
				for _, name := range args {
					p, ok, err := local.Pkg(name)
					if err != nil {
						return err
					}
					if !ok {
						return &exitError{code: 2, err: fmt.Errorf("target not found: %s", name)}
					}
					if err := h.TransRemovePkg(p); err != nil {
						if errors.Is(err, alpm.ErrTransDupTarget) {
							continue
						}
						return err
					}
				}

				var total int64
				targets := h.TransRemove()
				fmt.Fprintf(a.stdout, "%s (%d)\n", titleStyle.Render("Packages"), targets.Len())
				for p := range targets.All() {
					total += p.ISize()
					fmt.Fprintf(a.stdout, "  %s-%s\n", p.Name(), p.Version())
				}
				fmt.Fprintf(a.stdout, "\n%s %s\n", titleStyle.Render("Total Removed Size:"), humanize.IBytes(uint64(max(total, 0))))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "remove packages and all packages that depend on them")
	cmd.Flags().BoolVarP(&recurse, "recursive", "s", false, "remove unneeded dependencies")
	cmd.Flags().BoolVar(&noLock, "nolock", false, "do not take the database lock")
	cmd.Flags().BoolVar(&dbOnly, "dbonly", false, "only modify database entries")
	return cmd
}
