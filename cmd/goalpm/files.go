package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func newFilesCommand(a *app) *cobra.Command {
	var long bool
	cmd := &cobra.Command{
		Use:   "files <package> [path]",
		Short: "List the files of an installed package, or check that it owns path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHandle(cmd, func(h *alpm.Alpm) error {
				p, ok, err := h.LocalDB().Pkg(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return &exitError{code: 2, err: fmt.Errorf("package %q is not installed", args[0])}
				}
				files := p.Files()

				if len(args) == 2 {
					// File list entries are relative to the root.
					rel := strings.TrimPrefix(args[1], h.Root())
					rel = strings.TrimPrefix(rel, "/")
					f, found, err := files.Contains(rel)
					if err != nil {
						return err
					}
					if !found {
						return &exitError{code: 1, err: fmt.Errorf("%s is not owned by %s", args[1], p.Name())}
					}
					fmt.Fprintf(a.stdout, "%s is owned by %s %s\n", h.Root()+f.Name, p.Name(), p.Version())
					return nil
				}

				for f := range files.All() {
					if long {
						fmt.Fprintf(a.stdout, "%s %8s %s%s\n", f.FileMode(), humanize.IBytes(uint64(max(f.Size, 0))), h.Root(), f.Name)
						continue
					}
					fmt.Fprintf(a.stdout, "%s %s%s\n", p.Name(), h.Root(), f.Name)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show mode and size")
	return cmd
}
