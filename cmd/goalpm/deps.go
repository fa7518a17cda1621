package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func newDepsCommand(a *app) *cobra.Command {
	var (
		syncOnly bool
		all      bool
	)
	cmd := &cobra.Command{
		Use:   "deps <package>",
		Short: "List the dependencies of a package and whether they are installed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHandle(cmd, func(h *alpm.Alpm) error {
				p, err := findPkg(h, args[0], syncOnly)
				if err != nil {
					return err
				}
				installed := installedIndex(h)

				sections := []struct {
					title string
					list  alpm.List[alpm.Dep]
					show  bool
				}{
					{"depends", p.Depends(), true},
					{"optdepends", p.OptDepends(), true},
					{"makedepends", p.MakeDepends(), all},
					{"checkdepends", p.CheckDepends(), all},
				}
				for _, s := range sections {
					if !s.show || s.list.IsEmpty() {
						continue
					}
					fmt.Fprintln(a.stdout, titleStyle.Render(s.title))
					for d := range s.list.All() {
						mark := mutedStyle.Render("[ ]")
						if installed.satisfies(d) {
							mark = successStyle.Render("[x]")
						}
						fmt.Fprintf(a.stdout, "  %s %s\n", mark, d)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&syncOnly, "sync", "s", false, "only search the sync databases")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include make and check dependencies")
	return cmd
}

type provider struct {
	version alpm.Ver
	ok      bool
}

// index maps every installed package name and provision to its versions.
type index map[string][]provider

func installedIndex(h *alpm.Alpm) index {
	idx := index{}
	for p := range h.LocalDB().Pkgs().All() {
		idx[p.Name()] = append(idx[p.Name()], provider{version: p.Version(), ok: true})
		for prov := range p.Provides().All() {
			v, ok := prov.Version()
			idx[prov.Name()] = append(idx[prov.Name()], provider{version: v, ok: ok})
		}
	}
	return idx
}

func (idx index) satisfies(d alpm.Dep) bool {
	mod, err := d.Mod()
	if err != nil {
		return false
	}
	want, _ := d.Version()
	for _, p := range idx[d.Name()] {
		if mod == alpm.DepModAny {
			return true
		}
		if !p.ok {
			continue
		}
		n, err := alpm.Vercmp(string(p.version), string(want))
		if err != nil {
			continue
		}
		switch mod {
		case alpm.DepModEq:
			if n == 0 {
				return true
			}
		case alpm.DepModGE:
			if n >= 0 {
				return true
			}
		case alpm.DepModLE:
			if n <= 0 {
				return true
			}
		case alpm.DepModGT:
			if n > 0 {
				return true
			}
		case alpm.DepModLT:
			if n < 0 {
				return true
			}
		}
	}
	return false
}
