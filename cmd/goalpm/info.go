package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func newInfoCommand(a *app) *cobra.Command {
	var syncOnly bool
	cmd := &cobra.Command{
		Use:   "info <package>...",
		Short: "Show package metadata",
		Long: `Show the metadata of each named package. Installed packages are looked up
first unless --sync is given; otherwise the sync databases are searched in
registration order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withHandle(cmd, func(h *alpm.Alpm) error {
				for i, name := range args {
					p, err := findPkg(h, name, syncOnly)
					if err != nil {
						return err
					}
					if i > 0 {
						fmt.Fprintln(a.stdout)
					}
					if err := printInfo(a.stdout, p); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&syncOnly, "sync", "s", false, "only search the sync databases")
	return cmd
}

func field(w io.Writer, key, value string) {
	if value == "" {
		value = mutedStyle.Render("None")
	}
	fmt.Fprintf(w, "%s: %s\n", keyStyle.Render(key), value)
}

func optional(s string, ok bool) string {
	if !ok {
		return ""
	}
	return s
}

func join(items []string) string { return strings.Join(items, "  ") }

func deps(l alpm.List[alpm.Dep]) string {
	var out []string
	for d := range l.All() {
		out = append(out, d.String())
	}
	return join(out)
}

func printInfo(w io.Writer, p alpm.Package) error {
	origin, err := p.Origin()
	if err != nil {
		return err
	}
	if db, ok := p.DB(); ok && origin == alpm.FromSyncDB {
		field(w, "Repository", repoStyle.Render(db.Name()))
	}
	field(w, "Name", titleStyle.Render(p.Name()))
	field(w, "Version", p.Version().String())
	field(w, "Description", optional(p.Desc()))
	arch, _ := p.Arch()
	field(w, "Architecture", arch)
	field(w, "URL", optional(p.URL()))
	field(w, "Licenses", join(p.Licenses().Slice()))
	field(w, "Groups", join(p.Groups().Slice()))
	field(w, "Provides", deps(p.Provides()))
	field(w, "Depends On", deps(p.Depends()))

	var opt []string
	for d := range p.OptDepends().All() {
		opt = append(opt, d.String())
	}
	field(w, "Optional Deps", strings.Join(opt, "\n"+strings.Repeat(" ", 18)))

	required := p.RequiredBy()
	field(w, "Required By", join(required.Detach()))
	optionalFor := p.OptionalFor()
	field(w, "Optional For", join(optionalFor.Detach()))

	field(w, "Conflicts With", deps(p.Conflicts()))
	field(w, "Replaces", deps(p.Replaces()))
	if origin == alpm.FromSyncDB {
		field(w, "Download Size", humanize.IBytes(uint64(max(p.Size(), 0))))
	}
	field(w, "Installed Size", humanize.IBytes(uint64(max(p.ISize(), 0))))
	field(w, "Packager", optional(p.Packager()))
	field(w, "Build Date", p.BuildDate().Format(time.RFC1123))

	if origin == alpm.FromLocalDB {
		if t, ok := p.InstallDate(); ok {
			field(w, "Install Date", t.Format(time.RFC1123)+mutedStyle.Render(" ("+humanize.Time(t)+")"))
		} else {
			field(w, "Install Date", "")
		}
		reason, err := p.Reason()
		if err != nil {
			return err
		}
		switch reason {
		case alpm.ReasonExplicit:
			field(w, "Install Reason", "Explicitly installed")
		case alpm.ReasonDepend:
			field(w, "Install Reason", "Installed as a dependency for another package")
		default:
			field(w, "Install Reason", reason.String())
		}
		field(w, "Install Script", yesNo(p.HasScriptlet()))
		validation, err := p.Validation()
		if err != nil {
			return err
		}
		field(w, "Validated By", validationString(validation))
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func validationString(v alpm.PackageValidation) string {
	if v == alpm.ValidationUnknown {
		return "Unknown"
	}
	var out []string
	if v&alpm.ValidationNone != 0 {
		out = append(out, "None")
	}
	if v&alpm.ValidationMD5Sum != 0 {
		out = append(out, "MD5 Sum")
	}
	if v&alpm.ValidationSHA256Sum != 0 {
		out = append(out, "SHA-256 Sum")
	}
	if v&alpm.ValidationSignature != 0 {
		out = append(out, "Signature")
	}
	return join(out)
}
