package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func newOptionsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the handle options after configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withHandle(cmd, func(h *alpm.Alpm) error {
				w := a.stdout
				def, err := h.DefaultSigLevel()
				if err != nil {
					return err
				}
				local, err := h.LocalFileSigLevel()
				if err != nil {
					return err
				}
				remote, err := h.RemoteFileSigLevel()
				if err != nil {
					return err
				}
				logfile, _ := h.Logfile()

				field(w, "libalpm", fmt.Sprintf("%s (native: %t)", alpm.Version(), alpm.Native()))
				field(w, "Root", h.Root())
				field(w, "DBPath", h.DBPath())
				field(w, "Lockfile", h.Lockfile())
				field(w, "Logfile", logfile)
				field(w, "GPGDir", h.GPGDir())
				field(w, "DBExt", h.DBExt())
				field(w, "CacheDirs", join(h.CacheDirs().Slice()))
				field(w, "HookDirs", join(h.HookDirs().Slice()))
				field(w, "Architectures", join(h.Architectures().Slice()))
				field(w, "IgnorePkg", join(h.IgnorePkgs().Slice()))
				field(w, "IgnoreGroup", join(h.IgnoreGroups().Slice()))
				field(w, "NoUpgrade", join(h.NoUpgrades().Slice()))
				field(w, "NoExtract", join(h.NoExtracts().Slice()))
				field(w, "SigLevel", def.String())
				field(w, "LocalFileSig", local.String())
				field(w, "RemoteFileSig", remote.String())
				field(w, "ParallelDL", fmt.Sprint(h.ParallelDownloads()))
				field(w, "CheckSpace", yesNo(h.CheckSpace()))

				for db := range h.SyncDBs().All() {
					level, err := db.SigLevel()
					if err != nil {
						return err
					}
					usage, err := db.Usage()
					if err != nil {
						return err
					}
					fmt.Fprintln(w)
					field(w, "Repository", repoStyle.Render(db.Name()))
					field(w, "SigLevel", level.String())
					field(w, "Usage", usage.String())
					for s := range db.Servers().All() {
						field(w, "Server", s)
					}
				}
				return nil
			})
		},
	}
}
