package alpm_test

import (
	"testing"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/alpmtest"
)

func writeHello(t *testing.T, dir string) string {
	t.Helper()
	return alpmtest.WritePackage(t, dir, alpmtest.Package{
		Name:      "hello",
		Version:   "1.0-1",
		Desc:      "Prints a friendly greeting",
		Depends:   []string{"sh", "glibc>=2.38"},
		Backup:    []string{"etc/hello.conf"},
		Files:     []string{"etc/", "etc/hello.conf", "usr/", "usr/bin/", "usr/bin/hello"},
		Install:   true,
		Changelog: "1.0-1: first release\n",
	})
}
