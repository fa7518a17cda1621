package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func TestParseSigLevel(t *testing.T) {
	cases := []struct {
		name  string
		words []string
		base  alpm.SigLevel
		want  alpm.SigLevel
	}{
		{"empty keeps base", nil, alpm.SigUseDefault, alpm.SigUseDefault},
		{"required", []string{"Required"}, defaultSigLevel, alpm.SigPackage | alpm.SigDatabase},
		{"never", []string{"Never"}, defaultSigLevel, alpm.SigPackageOptional | alpm.SigDatabaseOptional},
		{"pacman default line", []string{"Required", "DatabaseOptional"}, defaultSigLevel,
			alpm.SigPackage | alpm.SigDatabase | alpm.SigDatabaseOptional},
		{"package only", []string{"PackageTrustAll"}, 0,
			alpm.SigPackageMarginalOK | alpm.SigPackageUnknownOK},
		{"trusted only", []string{"TrustAll", "DatabaseTrustedOnly"}, alpm.SigPackage,
			alpm.SigPackage | alpm.SigPackageMarginalOK | alpm.SigPackageUnknownOK},
		{"use default dropped", []string{"Optional"}, alpm.SigUseDefault,
			alpm.SigPackage | alpm.SigPackageOptional | alpm.SigDatabase | alpm.SigDatabaseOptional},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSigLevel(tc.words, tc.base)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "got %s", got)
		})
	}

	for _, bad := range []string{"Bogus", "PackageBogus", "required", "Package"} {
		_, err := ParseSigLevel([]string{bad}, 0)
		assert.Error(t, err, bad)
	}
}

func TestParseUsage(t *testing.T) {
	u, err := ParseUsage([]string{"Sync", "Search"})
	require.NoError(t, err)
	assert.Equal(t, alpm.UsageSync|alpm.UsageSearch, u)

	u, err = ParseUsage([]string{"All"})
	require.NoError(t, err)
	assert.Equal(t, alpm.UsageAll, u)

	_, err = ParseUsage([]string{"Everything"})
	require.Error(t, err)
}
