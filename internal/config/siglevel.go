package config

import (
	"fmt"
	"strings"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

// defaultSigLevel is pacman's built-in level before any SigLevel line.
const defaultSigLevel = alpm.SigPackage | alpm.SigPackageOptional |
	alpm.SigDatabase | alpm.SigDatabaseOptional

// ParseSigLevel applies pacman.conf SigLevel words on top of base. A word
// without a Package or Database prefix affects both. No words returns base
// unchanged.
func ParseSigLevel(words []string, base alpm.SigLevel) (alpm.SigLevel, error) {
	level := base &^ alpm.SigUseDefault
	if len(words) == 0 {
		return base, nil
	}
	for _, word := range words {
		pkg, db := true, true
		w := word
		switch {
		case strings.HasPrefix(w, "Package"):
			w, db = strings.TrimPrefix(w, "Package"), false
		case strings.HasPrefix(w, "Database"):
			w, pkg = strings.TrimPrefix(w, "Database"), false
		}

		var set, unset alpm.SigLevel
		switch w {
		case "Never":
			unset = alpm.SigPackage | alpm.SigDatabase
		case "Optional":
			set = alpm.SigPackage | alpm.SigPackageOptional | alpm.SigDatabase | alpm.SigDatabaseOptional
		case "Required":
			set = alpm.SigPackage | alpm.SigDatabase
			unset = alpm.SigPackageOptional | alpm.SigDatabaseOptional
		case "TrustedOnly":
			unset = alpm.SigPackageMarginalOK | alpm.SigPackageUnknownOK |
				alpm.SigDatabaseMarginal | alpm.SigDatabaseUnknownOK
		case "TrustAll":
			set = alpm.SigPackageMarginalOK | alpm.SigPackageUnknownOK |
				alpm.SigDatabaseMarginal | alpm.SigDatabaseUnknownOK
		default:
			return 0, fmt.Errorf("invalid siglevel word %q", word)
		}

		var scope alpm.SigLevel
		if pkg {
			scope |= alpm.SigPackage | alpm.SigPackageOptional | alpm.SigPackageMarginalOK | alpm.SigPackageUnknownOK
		}
		if db {
			scope |= alpm.SigDatabase | alpm.SigDatabaseOptional | alpm.SigDatabaseMarginal | alpm.SigDatabaseUnknownOK
		}
		level = level&^(unset&scope) | set&scope
	}
	return level, nil
}

// ParseUsage combines pacman.conf Usage words.
func ParseUsage(words []string) (alpm.Usage, error) {
	var u alpm.Usage
	for _, w := range words {
		switch w {
		case "Sync":
			u |= alpm.UsageSync
		case "Search":
			u |= alpm.UsageSearch
		case "Install":
			u |= alpm.UsageInstall
		case "Upgrade":
			u |= alpm.UsageUpgrade
		case "All":
			u |= alpm.UsageAll
		default:
			return 0, fmt.Errorf("invalid usage word %q", w)
		}
	}
	return u, nil
}
