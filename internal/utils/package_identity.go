package utils

import (
	"fmt"

	"github.com/ralt/pupa/internal/models"
)

// PackageIdentity returns a unique identifier for a package within a subdir
func PackageIdentity(pkg models.Package) string {
	return fmt.Sprintf("%s:%s:%s", pkg.Record.Name, pkg.Record.Version, pkg.Record.Build)
}

// DetectConflicts returns packages from newPackages that conflict with existing
func DetectConflicts(existing, newPackages []models.Package) []models.Package {
	existingMap := make(map[string]bool)
	for _, pkg := range existing {
		existingMap[PackageIdentity(pkg)] = true
	}

	var conflicts []models.Package
	for _, pkg := range newPackages {
		if existingMap[PackageIdentity(pkg)] {
			conflicts = append(conflicts, pkg)
		}
	}
	return conflicts
}
