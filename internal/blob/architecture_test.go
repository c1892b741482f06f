package blob

import (
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyBlobPackageImportsObjectSDKs ensures that only the blob package
// talks to object-storage SDKs. Other packages must depend on the blob.Store
// interface so the driver stays swappable behind configuration.
func TestOnlyBlobPackageImportsObjectSDKs(t *testing.T) {
	sdkPrefix := "github.com/aws/aws-sdk-go-v2"
	allowedPrefix := "wardwatch/internal/blob"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "wardwatch/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == sdkPrefix || strings.HasPrefix(importPath, sdkPrefix+"/") {
				pos := filepath.Join(pkg.PkgPath, "...")
				seen[pos+": "+importPath] = struct{}{}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden import of object-storage SDK: %s", v)
		}
		t.Fatalf("found %d forbidden object-storage SDK imports", len(violations))
	}
}

// TestOnlyPersistenceDriversImportDatabases keeps database driver imports
// confined to the persistence drivers; everything else goes through the
// domain.PersistentStore interface.
func TestOnlyPersistenceDriversImportDatabases(t *testing.T) {
	driverPrefixes := []string{"modernc.org/sqlite", "github.com/jackc/pgx"}
	allowedPrefix := "wardwatch/internal/infra/persistence"

	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "wardwatch/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}

	seen := make(map[string]struct{})

	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			for _, prefix := range driverPrefixes {
				if importPath == prefix || strings.HasPrefix(importPath, prefix+"/") {
					seen[pkg.PkgPath+": "+importPath] = struct{}{}
				}
			}
		}
	}

	if len(seen) > 0 {
		violations := make([]string, 0, len(seen))
		for v := range seen {
			violations = append(violations, v)
		}
		sort.Strings(violations)
		for _, v := range violations {
			t.Errorf("forbidden database driver import: %s", v)
		}
		t.Fatalf("found %d forbidden database driver imports", len(violations))
	}
}
