// SPDX-License-Identifier: BSD-3-Clause

package controller

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/GenorTG/assistant-launcher/service/registry"
)

// checkInstalled implements install-status check: for a
// compiled asset, presence of the built-artifact directory; for an
// interpreted service, presence of the runtime's python interpreter,
// plus - when the service declares one - a representative package
// resolving inside that runtime so a shared venv missing this service's
// own dependencies is correctly reported not_installed.
func checkInstalled(svc registry.Service) (bool, string) {
	switch svc.InstallKind {
	case registry.InstallCompiledAsset:
		info, err := os.Stat(svc.RuntimeDir)
		if err != nil || !info.IsDir() {
			return false, "build artifact directory missing"
		}
		return true, ""

	case registry.InstallInterpretedShared, registry.InstallInterpretedOwn:
		python := venvPython(svc.RuntimeDir)
		if _, err := os.Stat(python); err != nil {
			return false, "interpreter not found at " + python
		}
		if svc.RepresentativePackage != "" && !packageResolves(svc.RuntimeDir, svc.RepresentativePackage) {
			return false, "representative package " + svc.RepresentativePackage + " not found in runtime"
		}
		return true, ""

	default:
		return false, "unknown install kind"
	}
}

func venvPython(runtimeDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(runtimeDir, "Scripts", "python.exe")
	}
	return filepath.Join(runtimeDir, "bin", "python")
}

// packageResolves is a best-effort check: it globs the interpreter's
// site-packages directories for an entry named after pkg, since invoking
// the interpreter itself just to import-check would be slower than the
// 5s cache TTL is meant to save.
func packageResolves(runtimeDir, pkg string) bool {
	patterns := []string{
		filepath.Join(runtimeDir, "lib", "python3.*", "site-packages", pkg),
		filepath.Join(runtimeDir, "lib", "python3.*", "site-packages", pkg+"-*"),
		filepath.Join(runtimeDir, "Lib", "site-packages", pkg),
	}
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}
