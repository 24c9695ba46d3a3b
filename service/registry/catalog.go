// SPDX-License-Identifier: BSD-3-Clause

package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
)

// Catalog describes the root layout New builds the default personal-
// assistant stack's service list from.
type Catalog struct {
	// RootDir is the stack's install root (services live under
	// RootDir/services, shared core venv under RootDir/services/.core_venv).
	RootDir string
}

// DefaultCatalog returns a Catalog rooted at dir.
func DefaultCatalog(dir string) Catalog { return Catalog{RootDir: dir} }

// New builds the default registry: memory/tools/gateway/llm sharing a core
// venv, whisper/piper/kokoro each with their own venv, chatterbox requiring
// Python 3.11 or a later 3.x (the others accept 3.10 or later),
// and frontend as a compiled Next.js asset with TCP-only readiness.
func New(cat Catalog) (*Registry, error) {
	coreVenv := filepath.Join(cat.RootDir, "services", ".core_venv")
	svcDir := func(name string) string { return filepath.Join(cat.RootDir, "services", name) }

	pyStart := func(id, module string, port int, venv string) RecipeFunc {
		return func(ctx context.Context) (Recipe, error) {
			python := filepath.Join(venv, pythonBinSubdir(), pythonExeName())
			return Recipe{
				Argv: []string{python, "-m", "uvicorn", module, "--host", "0.0.0.0", "--port", fmt.Sprintf("%d", port)},
				Dir:  svcDir(id),
			}, nil
		}
	}
	pyInstall := func(id string, venv string) RecipeFunc {
		return func(ctx context.Context) (Recipe, error) {
			python := filepath.Join(venv, pythonBinSubdir(), pythonExeName())
			return Recipe{
				Argv: []string{python, "-m", "pip", "install", "-r", "requirements.txt"},
				Dir:  svcDir(id),
			}, nil
		}
	}

	svcs := []Service{
		{
			ID: "memory", Name: "Core: Memory Service", Port: 8005,
			BaseURL: "http://localhost:8005", HealthPath: "/health",
			WorkDir: svcDir("memory"), IsCore: true,
			InstallKind: InstallInterpretedShared, RuntimeDir: coreVenv,
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			RepresentativePackage: "fastapi",
			InstallCmd:            pyInstall("memory", coreVenv),
			StartCmd:              pyStart("memory", "main:app", 8005, coreVenv),
		},
		{
			ID: "tools", Name: "Core: Tool Service", Port: 8006,
			BaseURL: "http://localhost:8006", HealthPath: "/health",
			WorkDir: svcDir("tools"), IsCore: true,
			InstallKind: InstallInterpretedShared, RuntimeDir: coreVenv,
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			RepresentativePackage: "fastapi",
			InstallCmd:            pyInstall("tools", coreVenv),
			StartCmd:              pyStart("tools", "main:app", 8006, coreVenv),
		},
		{
			ID: "gateway", Name: "Core: API Gateway", Port: 8000,
			BaseURL: "http://localhost:8000", HealthPath: "/health",
			WorkDir: svcDir("gateway"), IsCore: true,
			InstallKind: InstallInterpretedShared, RuntimeDir: coreVenv,
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			RepresentativePackage: "fastapi",
			InstallCmd:            pyInstall("gateway", coreVenv),
			StartCmd:              pyStart("gateway", "main:app", 8000, coreVenv),
		},
		{
			// llm is started by gateway (original: start_cmd: lambda: []);
			// it shares the core venv and is installed alongside the other
			// core services but is never started directly.
			ID: "llm", Name: "Core: LLM Service", Port: 8001,
			BaseURL: "http://localhost:8001", HealthPath: "/health",
			WorkDir: svcDir("llm"), IsCore: true,
			ManagedByPeer: "gateway",
			InstallKind:   InstallInterpretedShared, RuntimeDir: coreVenv,
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			RepresentativePackage: "fastapi",
			InstallCmd:            pyInstall("llm", coreVenv),
		},
		{
			ID: "whisper", Name: "Whisper Service (STT)", Port: 8003,
			BaseURL: "http://localhost:8003", HealthPath: "/health",
			WorkDir: svcDir("stt-whisper"), IsCore: false,
			InstallKind: InstallInterpretedOwn, RuntimeDir: filepath.Join(svcDir("stt-whisper"), ".venv"),
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			InstallCmd: pyInstall("stt-whisper", filepath.Join(svcDir("stt-whisper"), ".venv")),
			StartCmd:   pyStart("stt-whisper", "main:app", 8003, filepath.Join(svcDir("stt-whisper"), ".venv")),
		},
		{
			ID: "piper", Name: "Piper Service (TTS)", Port: 8004,
			BaseURL: "http://localhost:8004", HealthPath: "/health",
			WorkDir: svcDir("tts-piper"), IsCore: false,
			InstallKind: InstallInterpretedOwn, RuntimeDir: filepath.Join(svcDir("tts-piper"), ".venv"),
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			InstallCmd: pyInstall("tts-piper", filepath.Join(svcDir("tts-piper"), ".venv")),
			StartCmd:   pyStart("tts-piper", "main:app", 8004, filepath.Join(svcDir("tts-piper"), ".venv")),
		},
		{
			ID: "chatterbox", Name: "Chatterbox Service (TTS)", Port: 4123,
			BaseURL: "http://localhost:4123", HealthPath: "/health",
			WorkDir: filepath.Join(cat.RootDir, "external_services", "chatterbox-tts-api"), IsCore: false,
			InstallKind: InstallInterpretedOwn,
			RuntimeDir:  filepath.Join(cat.RootDir, "external_services", "chatterbox-tts-api", ".venv"),
			// Chatterbox needs Python 3.11 or later, a higher floor than
			// the 3.10 the other interpreted services accept.
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 11,
			InstallCmd: pyInstall("chatterbox-tts-api", filepath.Join(cat.RootDir, "external_services", "chatterbox-tts-api", ".venv")),
			StartCmd:   pyStart("chatterbox-tts-api", "main:app", 4123, filepath.Join(cat.RootDir, "external_services", "chatterbox-tts-api", ".venv")),
		},
		{
			ID: "kokoro", Name: "Kokoro Service (TTS)", Port: 8880,
			BaseURL: "http://localhost:8880", HealthPath: "/health",
			WorkDir: svcDir("tts-kokoro"), IsCore: false,
			InstallKind: InstallInterpretedOwn, RuntimeDir: filepath.Join(svcDir("tts-kokoro"), ".venv"),
			RuntimeFamily: "python", RuntimeMajor: 3, RuntimeMinMinor: 10,
			InstallCmd: pyInstall("tts-kokoro", filepath.Join(svcDir("tts-kokoro"), ".venv")),
			StartCmd:   pyStart("tts-kokoro", "main:app", 8880, filepath.Join(svcDir("tts-kokoro"), ".venv")),
		},
		{
			// frontend has no health path: readiness is TCP-connect-only.
			ID: "frontend", Name: "Frontend (Next.js)", Port: 8002,
			BaseURL: "http://localhost:8002", HealthPath: "",
			WorkDir: svcDir("frontend"), IsCore: false,
			InstallKind: InstallCompiledAsset, RuntimeDir: filepath.Join(svcDir("frontend"), ".next"),
			InstallCmd: func(ctx context.Context) (Recipe, error) {
				npm := "npm"
				if runtime.GOOS == "windows" {
					npm = "npm.cmd"
				}
				return Recipe{Argv: []string{npm, "install"}, Dir: svcDir("frontend")}, nil
			},
			StartCmd: func(ctx context.Context) (Recipe, error) {
				npm := "npm"
				if runtime.GOOS == "windows" {
					npm = "npm.cmd"
				}
				return Recipe{Argv: []string{npm, "run", "start"}, Dir: svcDir("frontend")}, nil
			},
		},
	}

	return NewFromServices(svcs)
}

func pythonBinSubdir() string {
	if runtime.GOOS == "windows" {
		return "Scripts"
	}
	return "bin"
}

func pythonExeName() string {
	if runtime.GOOS == "windows" {
		return "python.exe"
	}
	return "python"
}
