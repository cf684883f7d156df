package paths_test

import (
	"os"
	"path/filepath"
	"testing"

	"scribe/internal/config"
	"scribe/internal/paths"
	"scribe/internal/testsupport"
)

func TestLayoutInstalledResolution(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ModelsDir = "/srv/scribe/models"
	cfg.Engine.Model = "base.en"

	layout := paths.NewLayout(&cfg)
	if layout.EngineBinary() != "whisper-cli" {
		t.Fatalf("expected PATH fallback, got %q", layout.EngineBinary())
	}
	if layout.FFmpegBinary() != "ffmpeg" {
		t.Fatalf("expected PATH fallback for ffmpeg, got %q", layout.FFmpegBinary())
	}

	want := filepath.Join("/srv/scribe/models", "ggml-base.en.bin")
	if got := layout.ModelFile(""); got != want {
		t.Fatalf("default model: got %q want %q", got, want)
	}
	if got := layout.ModelFile("large-v3"); got != filepath.Join("/srv/scribe/models", "ggml-large-v3.bin") {
		t.Fatalf("named model: got %q", got)
	}
}

func TestLayoutDevRootResolution(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.DevRoot = "/home/dev/whisper.cpp"
	cfg.Paths.ModelsDir = "/srv/scribe/models"

	layout := paths.NewLayout(&cfg)
	if got := layout.EngineBinary(); got != filepath.Join("/home/dev/whisper.cpp", "build", "bin", "whisper-cli") {
		t.Fatalf("unexpected dev binary: %q", got)
	}
	if got := layout.ModelFile("base.en"); got != filepath.Join("/home/dev/whisper.cpp", "models", "ggml-base.en.bin") {
		t.Fatalf("unexpected dev model path: %q", got)
	}
}

func TestLayoutExplicitBinaryWins(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.Binary = "/opt/whisper/bin/whisper-cli"
	cfg.Engine.DevRoot = "/home/dev/whisper.cpp"
	cfg.Mixing.FFmpegBinary = "/opt/ffmpeg/bin/ffmpeg"

	layout := paths.NewLayout(&cfg)
	if layout.EngineBinary() != "/opt/whisper/bin/whisper-cli" {
		t.Fatalf("expected explicit binary, got %q", layout.EngineBinary())
	}
	if layout.FFmpegBinary() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Fatalf("expected explicit ffmpeg, got %q", layout.FFmpegBinary())
	}
}

func TestModelFileName(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"base.en", "ggml-base.en.bin"},
		{"large-v3", "ggml-large-v3.bin"},
		{"ggml-tiny.bin", "ggml-tiny.bin"},
		{"  small  ", "ggml-small.bin"},
	}
	for _, tc := range cases {
		if got := paths.ModelFileName(tc.name); got != tc.want {
			t.Fatalf("ModelFileName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCheckExecutable(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "tool")
	testsupport.WriteScript(t, script, "#!/bin/sh\nexit 0\n")

	if err := paths.CheckExecutable(script); err != nil {
		t.Fatalf("expected executable script accepted: %v", err)
	}

	plain := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(plain, []byte("data"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := paths.CheckExecutable(plain); err == nil {
		t.Fatal("expected error for non-executable file")
	}

	if err := paths.CheckExecutable(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("expected error for missing path")
	}
	if err := paths.CheckExecutable(""); err == nil {
		t.Fatal("expected error for empty command")
	}
	if err := paths.CheckExecutable("definitely-not-on-path-xyzzy"); err == nil {
		t.Fatal("expected error for unresolvable command name")
	}
}

func TestValidateRuntime(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())

	layout := paths.NewLayout(cfg)
	if err := paths.ValidateRuntime(layout); err != nil {
		t.Fatalf("expected stubbed runtime to validate: %v", err)
	}

	broken := config.Default()
	broken.Engine.Binary = filepath.Join(t.TempDir(), "absent")
	if err := paths.ValidateRuntime(paths.NewLayout(&broken)); err == nil {
		t.Fatal("expected error for missing engine binary")
	}
}
