// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"path/filepath"
	"strings"
	"testing"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/serve"
)

func TestRenderActivate(t *testing.T) {
	root := envroot.Root("/workspace/gr00t")

	script, err := RenderActivate(root)
	if err != nil {
		t.Fatalf("RenderActivate failed: %v", err)
	}

	for _, want := range []string{
		"#!/bin/bash",
		"export GROOTPOD_ROOT=/workspace/gr00t",
		"export PIP_CACHE_DIR=/workspace/gr00t/cache/pip",
		"export HF_HOME=/workspace/gr00t/cache/huggingface",
		"export CONDA_PKGS_DIRS=/workspace/gr00t/cache/conda-pkgs",
		"source /workspace/gr00t/miniconda3/etc/profile.d/conda.sh",
		"conda activate /workspace/gr00t/envs/gr00t",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("activate script missing %q:\n%s", want, script)
		}
	}
}

func TestRenderStart_DefaultFallbacks(t *testing.T) {
	root := envroot.Root("/workspace/gr00t")

	script, err := RenderStart(root, serve.Defaults())
	if err != nil {
		t.Fatalf("RenderStart failed: %v", err)
	}

	for _, want := range []string{
		"set -euo pipefail",
		"source /workspace/gr00t/activate.sh",
		"MODEL_PATH=${MODEL_PATH:-nvidia/GR00T-N1-2B}",
		// The auto-detect default is empty, which must still be a valid
		// shell word. Unset-only expansion: an explicitly empty tag stays
		// empty instead of being replaced by the default.
		"EMBODIMENT_TAG=${EMBODIMENT_TAG-''}",
		"NUM_ARMS=${NUM_ARMS:-1}",
		"NUM_CAMS=${NUM_CAMS:-2}",
		"DENOISING_STEPS=${DENOISING_STEPS:-4}",
		"HOST=${HOST:-0.0.0.0}",
		"PORT=${PORT:-5555}",
		"exec python " + root.InferenceScript(),
		`--model_path "$MODEL_PATH"`,
		`--embodiment_tag "$EMBODIMENT_TAG"`,
		`--num_arms "$NUM_ARMS"`,
		`--num_cams "$NUM_CAMS"`,
		`--denoising_steps "$DENOISING_STEPS"`,
		`--host "$HOST"`,
		`--port "$PORT"`,
	} {
		if !strings.Contains(script, want) {
			t.Errorf("start script missing %q:\n%s", want, script)
		}
	}
}

func TestRenderStart_CustomDefaults(t *testing.T) {
	root := envroot.Root("/workspace/gr00t")
	defaults := serve.Defaults()
	defaults.ModelPath = "/data/m1"
	defaults.NumArms = 2

	script, err := RenderStart(root, defaults)
	if err != nil {
		t.Fatalf("RenderStart failed: %v", err)
	}

	if !strings.Contains(script, "MODEL_PATH=${MODEL_PATH:-/data/m1}") {
		t.Errorf("custom model path not baked in:\n%s", script)
	}
	if !strings.Contains(script, "NUM_ARMS=${NUM_ARMS:-2}") {
		t.Errorf("custom arm count not baked in:\n%s", script)
	}
}

func TestRenderStart_EmbodimentDefaultAppliesOnlyWhenUnset(t *testing.T) {
	root := envroot.Root("/workspace/gr00t")
	defaults := serve.Defaults()
	defaults.EmbodimentTag = "gr1"

	script, err := RenderStart(root, defaults)
	if err != nil {
		t.Fatalf("RenderStart failed: %v", err)
	}

	// EMBODIMENT_TAG="" must survive as empty (auto-detect), so the baked
	// default uses unset-only expansion; every other variable treats empty
	// like unset.
	if !strings.Contains(script, "EMBODIMENT_TAG=${EMBODIMENT_TAG-gr1}") {
		t.Errorf("embodiment default not baked with unset-only expansion:\n%s", script)
	}
	if strings.Contains(script, "EMBODIMENT_TAG=${EMBODIMENT_TAG:-") {
		t.Errorf("embodiment fallback must not replace an explicitly empty tag:\n%s", script)
	}
	if !strings.Contains(script, "MODEL_PATH=${MODEL_PATH:-") {
		t.Errorf("model path must keep empty-or-unset expansion:\n%s", script)
	}
}

func TestRenderScripts_QuotePathsWithSpaces(t *testing.T) {
	root := envroot.Root("/mnt/pod volume/gr00t")

	activate, err := RenderActivate(root)
	if err != nil {
		t.Fatalf("RenderActivate failed: %v", err)
	}
	start, err := RenderStart(root, serve.Defaults())
	if err != nil {
		t.Fatalf("RenderStart failed: %v", err)
	}

	for name, script := range map[string]string{"activate": activate, "start": start} {
		if strings.Contains(script, " /mnt/pod volume/") {
			t.Errorf("%s script embeds an unquoted path with spaces:\n%s", name, script)
		}
		if err := ValidateScript(name, script); err != nil {
			t.Errorf("%s script with spaced root is invalid: %v", name, err)
		}
	}
}

func TestRenderQuickSetup(t *testing.T) {
	root := envroot.Root("/workspace/gr00t")

	script, err := RenderQuickSetup(root)
	if err != nil {
		t.Fatalf("RenderQuickSetup failed: %v", err)
	}

	for _, want := range []string{
		"source /workspace/gr00t/activate.sh",
		"git -C /workspace/gr00t/Isaac-GR00T pull --ff-only",
		"pip install -e /workspace/gr00t/Isaac-GR00T",
	} {
		if !strings.Contains(script, want) {
			t.Errorf("quick-setup script missing %q:\n%s", want, script)
		}
	}
}

func TestRenderDockerCommand(t *testing.T) {
	root := envroot.Root("/workspace/gr00t")

	text := RenderDockerCommand(root, serve.Defaults())

	for _, want := range []string{
		"docker run --gpus all",
		"-v /workspace/gr00t:/workspace/gr00t",
		"-p 5555:5555",
		"bash " + root.StartScript(),
	} {
		if !strings.Contains(text, want) {
			t.Errorf("docker command reference missing %q:\n%s", want, text)
		}
	}
}

func TestValidateScript_RejectsBrokenShell(t *testing.T) {
	err := ValidateScript("broken.sh", "if [ -d /x ]; then\necho unclosed\n")
	if err == nil {
		t.Fatal("expected a syntax error for an unclosed if block")
	}
	if !strings.Contains(err.Error(), "broken.sh") {
		t.Errorf("error must name the artifact, got: %v", err)
	}
}

func TestGeneratedHeaderPresentInAllScripts(t *testing.T) {
	root := envroot.Root(filepath.Join("/workspace", "gr00t"))

	activate, _ := RenderActivate(root)
	start, _ := RenderStart(root, serve.Defaults())
	quick, _ := RenderQuickSetup(root)

	for name, script := range map[string]string{
		"activate.sh":        activate,
		"start_inference.sh": start,
		"quick_setup.sh":     quick,
	} {
		if !strings.Contains(script, generatedHeader) {
			t.Errorf("%s missing the generated-artifact header", name)
		}
	}
}
