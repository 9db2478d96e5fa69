// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"
	"strconv"
	"strings"

	"grootpod-cli/internal/envroot"
	"grootpod-cli/internal/serve"

	"mvdan.cc/sh/v3/syntax"
)

// generatedHeader marks every rendered artifact. The scripts embed the
// environment root as absolute paths so they keep working when invoked from
// any working directory or shell context.
const generatedHeader = "# Generated by grootpod. Do not edit; re-run 'grootpod provision' to refresh."

// RenderActivate renders the activation artifact: it exports the persistent
// cache locations and activates the isolated conda environment.
func RenderActivate(root envroot.Root) (string, error) {
	var b strings.Builder

	b.WriteString("#!/bin/bash\n")
	b.WriteString(generatedHeader + "\n\n")

	if err := writeExport(&b, "GROOTPOD_ROOT", root.String()); err != nil {
		return "", err
	}
	if err := writeExport(&b, "PIP_CACHE_DIR", root.PipCacheDir()); err != nil {
		return "", err
	}
	if err := writeExport(&b, "HF_HOME", root.HFCacheDir()); err != nil {
		return "", err
	}
	if err := writeExport(&b, "CONDA_PKGS_DIRS", root.CondaPkgsCacheDir()); err != nil {
		return "", err
	}

	condaSh, err := quote(root.CondaDir() + "/etc/profile.d/conda.sh")
	if err != nil {
		return "", err
	}
	envDir, err := quote(root.EnvDir())
	if err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "\nsource %s\nconda activate %s\n", condaSh, envDir)

	script := b.String()
	if err := ValidateScript("activate.sh", script); err != nil {
		return "", err
	}
	return script, nil
}

// RenderStart renders the inference launcher artifact. Its only logic is
// reading the documented configuration variables with fallback defaults and
// handing them to the inference entry point as explicit arguments.
func RenderStart(root envroot.Root, defaults serve.Settings) (string, error) {
	var b strings.Builder

	b.WriteString("#!/bin/bash\n")
	b.WriteString(generatedHeader + "\n")
	b.WriteString("set -euo pipefail\n\n")

	activate, err := quote(root.ActivateScript())
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "source %s\n\n", activate)

	fallbacks := []struct {
		name      string
		value     string
		unsetOnly bool
	}{
		{serve.EnvModelPath, defaults.ModelPath, false},
		// Set-but-empty means auto-detect, so the default applies only when
		// the variable is unset. This matches how 'grootpod start' resolves it.
		{serve.EnvEmbodimentTag, defaults.EmbodimentTag, true},
		{serve.EnvNumArms, strconv.Itoa(defaults.NumArms), false},
		{serve.EnvNumCams, strconv.Itoa(defaults.NumCams), false},
		{serve.EnvDenoisingSteps, strconv.Itoa(defaults.DenoisingSteps), false},
		{serve.EnvHost, defaults.Host, false},
		{serve.EnvPort, strconv.Itoa(defaults.Port), false},
	}
	for _, f := range fallbacks {
		quoted, err := quote(f.value)
		if err != nil {
			return "", err
		}
		op := ":-"
		if f.unsetOnly {
			op = "-"
		}
		// No outer double quotes: assignments do not word-split, and the
		// quoted default must stay syntactic (an empty default renders as '').
		fmt.Fprintf(&b, "%s=${%s%s%s}\n", f.name, f.name, op, quoted)
	}

	entry, err := quote(root.InferenceScript())
	if err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "\nexec python %s \\\n", entry)
	fmt.Fprintf(&b, "    --model_path \"$%s\" \\\n", serve.EnvModelPath)
	fmt.Fprintf(&b, "    --embodiment_tag \"$%s\" \\\n", serve.EnvEmbodimentTag)
	fmt.Fprintf(&b, "    --num_arms \"$%s\" \\\n", serve.EnvNumArms)
	fmt.Fprintf(&b, "    --num_cams \"$%s\" \\\n", serve.EnvNumCams)
	fmt.Fprintf(&b, "    --denoising_steps \"$%s\" \\\n", serve.EnvDenoisingSteps)
	fmt.Fprintf(&b, "    --host \"$%s\" \\\n", serve.EnvHost)
	fmt.Fprintf(&b, "    --port \"$%s\"\n", serve.EnvPort)

	script := b.String()
	if err := ValidateScript("start_inference.sh", script); err != nil {
		return "", err
	}
	return script, nil
}

// RenderQuickSetup renders the one-shot refresh artifact: activate the
// environment, pull the latest model sources, and reinstall the python
// package in-place.
func RenderQuickSetup(root envroot.Root) (string, error) {
	var b strings.Builder

	b.WriteString("#!/bin/bash\n")
	b.WriteString(generatedHeader + "\n")
	b.WriteString("set -euo pipefail\n\n")

	activate, err := quote(root.ActivateScript())
	if err != nil {
		return "", err
	}
	repo, err := quote(root.ModelRepoDir())
	if err != nil {
		return "", err
	}

	fmt.Fprintf(&b, "source %s\n", activate)
	fmt.Fprintf(&b, "git -C %s pull --ff-only\n", repo)
	fmt.Fprintf(&b, "pip install -e %s\n", repo)

	script := b.String()
	if err := ValidateScript("quick_setup.sh", script); err != nil {
		return "", err
	}
	return script, nil
}

// RenderDockerCommand renders the plain-text docker start command reference.
// This is documentation, not a script; it is not validated as shell.
func RenderDockerCommand(root envroot.Root, defaults serve.Settings) string {
	var b strings.Builder

	b.WriteString("Reference docker start command for the inference pod.\n")
	b.WriteString("Adjust the image tag and volume source to your deployment.\n\n")
	fmt.Fprintf(&b, "docker run --gpus all \\\n")
	fmt.Fprintf(&b, "    -v %s:%s \\\n", root.String(), root.String())
	fmt.Fprintf(&b, "    -p %d:%d \\\n", defaults.Port, defaults.Port)
	fmt.Fprintf(&b, "    -e %s -e %s -e %s -e %s -e %s -e %s -e %s \\\n",
		serve.EnvModelPath, serve.EnvEmbodimentTag, serve.EnvNumArms,
		serve.EnvNumCams, serve.EnvDenoisingSteps, serve.EnvHost, serve.EnvPort)
	fmt.Fprintf(&b, "    grootpod/gr00t-inference:latest \\\n")
	fmt.Fprintf(&b, "    bash %s\n", root.StartScript())

	return b.String()
}

// ValidateScript parses a rendered artifact as bash and returns any syntax
// error. Rendering is pure string assembly; this check guarantees the
// assembly never produces an unrunnable script.
func ValidateScript(name, script string) error {
	parser := syntax.NewParser(syntax.Variant(syntax.LangBash))
	if _, err := parser.Parse(strings.NewReader(script), name); err != nil {
		return fmt.Errorf("generated %s is not valid bash: %w", name, err)
	}
	return nil
}

// quote renders a value as a bash word that expands to exactly that value.
func quote(value string) (string, error) {
	quoted, err := syntax.Quote(value, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot embed %q in a shell script: %w", value, err)
	}
	return quoted, nil
}

func writeExport(b *strings.Builder, name, value string) error {
	quoted, err := quote(value)
	if err != nil {
		return err
	}
	fmt.Fprintf(b, "export %s=%s\n", name, quoted)
	return nil
}
