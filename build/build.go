// Package build bundles the reader shell into a single HTML file.
package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"stry/template"

	"github.com/sirupsen/logrus"
)

// GitVersion describes the checkout in dir with git, marking uncommitted
// changes with "-modified".
func GitVersion(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "describe", "--always", "--dirty=-modified")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to describe git version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Version joins the package version and the git version of dir, or returns
// the package version alone when git is unavailable.
func Version(ctx context.Context, dir, pkg string) string {
	git, err := GitVersion(ctx, dir)
	if err != nil || git == "" {
		logrus.WithError(err).Debug("no git version")
		return pkg
	}
	return pkg + "-" + git
}

type Options struct {
	Dir     string
	Package string
	Style   string
	Script  string
	Output  string
	Debug   bool
}

// Bundle writes the reader shell with the stylesheet, script and version
// inlined to opts.Output.
func Bundle(ctx context.Context, opts Options) (string, error) {
	style, err := os.ReadFile(opts.Style)
	if err != nil {
		return "", fmt.Errorf("failed to read style: %w", err)
	}
	script, err := os.ReadFile(opts.Script)
	if err != nil {
		return "", fmt.Errorf("failed to read script: %w", err)
	}

	version := Version(ctx, opts.Dir, opts.Package)
	if err := os.MkdirAll(filepath.Dir(opts.Output), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(opts.Output)
	if err != nil {
		return "", fmt.Errorf("failed to create output: %w", err)
	}
	defer file.Close()

	err = template.Index(template.Bundle{
		Version: version,
		Package: opts.Package,
		Debug:   opts.Debug,
		Style:   string(style),
		Script:  string(script),
	}).Render(ctx, file)
	if err != nil {
		return "", fmt.Errorf("failed to render bundle: %w", err)
	}
	return version, nil
}
