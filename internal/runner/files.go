package runner

import (
	"context"
	"fmt"
)

// WriteFile writes content to a root-owned path through `sudo tee`.
func WriteFile(ctx context.Context, r Runner, path, content string) error {
	c := Sudo("tee", path)
	c.Stdin = content
	if res := r.Run(ctx, c); !res.OK() {
		return fmt.Errorf("writing %s: %s", path, res.Diagnostic())
	}
	return nil
}

// ReadFile reads a root-owned file through `sudo cat`.
func ReadFile(ctx context.Context, r Runner, path string) (string, error) {
	res := r.Run(ctx, Sudo("cat", path))
	if !res.OK() {
		return "", fmt.Errorf("reading %s: %s", path, res.Diagnostic())
	}
	return res.Stdout, nil
}

// CopyFile copies src to dst with elevated privileges.
func CopyFile(ctx context.Context, r Runner, src, dst string) error {
	if res := r.Run(ctx, Sudo("cp", src, dst)); !res.OK() {
		return fmt.Errorf("copying %s to %s: %s", src, dst, res.Diagnostic())
	}
	return nil
}

// MakeDir creates path and its parents with elevated privileges.
func MakeDir(ctx context.Context, r Runner, path string) error {
	if res := r.Run(ctx, Sudo("mkdir", "-p", path)); !res.OK() {
		return fmt.Errorf("creating %s: %s", path, res.Diagnostic())
	}
	return nil
}

// Remove deletes a file with elevated privileges.
func Remove(ctx context.Context, r Runner, path string) error {
	if res := r.Run(ctx, Sudo("rm", "-f", path)); !res.OK() {
		return fmt.Errorf("removing %s: %s", path, res.Diagnostic())
	}
	return nil
}

// Exists tests for a path with elevated privileges, so root-only
// directories are visible.
func Exists(ctx context.Context, r Runner, path string) bool {
	return r.Run(ctx, Sudo("test", "-e", path)).OK()
}
