// Package github reads single files from GitHub repositories through the gh
// CLI, so private repositories work with the user's existing gh login.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Scheme prefixes every GitHub file reference: github://owner/repo/path[@ref].
const Scheme = "github://"

// Location identifies a file in a GitHub repository.
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string // branch, tag or commit; empty means the default branch
}

func (l Location) String() string {
	s := Scheme + l.Owner + "/" + l.Repo + "/" + l.Path
	if l.Ref != "" {
		s += "@" + l.Ref
	}
	return s
}

func (l Location) contentsPath() string {
	p := fmt.Sprintf("repos/%s/%s/contents/%s", l.Owner, l.Repo, l.Path)
	if l.Ref != "" {
		p += "?ref=" + l.Ref
	}
	return p
}

// IsURL reports whether s is a github:// reference.
func IsURL(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseURL parses github://owner/repo/path/to/file[@ref].
func ParseURL(s string) (Location, error) {
	if !IsURL(s) {
		return Location{}, fmt.Errorf("invalid GitHub URL format: %s", s)
	}
	rest := strings.TrimPrefix(s, Scheme)

	var loc Location
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, loc.Ref = rest[:i], rest[i+1:]
		if loc.Ref == "" {
			return Location{}, fmt.Errorf("invalid GitHub URL format: empty ref in %s", s)
		}
	}

	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Location{}, fmt.Errorf("invalid GitHub URL format: expected github://owner/repo/path/to/file")
	}
	loc.Owner, loc.Repo, loc.Path = parts[0], parts[1], parts[2]
	return loc, nil
}

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Client fetches file contents with `gh api`.
type Client struct {
	run Runner
}

// NewClient creates a Client that runs the gh binary found on PATH.
func NewClient() *Client {
	return &Client{run: execRunner}
}

// NewClientWithRunner creates a Client with a custom command runner.
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run}
}

// Fetch returns the contents of the file at a github:// URL.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	loc, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	out, err := c.run(ctx, "gh", "api", loc.contentsPath(), "--jq", ".content")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", loc, err)
	}

	// The contents API wraps its base64 payload across lines.
	encoded := strings.Join(strings.Fields(string(out)), "")
	if encoded == "" || encoded == "null" {
		return nil, fmt.Errorf("empty response from GitHub for %s", loc)
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 content of %s: %w", loc, err)
	}
	return content, nil
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("gh CLI is not installed. Please install it from https://cli.github.com/")
		}
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, "not logged in") || strings.Contains(msg, "gh auth login") {
			return nil, fmt.Errorf("gh CLI is not authenticated. Please run 'gh auth login' first")
		}
		if msg != "" {
			return nil, fmt.Errorf("gh command failed: %s", msg)
		}
		return nil, fmt.Errorf("gh command failed: %w", err)
	}
	return stdout.Bytes(), nil
}
