// Package git wraps the git CLI for history queries. Only read operations
// are exposed; the pipeline never mutates the repository it analyzes.
package git

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// logFormat emits NUL-delimited commit headers: hash, author date in
// strict ISO-8601, author name, subject. NUL keeps subjects containing
// tabs or pipes parseable.
const logFormat = "%H%x00%aI%x00%an%x00%s"

// FileStat is one --numstat line: insertions and deletions for a path.
// Binary files (git's "-" sentinel) are skipped during parsing.
type FileStat struct {
	Path       string
	Insertions int
	Deletions  int
}

// Commit is one parsed commit with its numeric diff stats.
type Commit struct {
	Hash    string
	Date    time.Time
	Author  string
	Subject string
	Files   []FileStat
}

// Insertions sums insertions across the commit's non-binary files.
func (c *Commit) Insertions() int {
	n := 0
	for _, f := range c.Files {
		n += f.Insertions
	}
	return n
}

// Deletions sums deletions across the commit's non-binary files.
func (c *Commit) Deletions() int {
	n := 0
	for _, f := range c.Files {
		n += f.Deletions
	}
	return n
}

// Git runs git commands against a single repository.
type Git struct {
	gitPath  string
	repoPath string
}

// NewGit creates a Git instance for repoPath, verifying that the git
// binary is available.
func NewGit(ctx context.Context, repoPath string) (*Git, error) {
	gitPath, err := exec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("git not found in PATH: %w", err)
	}
	cmd := exec.CommandContext(ctx, gitPath, "version")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git command failed: %w", err)
	}
	return &Git{gitPath: gitPath, repoPath: repoPath}, nil
}

// Log returns all commits since the given date with per-file numstat data,
// newest first (git log order).
func (g *Git) Log(ctx context.Context, since time.Time) ([]Commit, error) {
	cmd := exec.CommandContext(ctx, g.gitPath, "-C", g.repoPath,
		"log",
		"--since="+since.Format("2006-01-02"),
		"--format="+logFormat,
		"--numstat")
	output, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return nil, fmt.Errorf("git log failed in %s: %s", g.repoPath, strings.TrimSpace(string(ee.Stderr)))
		}
		return nil, fmt.Errorf("git log failed in %s: %w", g.repoPath, err)
	}
	return ParseLog(string(output))
}

// ParseLog parses git log output in the pipeline's NUL-delimited header +
// numstat format. Exposed for tests and for replaying captured logs.
func ParseLog(output string) ([]Commit, error) {
	var commits []Commit
	var current *Commit

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.Contains(line, "\x00") {
			if current != nil {
				commits = append(commits, *current)
			}
			parts := strings.SplitN(line, "\x00", 4)
			if len(parts) < 4 {
				current = nil
				continue
			}
			date, err := time.Parse(time.RFC3339, parts[1])
			if err != nil {
				// Tolerate odd dates rather than dropping the commit.
				date = time.Time{}
			}
			current = &Commit{
				Hash:    parts[0],
				Date:    date,
				Author:  parts[2],
				Subject: parts[3],
			}
			continue
		}
		if current == nil || strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) < 3 {
			continue
		}
		if parts[0] == "-" || parts[1] == "-" {
			continue // binary file, no numeric stats
		}
		ins, err1 := strconv.Atoi(parts[0])
		del, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			continue
		}
		current.Files = append(current.Files, FileStat{Path: parts[2], Insertions: ins, Deletions: del})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to parse git log: %w", err)
	}
	if current != nil {
		commits = append(commits, *current)
	}
	return commits, nil
}
