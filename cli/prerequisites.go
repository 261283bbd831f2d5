// Package cli provides utilities for checking the external terminal client
// tools this library depends on.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pexec "github.com/plaunch/plaunch-core/exec"
)

// executor runs version probes. Tests swap in a MockExecutor.
var executor pexec.CommandExecutor = pexec.NewRealExecutor()

// Prerequisite represents an external client tool
type Prerequisite struct {
	Name        string // Command name (e.g., "putty", "plink")
	Required    bool   // Whether the tool is required for launching
	Description string // Human-readable description
	InstallURL  string // URL for installation instructions
}

// DefaultPrerequisites returns the client tools the launcher can use
func DefaultPrerequisites() []Prerequisite {
	return []Prerequisite{
		{
			Name:        "putty",
			Required:    true,
			Description: "PuTTY terminal client",
			InstallURL:  "https://www.chiark.greenend.org.uk/~sgtatham/putty/latest.html",
		},
		{
			Name:        "plink",
			Required:    false, // Only needed for command-line sessions
			Description: "PuTTY command-line connection tool (optional)",
			InstallURL:  "https://www.chiark.greenend.org.uk/~sgtatham/putty/latest.html",
		},
		{
			Name:        "pscp",
			Required:    false, // Only needed for file transfer
			Description: "PuTTY secure copy client (optional)",
			InstallURL:  "https://www.chiark.greenend.org.uk/~sgtatham/putty/latest.html",
		},
	}
}

// CheckResult contains the result of checking a prerequisite
type CheckResult struct {
	Prerequisite Prerequisite
	Found        bool
	Path         string // Path to the executable if found
	Version      string // Version string if available
	Error        error
}

// Check verifies that a client tool is available in PATH
func Check(prereq Prerequisite) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path, err := exec.LookPath(prereq.Name)
	if err != nil {
		result.Error = fmt.Errorf("%s not found in PATH", prereq.Name)
		return result
	}

	result.Found = true
	result.Path = path

	// Try to get version
	version := getVersion(path)
	if version != "" {
		result.Version = version
	}

	return result
}

// CheckConfigured verifies a tool at an explicit path instead of searching
// PATH. Used for the executable location stored in the app settings.
func CheckConfigured(prereq Prerequisite, path string) CheckResult {
	result := CheckResult{Prerequisite: prereq}

	path = strings.TrimSpace(path)
	if path == "" {
		result.Error = fmt.Errorf("%s path is not configured", prereq.Name)
		return result
	}

	info, err := os.Stat(path)
	if err != nil {
		result.Error = fmt.Errorf("%s not found at %s", prereq.Name, path)
		return result
	}
	if info.IsDir() {
		result.Error = fmt.Errorf("%s path %s is a directory", prereq.Name, path)
		return result
	}

	result.Found = true
	result.Path = path

	version := getVersion(path)
	if version != "" {
		result.Version = version
	}

	return result
}

// CheckAll verifies all prerequisites and returns results
func CheckAll(prereqs []Prerequisite) []CheckResult {
	results := make([]CheckResult, len(prereqs))
	for i, prereq := range prereqs {
		results[i] = Check(prereq)
	}
	return results
}

// ValidateRequired checks that all required prerequisites are met
// Returns nil if all required tools are found, otherwise returns an error
// describing what's missing
func ValidateRequired(prereqs []Prerequisite) error {
	var missing []string

	for _, prereq := range prereqs {
		if !prereq.Required {
			continue
		}
		result := Check(prereq)
		if !result.Found {
			missing = append(missing, fmt.Sprintf("  - %s (%s)\n    Install: %s",
				prereq.Name, prereq.Description, prereq.InstallURL))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required client tools:\n%s", strings.Join(missing, "\n"))
	}

	return nil
}

// getVersion attempts to get the version of a client tool
func getVersion(path string) string {
	// PuTTY tools use -V; fall back to the common flags
	versionFlags := []string{"-V", "--version", "-v"}

	for _, flag := range versionFlags {
		output, err := executor.Output(context.Background(), path, flag)
		if err == nil {
			// Return first line of output, trimmed
			lines := strings.Split(string(output), "\n")
			if len(lines) > 0 {
				version := strings.TrimSpace(lines[0])
				// Limit length to avoid overly long version strings
				if len(version) > 100 {
					version = version[:100] + "..."
				}
				return version
			}
		}
	}

	return ""
}

// FormatCheckResults formats check results for display
func FormatCheckResults(results []CheckResult) string {
	var sb strings.Builder

	sb.WriteString("Client tools:\n")
	for _, r := range results {
		status := "✓"
		if !r.Found {
			if r.Prerequisite.Required {
				status = "✗"
			} else {
				status = "○"
			}
		}

		sb.WriteString(fmt.Sprintf("  %s %s", status, r.Prerequisite.Name))
		if r.Found && r.Version != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Version))
		} else if !r.Found {
			if r.Prerequisite.Required {
				sb.WriteString(" [REQUIRED]")
			} else {
				sb.WriteString(" [optional]")
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
