package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/dennisaldea/chipseqpipe/internal/config"
)

// Requirement defines an external tool the pipeline invokes.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a required tool.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// Result converts a tool status into the common check result shape.
func (s Status) Result() Result {
	detail := s.Detail
	if detail == "" {
		detail = s.Command
	}
	return Result{Name: s.Name, Passed: s.Available, Detail: detail}
}

// ToolRequirements lists every binary the stages invoke, with the configured
// command for each.
func ToolRequirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "FastQC", Command: cfg.Tools.FastQC, Description: "read quality reports"},
		{Name: "NGmerge", Command: cfg.Tools.NGmerge, Description: "adapter removal"},
		{Name: "Bowtie2", Command: cfg.Tools.Bowtie2, Description: "read alignment"},
		{Name: "Samtools", Command: cfg.Tools.Samtools, Description: "BAM conversion, sorting, indexing, merging"},
		{Name: "MACS2", Command: cfg.Tools.MACS2, Description: "peak calling"},
		{Name: "bamCoverage", Command: cfg.Tools.BamCoverage, Description: "coverage tracks"},
		{Name: "siteproBW", Command: cfg.Tools.SiteproBW, Description: "profile plots"},
	}
}

// CheckBinaries evaluates the provided requirements against PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable,
// writable, and traversable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace verifies the filesystem holding path has at least minFreeGiB
// available. A zero minimum always passes.
func CheckDiskSpace(name, path string, minFreeGiB int) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s free on %s", humanize.IBytes(free), path)
	if minFreeGiB <= 0 {
		return Result{Name: name, Passed: true, Detail: detail}
	}
	required := uint64(minFreeGiB) << 30
	if free < required {
		return Result{Name: name, Detail: fmt.Sprintf("%s (below the %d GiB minimum)", detail, minFreeGiB)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckGenomeIndex verifies a Bowtie2 index exists for the prefix, accepting
// either the small (.bt2) or large (.bt2l) index flavor.
func CheckGenomeIndex(name, indexPrefix string) Result {
	prefix := strings.TrimSpace(indexPrefix)
	if prefix == "" {
		return Result{Name: name, Detail: "bowtie2_index not configured"}
	}
	for _, ext := range []string{".1.bt2", ".1.bt2l"} {
		if _, err := os.Stat(prefix + ext); err == nil {
			return Result{Name: name, Passed: true, Detail: prefix}
		}
	}
	return Result{Name: name, Detail: fmt.Sprintf("no index found at %s (.1.bt2/.1.bt2l missing)", prefix)}
}
