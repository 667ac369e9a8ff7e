package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	RootDir string `toml:"root_dir"`
	LogDir  string `toml:"log_dir"`
}

// Samples enumerates the tissue groups and replicate identifiers the pipeline
// processes. Every stage derives its task set from these two lists.
type Samples struct {
	Groups     []string `toml:"groups"`
	Replicates []string `toml:"replicates"`
}

// Genome describes one selectable reference genome.
type Genome struct {
	Bowtie2Index string `toml:"bowtie2_index"`
	MACS2GSize   string `toml:"macs2_gsize"`
}

// Alignment contains Bowtie2 invocation settings.
type Alignment struct {
	Genome  string `toml:"genome"`
	Preset  string `toml:"preset"`
	Threads int    `toml:"threads"`
	KeepSAM bool   `toml:"keep_sam"`
}

// Samtools contains settings shared by the samtools subcommands.
type Samtools struct {
	Threads int `toml:"threads"`
}

// Coverage contains bamCoverage invocation settings.
type Coverage struct {
	BinSize    int    `toml:"bin_size"`
	Normalize  string `toml:"normalize"`
	Processors int    `toml:"processors"`
}

// Peaks contains MACS2 callpeak settings.
type Peaks struct {
	QValue float64 `toml:"qvalue"`
}

// Tools maps each external tool to its binary name or path.
type Tools struct {
	FastQC      string `toml:"fastqc"`
	NGmerge     string `toml:"ngmerge"`
	Bowtie2     string `toml:"bowtie2"`
	Samtools    string `toml:"samtools"`
	MACS2       string `toml:"macs2"`
	BamCoverage string `toml:"bamcoverage"`
	SiteproBW   string `toml:"sitepro"`
}

// Workflow contains scheduler behavior settings.
type Workflow struct {
	FailFast    bool `toml:"fail_fast"`
	MaxParallel int  `toml:"max_parallel"`
	MinFreeGiB  int  `toml:"min_free_gib"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for the pipeline.
//
// Configuration sections by subsystem:
//   - Paths: data tree root and log directory
//   - Samples: tissue groups and replicate identifiers
//   - Genomes: selectable reference genomes (Bowtie2 index, MACS2 gsize)
//   - Alignment: Bowtie2 preset, thread count, SAM retention
//   - Samtools: thread count for view/sort/index/merge
//   - Coverage: bamCoverage bin size, normalization, processors
//   - Peaks: MACS2 callpeak q-value cutoff
//   - Tools: binary names or paths for every external tool
//   - Workflow: fail-fast, scheduler parallelism cap, disk floor
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths             `toml:"paths"`
	Samples       Samples           `toml:"samples"`
	Genomes       map[string]Genome `toml:"genomes"`
	Alignment     Alignment         `toml:"alignment"`
	Samtools      Samtools          `toml:"samtools"`
	Coverage      Coverage          `toml:"coverage"`
	Peaks         Peaks             `toml:"peaks"`
	Tools         Tools             `toml:"tools"`
	Workflow      Workflow          `toml:"workflow"`
	Notifications Notifications     `toml:"notifications"`
	Logging       Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/chipseqpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/chipseqpipe/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("chipseqpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline needs before any
// stage runs. Per-sample directories are created lazily by the executor.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RootDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SelectedGenome resolves the configured genome name to its reference entry.
func (c *Config) SelectedGenome() (Genome, error) {
	return c.GenomeByName(c.Alignment.Genome)
}

// GenomeByName resolves a genome name against the configured enumeration.
func (c *Config) GenomeByName(name string) (Genome, error) {
	name = strings.TrimSpace(name)
	genome, ok := c.Genomes[name]
	if !ok {
		return Genome{}, fmt.Errorf("genome %q is not configured (known: %s)", name, strings.Join(c.GenomeNames(), ", "))
	}
	return genome, nil
}

// GenomeNames returns the configured genome names in sorted order.
func (c *Config) GenomeNames() []string {
	names := make([]string, 0, len(c.Genomes))
	for name := range c.Genomes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
