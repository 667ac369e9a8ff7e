package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSamples()
	if err := c.normalizeGenomes(); err != nil {
		return err
	}
	c.normalizeAlignment()
	c.normalizeTools()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		c.Paths.RootDir = defaultRootDir
	}
	if c.Paths.RootDir, err = expandPath(c.Paths.RootDir); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSamples() {
	c.Samples.Groups = trimmedUnique(c.Samples.Groups)
	c.Samples.Replicates = trimmedUnique(c.Samples.Replicates)
}

func (c *Config) normalizeGenomes() error {
	if len(c.Genomes) == 0 {
		c.Genomes = Default().Genomes
	}
	for name, genome := range c.Genomes {
		expanded, err := expandPath(genome.Bowtie2Index)
		if err != nil {
			return fmt.Errorf("genomes.%s.bowtie2_index: %w", name, err)
		}
		genome.Bowtie2Index = expanded
		genome.MACS2GSize = strings.TrimSpace(genome.MACS2GSize)
		c.Genomes[name] = genome
	}
	return nil
}

func (c *Config) normalizeAlignment() {
	c.Alignment.Genome = strings.TrimSpace(c.Alignment.Genome)
	if c.Alignment.Genome == "" {
		c.Alignment.Genome = defaultGenome
	}
	c.Alignment.Preset = strings.ToLower(strings.TrimSpace(c.Alignment.Preset))
	if c.Alignment.Preset == "" {
		c.Alignment.Preset = defaultAlignmentPreset
	}
	if c.Alignment.Threads <= 0 {
		c.Alignment.Threads = defaultAlignmentThreads
	}
	if c.Samtools.Threads <= 0 {
		c.Samtools.Threads = defaultSamtoolsThreads
	}
	if c.Coverage.BinSize <= 0 {
		c.Coverage.BinSize = defaultCoverageBinSize
	}
	c.Coverage.Normalize = strings.TrimSpace(c.Coverage.Normalize)
	if c.Coverage.Normalize == "" {
		c.Coverage.Normalize = defaultCoverageNorm
	}
	if c.Coverage.Processors <= 0 {
		c.Coverage.Processors = defaultCoverageProcs
	}
	if c.Peaks.QValue <= 0 {
		c.Peaks.QValue = defaultPeaksQValue
	}
}

func (c *Config) normalizeTools() {
	defaults := Default().Tools
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Tools.FastQC, defaults.FastQC)
	fill(&c.Tools.NGmerge, defaults.NGmerge)
	fill(&c.Tools.Bowtie2, defaults.Bowtie2)
	fill(&c.Tools.Samtools, defaults.Samtools)
	fill(&c.Tools.MACS2, defaults.MACS2)
	fill(&c.Tools.BamCoverage, defaults.BamCoverage)
	fill(&c.Tools.SiteproBW, defaults.SiteproBW)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimmedUnique(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
