package config

import (
	"errors"
	"fmt"
	"strings"
)

// reservedTokens are stem tokens the naming convention claims for itself.
// A group or replicate carrying one of these would make artifact paths
// ambiguous to parse back.
var reservedTokens = map[string]struct{}{
	"merged": {},
	"R1":     {},
	"R2":     {},
	"1k":     {},
	"4k":     {},
}

var alignmentPresets = map[string]struct{}{
	"fast":           {},
	"sensitive":      {},
	"very-sensitive": {},
}

var coverageNormalizations = map[string]struct{}{
	"RPKM": {},
	"CPM":  {},
	"BPM":  {},
	"RPGC": {},
	"None": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSamples(); err != nil {
		return err
	}
	if err := c.validateGenomes(); err != nil {
		return err
	}
	if err := c.validateAlignment(); err != nil {
		return err
	}
	if err := c.validateCoverage(); err != nil {
		return err
	}
	if err := c.validatePeaks(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateSamples() error {
	if len(c.Samples.Groups) == 0 {
		return errors.New("samples.groups must list at least one group")
	}
	if len(c.Samples.Replicates) == 0 {
		return errors.New("samples.replicates must list at least one replicate")
	}
	for _, group := range c.Samples.Groups {
		if err := validateIdentifier("samples.groups", group); err != nil {
			return err
		}
	}
	for _, rep := range c.Samples.Replicates {
		if err := validateIdentifier("samples.replicates", rep); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateGenomes() error {
	if len(c.Genomes) == 0 {
		return errors.New("genomes must define at least one reference")
	}
	for name, genome := range c.Genomes {
		if err := validateIdentifier("genomes", name); err != nil {
			return err
		}
		if strings.TrimSpace(genome.Bowtie2Index) == "" {
			return fmt.Errorf("genomes.%s.bowtie2_index must be set", name)
		}
		if strings.TrimSpace(genome.MACS2GSize) == "" {
			return fmt.Errorf("genomes.%s.macs2_gsize must be set", name)
		}
	}
	return nil
}

func (c *Config) validateAlignment() error {
	if _, ok := c.Genomes[c.Alignment.Genome]; !ok {
		return fmt.Errorf("alignment.genome %q is not in the configured genome set (known: %s)",
			c.Alignment.Genome, strings.Join(c.GenomeNames(), ", "))
	}
	if _, ok := alignmentPresets[c.Alignment.Preset]; !ok {
		return fmt.Errorf("alignment.preset %q is not supported (use fast, sensitive, or very-sensitive)", c.Alignment.Preset)
	}
	return ensurePositiveMap(map[string]int{
		"alignment.threads": c.Alignment.Threads,
		"samtools.threads":  c.Samtools.Threads,
	})
}

func (c *Config) validateCoverage() error {
	if _, ok := coverageNormalizations[c.Coverage.Normalize]; !ok {
		return fmt.Errorf("coverage.normalize %q is not supported (use RPKM, CPM, BPM, RPGC, or None)", c.Coverage.Normalize)
	}
	return ensurePositiveMap(map[string]int{
		"coverage.bin_size":   c.Coverage.BinSize,
		"coverage.processors": c.Coverage.Processors,
	})
}

func (c *Config) validatePeaks() error {
	if c.Peaks.QValue <= 0 || c.Peaks.QValue >= 1 {
		return errors.New("peaks.qvalue must be between 0 and 1 exclusive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxParallel < 0 {
		return errors.New("workflow.max_parallel must be >= 0 (0 means unlimited)")
	}
	if c.Workflow.MinFreeGiB < 0 {
		return errors.New("workflow.min_free_gib must be >= 0 (0 disables the check)")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func validateIdentifier(section, value string) error {
	if value == "" {
		return fmt.Errorf("%s entries must not be empty", section)
	}
	if _, reserved := reservedTokens[value]; reserved {
		return fmt.Errorf("%s entry %q collides with a reserved naming token", section, value)
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-':
		default:
			return fmt.Errorf("%s entry %q contains %q; identifiers are limited to letters, digits, and hyphens", section, value, string(r))
		}
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
