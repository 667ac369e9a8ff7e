package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dennisaldea/chipseqpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in unique temp directories per test. It
// keeps the default sample space (two groups, two replicates) and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = filepath.Join(base, "results")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Genomes = map[string]config.Genome{
		"mm10": {
			Bowtie2Index: filepath.Join(base, "genomes", "mm10", "mm10"),
			MACS2GSize:   "mm",
		},
	}
	cfgVal.Alignment.Genome = "mm10"
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithSamples overrides the tissue groups and replicate identifiers.
func WithSamples(groups, replicates []string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Samples.Groups = groups
		b.cfg.Samples.Replicates = replicates
	}
}

// WithGenome registers an additional reference genome on the test config.
func WithGenome(name, index, gsize string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Genomes[name] = config.Genome{Bowtie2Index: index, MACS2GSize: gsize}
	}
}

// WithStubbedBinaries writes stub executables for every external tool and
// points the tools section at them by absolute path. The stubs exit zero and
// ignore their arguments.
func WithStubbedBinaries() ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		stub := func(name string) string {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			return target
		}
		b.cfg.Tools.FastQC = stub("fastqc")
		b.cfg.Tools.NGmerge = stub("NGmerge")
		b.cfg.Tools.Bowtie2 = stub("bowtie2")
		b.cfg.Tools.Samtools = stub("samtools")
		b.cfg.Tools.MACS2 = stub("macs2")
		b.cfg.Tools.BamCoverage = stub("bamCoverage")
		b.cfg.Tools.SiteproBW = stub("siteproBW")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RootDir)
}
