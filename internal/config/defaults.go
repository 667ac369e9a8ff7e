package config

const (
	defaultRootDir          = "~/chipseq/data"
	defaultLogDir           = "~/.local/share/chipseqpipe/logs"
	defaultGenome           = "mm10"
	defaultAlignmentPreset  = "very-sensitive"
	defaultAlignmentThreads = 8
	defaultSamtoolsThreads  = 4
	defaultCoverageBinSize  = 10
	defaultCoverageNorm     = "RPKM"
	defaultCoverageProcs    = 4
	defaultPeaksQValue      = 0.05
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
	defaultNotifyTimeout    = 10
	defaultMinFreeGiB       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RootDir: defaultRootDir,
			LogDir:  defaultLogDir,
		},
		Samples: Samples{
			Groups:     []string{"colon", "crypt"},
			Replicates: []string{"1", "2"},
		},
		Genomes: map[string]Genome{
			"mm10": {
				Bowtie2Index: "~/genomes/mm10/mm10",
				MACS2GSize:   "mm",
			},
			"hg38": {
				Bowtie2Index: "~/genomes/hg38/hg38",
				MACS2GSize:   "hs",
			},
		},
		Alignment: Alignment{
			Genome:  defaultGenome,
			Preset:  defaultAlignmentPreset,
			Threads: defaultAlignmentThreads,
		},
		Samtools: Samtools{
			Threads: defaultSamtoolsThreads,
		},
		Coverage: Coverage{
			BinSize:    defaultCoverageBinSize,
			Normalize:  defaultCoverageNorm,
			Processors: defaultCoverageProcs,
		},
		Peaks: Peaks{
			QValue: defaultPeaksQValue,
		},
		Tools: Tools{
			FastQC:      "fastqc",
			NGmerge:     "NGmerge",
			Bowtie2:     "bowtie2",
			Samtools:    "samtools",
			MACS2:       "macs2",
			BamCoverage: "bamCoverage",
			SiteproBW:   "siteproBW",
		},
		Workflow: Workflow{
			MinFreeGiB: defaultMinFreeGiB,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
