// Package layout resolves sample coordinates to deterministic filesystem
// paths and back.
//
// Every artifact the pipeline touches lives at a path that is a pure function
// of (group, replicate-or-merged, artifact, role): root/group/replicate/ for
// replicate artifacts, root/group/ for merged aggregates, with filenames built
// from a stem (colon_1, colon_merged), an optional role token (R1/R2 for
// paired reads, 1k/4k for centering spans), and a dot-joined suffix chain that
// records provenance (raw.fastq.gz, raw.trim.fastq.gz, align.bam, cov.bw,
// peaks.narrowPeak). Distinct coordinates resolve to disjoint path sets, which
// is what makes unsynchronized parallel stage execution safe.
//
// Parse inverts the scheme so status reporting and cleanup can recover the
// coordinate behind any canonical path. The resolver never probes the
// filesystem; existence checks belong to the stages that consume the paths.
package layout
