package layout

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// MergedToken is the reserved replicate slot in filenames for group-level
// aggregates. Configuration validation keeps it out of the identifier space.
const MergedToken = "merged"

// Coordinate identifies one sample: a group plus an optional replicate. An
// empty Replicate denotes the group-level merged aggregate.
type Coordinate struct {
	Group     string
	Replicate string
}

// Merged returns the aggregate coordinate for a group.
func Merged(group string) Coordinate {
	return Coordinate{Group: group}
}

// IsMerged reports whether the coordinate denotes a group-level aggregate.
func (c Coordinate) IsMerged() bool {
	return c.Replicate == ""
}

// Stem is the filename prefix shared by every artifact of this coordinate.
func (c Coordinate) Stem() string {
	if c.IsMerged() {
		return c.Group + "_" + MergedToken
	}
	return c.Group + "_" + c.Replicate
}

// String renders the coordinate for logs and error messages.
func (c Coordinate) String() string {
	if c.IsMerged() {
		return c.Group + "/" + MergedToken
	}
	return c.Group + "/" + c.Replicate
}

// Role distinguishes sibling artifacts of a single stage: paired-end read
// direction for FASTQ files, window span for centered BEDs and plots.
type Role string

const (
	RoleNone   Role = ""
	RoleRead1  Role = "R1"
	RoleRead2  Role = "R2"
	RoleSpan1k Role = "1k"
	RoleSpan4k Role = "4k"
)

// ReadRoles lists the paired-end read roles in canonical order.
func ReadRoles() []Role {
	return []Role{RoleRead1, RoleRead2}
}

// SpanRoles lists the centering window roles in canonical order.
func SpanRoles() []Role {
	return []Role{RoleSpan1k, RoleSpan4k}
}

// SpanWidth returns the window width in base pairs for a span role.
func SpanWidth(role Role) (int, error) {
	switch role {
	case RoleSpan1k:
		return 1000, nil
	case RoleSpan4k:
		return 4000, nil
	default:
		return 0, fmt.Errorf("%w: role %q is not a span role", services.ErrValidation, role)
	}
}

// Artifact names one file kind the pipeline produces or consumes.
type Artifact string

const (
	ArtifactRawReads     Artifact = "raw-reads"
	ArtifactTrimmedReads Artifact = "trimmed-reads"
	ArtifactSAM          Artifact = "alignment-sam"
	ArtifactBAM          Artifact = "alignment-bam"
	ArtifactBAMIndex     Artifact = "alignment-index"
	ArtifactCoverage     Artifact = "coverage-track"
	ArtifactPeaks        Artifact = "peaks"
	ArtifactSummits      Artifact = "peak-summits"
	ArtifactCenteredBED  Artifact = "centered-bed"
	ArtifactProfilePlot  Artifact = "profile-plot"
)

// definition pins an artifact's suffix chain and the roles it accepts.
// Suffix chains accumulate while data stays in one representation (raw ->
// raw.trim) and reset when a stage re-represents it (align, cov, peaks).
type definition struct {
	suffix        string
	roles         []Role
	replicateOnly bool
}

var artifactDefinitions = map[Artifact]definition{
	ArtifactRawReads:     {suffix: "raw.fastq.gz", roles: []Role{RoleRead1, RoleRead2}, replicateOnly: true},
	ArtifactTrimmedReads: {suffix: "raw.trim.fastq.gz", roles: []Role{RoleRead1, RoleRead2}, replicateOnly: true},
	ArtifactSAM:          {suffix: "align.sam", replicateOnly: true},
	ArtifactBAM:          {suffix: "align.bam"},
	ArtifactBAMIndex:     {suffix: "align.bam.bai"},
	ArtifactCoverage:     {suffix: "cov.bw"},
	ArtifactPeaks:        {suffix: "peaks.narrowPeak"},
	ArtifactSummits:      {suffix: "peaks.summits.bed"},
	ArtifactCenteredBED:  {suffix: "peaks.centered.bed", roles: []Role{RoleSpan1k, RoleSpan4k}},
	ArtifactProfilePlot:  {suffix: "peaks.centered.profile.png", roles: []Role{RoleSpan1k, RoleSpan4k}},
}

var artifactsBySuffix = func() map[string]Artifact {
	out := make(map[string]Artifact, len(artifactDefinitions))
	for artifact, def := range artifactDefinitions {
		out[def.suffix] = artifact
	}
	return out
}()

// Roles lists the roles an artifact accepts; empty means the artifact has no
// role slot.
func (a Artifact) Roles() []Role {
	def, ok := artifactDefinitions[a]
	if !ok {
		return nil
	}
	return append([]Role(nil), def.roles...)
}

// Layout derives every pipeline path from the configured root and sample
// enumerations. Resolution is pure: no filesystem probing, no hidden state.
type Layout struct {
	root       string
	groups     []string
	replicates []string
	groupSet   map[string]struct{}
	repSet     map[string]struct{}
}

// New builds a Layout from validated configuration.
func New(cfg *config.Config) (*Layout, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: layout requires configuration", services.ErrConfiguration)
	}
	root := strings.TrimSpace(cfg.Paths.RootDir)
	if root == "" {
		return nil, fmt.Errorf("%w: paths.root_dir must be set", services.ErrConfiguration)
	}
	if len(cfg.Samples.Groups) == 0 || len(cfg.Samples.Replicates) == 0 {
		return nil, fmt.Errorf("%w: samples.groups and samples.replicates must be non-empty", services.ErrConfiguration)
	}
	l := &Layout{
		root:       root,
		groups:     append([]string(nil), cfg.Samples.Groups...),
		replicates: append([]string(nil), cfg.Samples.Replicates...),
		groupSet:   make(map[string]struct{}, len(cfg.Samples.Groups)),
		repSet:     make(map[string]struct{}, len(cfg.Samples.Replicates)),
	}
	for _, group := range l.groups {
		l.groupSet[group] = struct{}{}
	}
	for _, rep := range l.replicates {
		l.repSet[rep] = struct{}{}
	}
	return l, nil
}

// Root returns the storage root every path resolves under.
func (l *Layout) Root() string {
	return l.root
}

// Groups returns the configured group identifiers in configuration order.
func (l *Layout) Groups() []string {
	return append([]string(nil), l.groups...)
}

// ReplicateCoordinates enumerates every group x replicate coordinate in
// configuration order.
func (l *Layout) ReplicateCoordinates() []Coordinate {
	out := make([]Coordinate, 0, len(l.groups)*len(l.replicates))
	for _, group := range l.groups {
		for _, rep := range l.replicates {
			out = append(out, Coordinate{Group: group, Replicate: rep})
		}
	}
	return out
}

// MergedCoordinates enumerates the group-level aggregate coordinates.
func (l *Layout) MergedCoordinates() []Coordinate {
	out := make([]Coordinate, 0, len(l.groups))
	for _, group := range l.groups {
		out = append(out, Merged(group))
	}
	return out
}

// AllCoordinates enumerates replicate coordinates followed by merged ones.
func (l *Layout) AllCoordinates() []Coordinate {
	return append(l.ReplicateCoordinates(), l.MergedCoordinates()...)
}

// GroupReplicates enumerates the replicate coordinates of one group.
func (l *Layout) GroupReplicates(group string) ([]Coordinate, error) {
	if _, ok := l.groupSet[group]; !ok {
		return nil, fmt.Errorf("%w: group %q is not configured", services.ErrValidation, group)
	}
	out := make([]Coordinate, 0, len(l.replicates))
	for _, rep := range l.replicates {
		out = append(out, Coordinate{Group: group, Replicate: rep})
	}
	return out, nil
}

// Contains validates that a coordinate lies in the configured sample space.
func (l *Layout) Contains(coord Coordinate) error {
	if _, ok := l.groupSet[coord.Group]; !ok {
		return fmt.Errorf("%w: group %q is not configured", services.ErrValidation, coord.Group)
	}
	if coord.IsMerged() {
		return nil
	}
	if _, ok := l.repSet[coord.Replicate]; !ok {
		return fmt.Errorf("%w: replicate %q is not configured", services.ErrValidation, coord.Replicate)
	}
	return nil
}

// Dir returns the directory that holds a coordinate's artifacts:
// root/group for merged aggregates, root/group/replicate otherwise.
func (l *Layout) Dir(coord Coordinate) (string, error) {
	if err := l.Contains(coord); err != nil {
		return "", err
	}
	if coord.IsMerged() {
		return filepath.Join(l.root, coord.Group), nil
	}
	return filepath.Join(l.root, coord.Group, coord.Replicate), nil
}

// Path resolves (coordinate, artifact, role) to its canonical location.
func (l *Layout) Path(coord Coordinate, artifact Artifact, role Role) (string, error) {
	dir, err := l.Dir(coord)
	if err != nil {
		return "", err
	}
	def, ok := artifactDefinitions[artifact]
	if !ok {
		return "", fmt.Errorf("%w: unknown artifact %q", services.ErrValidation, artifact)
	}
	if def.replicateOnly && coord.IsMerged() {
		return "", fmt.Errorf("%w: artifact %q exists only for replicates, not %s", services.ErrValidation, artifact, coord)
	}
	if err := checkRole(artifact, def, role); err != nil {
		return "", err
	}
	base := coord.Stem()
	if role != RoleNone {
		base += "_" + string(role)
	}
	return filepath.Join(dir, base+"."+def.suffix), nil
}

// LogPath returns the combined stdout+stderr log for one stage execution of
// a coordinate. The file sits next to the artifacts it describes.
func (l *Layout) LogPath(coord Coordinate, stage string) (string, error) {
	dir, err := l.Dir(coord)
	if err != nil {
		return "", err
	}
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return "", fmt.Errorf("%w: log path requires a stage name", services.ErrValidation)
	}
	return filepath.Join(dir, coord.Stem()+"."+stage+".log"), nil
}

func checkRole(artifact Artifact, def definition, role Role) error {
	if len(def.roles) == 0 {
		if role != RoleNone {
			return fmt.Errorf("%w: artifact %q takes no role, got %q", services.ErrValidation, artifact, role)
		}
		return nil
	}
	for _, allowed := range def.roles {
		if role == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: artifact %q requires a role in %v, got %q", services.ErrValidation, artifact, def.roles, role)
}
