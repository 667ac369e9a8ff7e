package layout

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// Parsed is the result of inverting a canonical artifact path.
type Parsed struct {
	Coordinate Coordinate
	Artifact   Artifact
	Role       Role
}

// Parse inverts Path: given a location under the layout root it recovers the
// coordinate, artifact, and role that produced it. Paths outside the root,
// stage logs, and filenames that do not follow the stem+suffix-chain scheme
// are rejected.
func (l *Layout) Parse(path string) (Parsed, error) {
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Parsed{}, fmt.Errorf("%w: path %q is not under root %q", services.ErrValidation, path, l.root)
	}

	parts := strings.Split(rel, string(filepath.Separator))
	var dirGroup, dirReplicate, name string
	switch len(parts) {
	case 2:
		dirGroup, name = parts[0], parts[1]
	case 3:
		dirGroup, dirReplicate, name = parts[0], parts[1], parts[2]
	default:
		return Parsed{}, fmt.Errorf("%w: path %q does not match root/group[/replicate]/file", services.ErrValidation, path)
	}

	base, chain, found := strings.Cut(name, ".")
	if !found {
		return Parsed{}, fmt.Errorf("%w: filename %q has no suffix chain", services.ErrValidation, name)
	}
	artifact, ok := artifactsBySuffix[chain]
	if !ok {
		return Parsed{}, fmt.Errorf("%w: suffix chain %q does not name a pipeline artifact", services.ErrValidation, chain)
	}
	def := artifactDefinitions[artifact]

	segments := strings.Split(base, "_")
	var role Role
	switch len(segments) {
	case 2:
	case 3:
		role = Role(segments[2])
	default:
		return Parsed{}, fmt.Errorf("%w: stem %q does not match group_replicate[_role]", services.ErrValidation, base)
	}
	coord := Coordinate{Group: segments[0]}
	if segments[1] != MergedToken {
		coord.Replicate = segments[1]
	}

	if err := l.Contains(coord); err != nil {
		return Parsed{}, err
	}
	if def.replicateOnly && coord.IsMerged() {
		return Parsed{}, fmt.Errorf("%w: artifact %q exists only for replicates, not %s", services.ErrValidation, artifact, coord)
	}
	if err := checkRole(artifact, def, role); err != nil {
		return Parsed{}, err
	}

	// The directory must agree with the stem.
	if coord.Group != dirGroup {
		return Parsed{}, fmt.Errorf("%w: stem group %q sits in directory %q", services.ErrValidation, coord.Group, dirGroup)
	}
	if coord.IsMerged() {
		if dirReplicate != "" {
			return Parsed{}, fmt.Errorf("%w: merged artifact %q must sit directly in the group directory", services.ErrValidation, name)
		}
	} else if dirReplicate != coord.Replicate {
		return Parsed{}, fmt.Errorf("%w: stem replicate %q sits in directory %q", services.ErrValidation, coord.Replicate, dirReplicate)
	}

	return Parsed{Coordinate: coord, Artifact: artifact, Role: role}, nil
}
