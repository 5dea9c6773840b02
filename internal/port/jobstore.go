package port

import (
	"context"
	"io"

	"github.com/bnema/retell/internal/domain"
)

// JobStore owns every artifact of every job. Reads of an artifact that has
// not been written fail with *domain.ArtifactNotFoundError.
type JobStore interface {
	Create(ctx context.Context, jobID string, sourceVideo io.Reader, audience domain.RawAudience) error
	ReadArtifact(jobID string, kind domain.ArtifactKind) ([]byte, error)
	WriteArtifact(jobID string, kind domain.ArtifactKind, data []byte) error
	ImportArtifact(jobID string, kind domain.ArtifactKind, srcPath string) error
	ArtifactPath(jobID string, kind domain.ArtifactKind) (string, error)
	Exists(jobID string, kind domain.ArtifactKind) (bool, error)
	ListArtifacts(jobID string) ([]domain.Artifact, error)
	ImportClip(jobID, name, srcPath string) (string, error)
	WorkDir(jobID string) (string, error)
	ListJobs() ([]string, error)
}
