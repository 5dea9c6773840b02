// Package jobfs stores job artifacts as files, one directory per job.
package jobfs

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/bnema/retell/internal/domain"
	"github.com/bnema/retell/internal/port"
)

const (
	manifestFile = "manifest.json"
	clipsDir     = "segments"
	workDir      = "work"
)

var (
	validJobID    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
	validClipName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,127}$`)
)

type manifest struct {
	JobID     string                                  `json:"jobId"`
	CreatedAt time.Time                               `json:"createdAt"`
	Artifacts map[domain.ArtifactKind]domain.Artifact `json:"artifacts"`
	Clips     map[string]domain.Artifact              `json:"clips,omitempty"`
}

type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(dataDir string) (*Store, error) {
	root := filepath.Join(dataDir, "jobs")
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create jobs directory: %w", err)
	}
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// lock serializes manifest updates within one job. Jobs never contend with
// each other.
func (s *Store) lock(jobID string) func() {
	s.mu.Lock()
	l, ok := s.locks[jobID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[jobID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (s *Store) jobDir(jobID string) (string, error) {
	if !validJobID.MatchString(jobID) {
		return "", fmt.Errorf("job %q: %w", jobID, domain.ErrNotFound)
	}
	return filepath.Join(s.root, jobID), nil
}

// existingJobDir resolves the job directory and fails when the job was never
// created.
func (s *Store) existingJobDir(jobID string) (string, error) {
	dir, err := s.jobDir(jobID)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("job %s: %w", jobID, domain.ErrNotFound)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("job %s: not a directory", jobID)
	}
	return dir, nil
}

func (s *Store) Create(ctx context.Context, jobID string, sourceVideo io.Reader, audience domain.RawAudience) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := s.jobDir(jobID)
	if err != nil {
		return err
	}

	if err := os.Mkdir(dir, 0755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("job %s: %w", jobID, domain.ErrJobExists)
		}
		return fmt.Errorf("create job directory: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()
	if err := syncDir(s.root); err != nil {
		return err
	}

	unlock := s.lock(jobID)
	defer unlock()

	m := &manifest{
		JobID:     jobID,
		CreatedAt: time.Now().UTC(),
		Artifacts: make(map[domain.ArtifactKind]domain.Artifact),
	}

	video, err := writeAtomic(filepath.Join(dir, domain.ArtifactSourceVideo.FileName()), sourceVideo)
	if err != nil {
		return fmt.Errorf("write source video: %w", err)
	}
	m.Artifacts[domain.ArtifactSourceVideo] = video.artifact(domain.ArtifactSourceVideo)

	data, err := json.MarshalIndent(audience, "", "  ")
	if err != nil {
		return fmt.Errorf("encode audience: %w", err)
	}
	aud, err := writeAtomicBytes(filepath.Join(dir, domain.ArtifactRawAudience.FileName()), data)
	if err != nil {
		return fmt.Errorf("write audience: %w", err)
	}
	m.Artifacts[domain.ArtifactRawAudience] = aud.artifact(domain.ArtifactRawAudience)

	return s.saveManifest(dir, m)
}

func (s *Store) ReadArtifact(jobID string, kind domain.ArtifactKind) ([]byte, error) {
	path, err := s.ArtifactPath(jobID, kind)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &domain.ArtifactNotFoundError{JobID: jobID, Kind: kind}
		}
		return nil, fmt.Errorf("read %s: %w", kind, err)
	}
	return data, nil
}

func (s *Store) WriteArtifact(jobID string, kind domain.ArtifactKind, data []byte) error {
	dir, err := s.writableDir(jobID, kind)
	if err != nil {
		return err
	}

	unlock := s.lock(jobID)
	defer unlock()

	w, err := writeAtomicBytes(filepath.Join(dir, kind.FileName()), data)
	if err != nil {
		return fmt.Errorf("write %s: %w", kind, err)
	}
	return s.recordArtifact(dir, jobID, kind, w)
}

// ImportArtifact moves a file produced outside the store, typically by the
// media tool inside WorkDir, into place as kind.
func (s *Store) ImportArtifact(jobID string, kind domain.ArtifactKind, srcPath string) error {
	dir, err := s.writableDir(jobID, kind)
	if err != nil {
		return err
	}

	unlock := s.lock(jobID)
	defer unlock()

	w, err := moveAtomic(srcPath, filepath.Join(dir, kind.FileName()))
	if err != nil {
		return fmt.Errorf("import %s: %w", kind, err)
	}
	return s.recordArtifact(dir, jobID, kind, w)
}

func (s *Store) writableDir(jobID string, kind domain.ArtifactKind) (string, error) {
	if kind.FileName() == "" {
		return "", domain.ErrUnknownArtifact
	}
	if kind.Immutable() {
		return "", fmt.Errorf("job %s: %s: %w", jobID, kind, domain.ErrImmutableArtifact)
	}
	return s.existingJobDir(jobID)
}

func (s *Store) ArtifactPath(jobID string, kind domain.ArtifactKind) (string, error) {
	if kind.FileName() == "" {
		return "", domain.ErrUnknownArtifact
	}
	dir, err := s.existingJobDir(jobID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, kind.FileName())
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", &domain.ArtifactNotFoundError{JobID: jobID, Kind: kind}
		}
		return "", err
	}
	return path, nil
}

func (s *Store) Exists(jobID string, kind domain.ArtifactKind) (bool, error) {
	_, err := s.ArtifactPath(jobID, kind)
	if err == nil {
		return true, nil
	}
	var nf *domain.ArtifactNotFoundError
	if errors.As(err, &nf) {
		return false, nil
	}
	return false, err
}

// ListArtifacts returns the artifacts present on disk in production order.
// Digests come from the manifest when it has an entry.
func (s *Store) ListArtifacts(jobID string) ([]domain.Artifact, error) {
	dir, err := s.existingJobDir(jobID)
	if err != nil {
		return nil, err
	}
	m, err := loadManifest(dir)
	if err != nil {
		slog.Warn("jobfs.manifest.unreadable", "job_id", jobID, "error", err)
		m = &manifest{Artifacts: map[domain.ArtifactKind]domain.Artifact{}}
	}

	var out []domain.Artifact
	for _, kind := range domain.ArtifactKinds {
		info, err := os.Stat(filepath.Join(dir, kind.FileName()))
		if err != nil {
			continue
		}
		a, ok := m.Artifacts[kind]
		if !ok || a.Size != info.Size() {
			a = domain.Artifact{Kind: kind, File: kind.FileName(), Size: info.Size(), UpdatedAt: info.ModTime().UTC()}
		}
		out = append(out, a)
	}
	return out, nil
}

// ImportClip stores an auxiliary per-segment video under the job and returns
// its final path.
func (s *Store) ImportClip(jobID, name, srcPath string) (string, error) {
	if !validClipName.MatchString(name) {
		return "", fmt.Errorf("invalid clip name %q", name)
	}
	dir, err := s.existingJobDir(jobID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Join(dir, clipsDir), 0755); err != nil {
		return "", fmt.Errorf("create clips directory: %w", err)
	}

	unlock := s.lock(jobID)
	defer unlock()

	dst := filepath.Join(dir, clipsDir, name)
	w, err := moveAtomic(srcPath, dst)
	if err != nil {
		return "", fmt.Errorf("import clip %s: %w", name, err)
	}

	m, err := loadManifest(dir)
	if err != nil {
		m = &manifest{JobID: jobID, Artifacts: map[domain.ArtifactKind]domain.Artifact{}}
	}
	if m.Clips == nil {
		m.Clips = make(map[string]domain.Artifact)
	}
	a := w.artifact("")
	a.File = filepath.Join(clipsDir, name)
	m.Clips[name] = a
	if err := s.saveManifest(dir, m); err != nil {
		return "", err
	}
	return dst, nil
}

// WorkDir is a scratch directory on the same filesystem as the job, so
// imports are plain renames.
func (s *Store) WorkDir(jobID string) (string, error) {
	dir, err := s.existingJobDir(jobID)
	if err != nil {
		return "", err
	}
	work := filepath.Join(dir, workDir)
	if err := os.MkdirAll(work, 0755); err != nil {
		return "", fmt.Errorf("create work directory: %w", err)
	}
	return work, nil
}

func (s *Store) ListJobs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && validJobID.MatchString(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Verify recomputes digests of every artifact recorded in the manifest and
// returns the kinds whose content no longer matches.
func (s *Store) Verify(jobID string) ([]domain.ArtifactKind, error) {
	dir, err := s.existingJobDir(jobID)
	if err != nil {
		return nil, err
	}
	m, err := loadManifest(dir)
	if err != nil {
		return nil, domain.Malformed(manifestFile, err)
	}

	var mismatched []domain.ArtifactKind
	for _, kind := range domain.ArtifactKinds {
		want, ok := m.Artifacts[kind]
		if !ok {
			continue
		}
		got, err := digestFile(filepath.Join(dir, kind.FileName()))
		if err != nil || got != want.Digest {
			mismatched = append(mismatched, kind)
		}
	}
	return mismatched, nil
}

func (s *Store) recordArtifact(dir, jobID string, kind domain.ArtifactKind, w written) error {
	m, err := loadManifest(dir)
	if err != nil {
		slog.Warn("jobfs.manifest.rebuild", "job_id", jobID, "error", err)
		m = &manifest{JobID: jobID, CreatedAt: time.Now().UTC()}
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[domain.ArtifactKind]domain.Artifact)
	}
	m.Artifacts[kind] = w.artifact(kind)
	return s.saveManifest(dir, m)
}

func (s *Store) saveManifest(dir string, m *manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if _, err := writeAtomicBytes(filepath.Join(dir, manifestFile), data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

func loadManifest(dir string) (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

type written struct {
	file   string
	size   int64
	digest string
}

func (w written) artifact(kind domain.ArtifactKind) domain.Artifact {
	return domain.Artifact{
		Kind:      kind,
		File:      filepath.Base(w.file),
		Size:      w.size,
		Digest:    w.digest,
		UpdatedAt: time.Now().UTC(),
	}
}

func writeAtomicBytes(path string, data []byte) (written, error) {
	return writeAtomic(path, bytes.NewReader(data))
}

// writeAtomic streams r into path through a synced temp file and a rename,
// then syncs the directory so the rename itself survives a crash.
func writeAtomic(path string, r io.Reader) (written, error) {
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return written{}, err
	}

	h, _ := blake2b.New256(nil)
	n, err := io.Copy(io.MultiWriter(f, h), r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		return written{}, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return written{}, err
	}
	if err := syncDir(filepath.Dir(path)); err != nil {
		return written{}, err
	}
	return written{file: path, size: n, digest: hex.EncodeToString(h.Sum(nil))}, nil
}

// moveAtomic renames src over dst when both live on one filesystem and
// falls back to a durable copy otherwise.
func moveAtomic(src, dst string) (written, error) {
	f, err := os.OpenFile(src, os.O_RDWR, 0)
	if err != nil {
		return written{}, err
	}
	h, _ := blake2b.New256(nil)
	n, err := io.Copy(h, f)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return written{}, err
	}

	if err := os.Rename(src, dst); err == nil {
		if err := syncDir(filepath.Dir(dst)); err != nil {
			return written{}, err
		}
		return written{file: dst, size: n, digest: hex.EncodeToString(h.Sum(nil))}, nil
	}

	in, err := os.Open(src)
	if err != nil {
		return written{}, err
	}
	defer in.Close() //nolint:errcheck
	w, err := writeAtomic(dst, in)
	if err != nil {
		return written{}, err
	}
	_ = os.Remove(src)
	return w, nil
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck
	h, _ := blake2b.New256(nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close() //nolint:errcheck
	if err := d.Sync(); err != nil {
		return fmt.Errorf("sync %s: %w", dir, err)
	}
	return nil
}

var _ port.JobStore = (*Store)(nil)
