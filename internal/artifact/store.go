package artifact

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nssuwan186-dev/fullstack-platform/internal/platform/logger"
)

const (
	// NamePrefix starts every generated artifact name.
	NamePrefix = "secure"
	// Extension is the suffix of generated spreadsheet artifacts.
	Extension = ".xlsx"
	// SuffixBytes random bytes give an 8 character hex suffix.
	SuffixBytes = 4

	stagingDir = ".staging"
)

var (
	// ErrNotFound is returned when a requested artifact does not exist.
	ErrNotFound = errors.New("artifact not found")
	// ErrInvalidName is returned when a name cannot be written under the root.
	ErrInvalidName = errors.New("invalid artifact name")
)

// Store is a directory of materialized artifacts.
type Store struct {
	root    string
	staging string
	logger  *slog.Logger
}

// NewStore creates the root directory (and its staging area) if absent.
func NewStore(root string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact root %q: %w", root, err)
	}

	staging := filepath.Join(abs, stagingDir)
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}

	return &Store{
		root:    abs,
		staging: staging,
		logger:  logger.With(slog.String("component", "artifact_store")),
	}, nil
}

// Root returns the absolute root directory.
func (s *Store) Root() string { return s.root }

// NewName returns a fresh artifact name of the form
// secure_<identity>_<8 hex chars>.xlsx. Characters of identity outside
// [A-Za-z0-9.-] are replaced so the name is always a single safe path element.
func NewName(identity string) (string, error) {
	suffix := make([]byte, SuffixBytes)
	if _, err := io.ReadFull(rand.Reader, suffix); err != nil {
		return "", fmt.Errorf("failed to generate artifact suffix: %w", err)
	}
	return fmt.Sprintf("%s_%s_%s%s", NamePrefix, sanitizeIdentity(identity), hex.EncodeToString(suffix), Extension), nil
}

func sanitizeIdentity(identity string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '-'
		}
	}, identity)
	cleaned = strings.Trim(cleaned, ".")
	if cleaned == "" {
		return "anonymous"
	}
	return cleaned
}

// Write materializes name by calling fill with a staging file, then renaming
// the finished file into place. A failed fill leaves nothing visible.
func (s *Store) Write(ctx context.Context, name string, fill func(w io.Writer) error) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	target, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.staging, "write-*")
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to render artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to flush artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("failed to publish artifact: %w", err)
	}
	committed = true

	log.Info("artifact written", slog.String("artifact", name))
	return nil
}

// Open returns the artifact stored at name. Nested paths are allowed; paths
// that escape the root, point into the staging area or name a directory
// report ErrNotFound.
func (s *Store) Open(name string) (*os.File, fs.FileInfo, error) {
	target, err := s.resolve(name)
	if err != nil {
		return nil, nil, ErrNotFound
	}

	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to open artifact: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, fmt.Errorf("failed to stat artifact: %w", err)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, nil, ErrNotFound
	}

	return f, info, nil
}

// Exists reports whether name has been materialized.
func (s *Store) Exists(name string) bool {
	f, _, err := s.Open(name)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}

// resolve maps a slash-separated relative name to an absolute path under root.
func (s *Store) resolve(name string) (string, error) {
	if name == "" || strings.ContainsRune(name, 0) || strings.Contains(name, "\\") {
		return "", ErrInvalidName
	}
	if path.IsAbs(name) {
		return "", ErrInvalidName
	}

	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidName
	}
	first, _, _ := strings.Cut(cleaned, "/")
	if first == stagingDir {
		return "", ErrInvalidName
	}

	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}
