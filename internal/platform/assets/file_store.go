package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/phrazzld/videosnap/internal/store"
	"github.com/spf13/afero"
)

// ErrAssetNotFound is returned when no blob exists under a name.
var ErrAssetNotFound = store.ErrAssetNotFound

// ErrInvalidName is returned for names that could escape the store root.
var ErrInvalidName = errors.New("invalid asset name")

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

const maxNameAttempts = 3

// FileStore stores blobs as files in an afero filesystem.
type FileStore struct {
	fs  afero.Fs
	now func() time.Time
}

var _ store.AssetStore = (*FileStore)(nil)

// NewFileStore creates a store writing to the root of fsys.
func NewFileStore(fsys afero.Fs) *FileStore {
	return &FileStore{fs: fsys, now: time.Now}
}

// NewOSFileStore creates a store rooted at dir on the local disk,
// creating the directory if needed.
func NewOSFileStore(dir string) (*FileStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory %s: %w", dir, err)
	}
	return NewFileStore(afero.NewBasePathFs(osFs, dir)), nil
}

// Put writes data under a freshly generated name.
func (s *FileStore) Put(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := Extension(data)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := s.newName(ext)

		f, err := s.fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, fs.ErrExist) {
				continue
			}
			return "", fmt.Errorf("failed to create asset %s: %w", name, err)
		}

		_, writeErr := f.Write(data)
		closeErr := f.Close()
		if writeErr != nil || closeErr != nil {
			_ = s.fs.Remove(name)
			return "", fmt.Errorf("failed to write asset %s: %w", name, errors.Join(writeErr, closeErr))
		}
		return name, nil
	}

	return "", fmt.Errorf("failed to allocate a unique asset name after %d attempts", maxNameAttempts)
}

// Get reads the blob stored under name.
func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, name)
		}
		return nil, fmt.Errorf("failed to read asset %s: %w", name, err)
	}
	return data, nil
}

func (s *FileStore) newName(ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return s.now().UTC().Format("20060102") + "_" + random + ext
}

// ValidateName rejects empty names, path separators and dot segments.
func ValidateName(name string) error {
	if !validName.MatchString(name) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Extension returns the file extension for data's sniffed type, or ".bin".
func Extension(data []byte) string {
	if ext := mimetype.Detect(data).Extension(); ext != "" {
		return ext
	}
	return ".bin"
}

// ContentType returns a best-effort content type for a stored blob.
func ContentType(data []byte) string {
	return mimetype.Detect(data).String()
}
