package file

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/mbobrov/filebox/internal/folder"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

type metadataStore interface {
	Create(ctx context.Context, meta File) (File, error)
	GetByName(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error)
	GetByID(ctx context.Context, fileID uuid.UUID) (File, error)
	UpdateLocation(ctx context.Context, fileID, folderID uuid.UUID, storageKey string) (File, error)
	DeleteWithLinks(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error)
	DeleteByID(ctx context.Context, fileID uuid.UUID) error
	IncrementDownloadCount(ctx context.Context, fileID uuid.UUID) (int64, error)
}

type folderResolver interface {
	Resolve(ctx context.Context, ownerID uuid.UUID, path string) (folder.Folder, error)
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	CopyObject(ctx context.Context, bucketName, srcObjectName, dstObjectName string) error
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

// Service keeps file metadata and stored bytes mutually consistent.
type Service struct {
	repo         metadataStore
	folders      folderResolver
	objectStore  objectStore
	objectBucket string
	maxFileSize  int64
	log          *zap.Logger
}

// NewService constructs a file service.
func NewService(repo metadataStore, folders folderResolver, store objectStore, objectBucket string, maxFileSize int64, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:         repo,
		folders:      folders,
		objectStore:  store,
		objectBucket: objectBucket,
		maxFileSize:  maxFileSize,
		log:          log,
	}
}

// Upload places content into a folder. The metadata row is committed before
// the content write; on a failed write the row is removed again, so a row can
// never reference missing content.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, folderPath, displayName string, content []byte) (File, error) {
	if displayName == "" || strings.Contains(displayName, "/") {
		return File{}, ErrInvalidName
	}
	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return File{}, ErrFileTooLarge
	}

	dst, err := s.folders.Resolve(ctx, ownerID, folderPath)
	if err != nil {
		return File{}, translateFolderError(err)
	}

	meta := File{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		FolderID:    dst.ID,
		DisplayName: displayName,
		StorageKey:  storageKey(ownerID, dst.ID, displayName),
		SizeBytes:   int64(len(content)),
	}

	stored, err := s.repo.Create(ctx, meta)
	if err != nil {
		return File{}, err
	}

	_, err = s.objectStore.PutObject(ctx, s.objectBucket, stored.StorageKey,
		bytes.NewReader(content), stored.SizeBytes, minio.PutObjectOptions{})
	if err != nil {
		if delErr := s.repo.DeleteByID(ctx, stored.ID); delErr != nil {
			s.log.Error("invariant violation: metadata row references missing content",
				zap.String("file_id", stored.ID.String()),
				zap.String("storage_key", stored.StorageKey),
				zap.NamedError("write_error", err),
				zap.NamedError("compensation_error", delErr),
			)
			return File{}, fmt.Errorf("%w: compensating delete failed after content write error: %v", ErrStorageInconsistent, err)
		}
		return File{}, fmt.Errorf("store object: %w", err)
	}

	return stored, nil
}

// Move relocates a file between folders. The metadata row is repointed first:
// a name collision in the destination fails on the unique constraint before
// any content is touched. The content copy follows, compensated by reverting
// the row if it fails.
func (s *Service) Move(ctx context.Context, ownerID uuid.UUID, fromPath, toPath, displayName string) (File, error) {
	src, err := s.folders.Resolve(ctx, ownerID, fromPath)
	if err != nil {
		if errors.Is(err, folder.ErrFolderNotFound) {
			return File{}, ErrSourceFolderNotFound
		}
		return File{}, err
	}

	dst, err := s.folders.Resolve(ctx, ownerID, toPath)
	if err != nil {
		if errors.Is(err, folder.ErrFolderNotFound) {
			return File{}, ErrDestinationFolderNotFound
		}
		return File{}, err
	}

	meta, err := s.repo.GetByName(ctx, ownerID, src.ID, displayName)
	if err != nil {
		return File{}, err
	}

	if src.ID == dst.ID {
		return meta, nil
	}

	newKey := storageKey(ownerID, dst.ID, displayName)

	moved, err := s.repo.UpdateLocation(ctx, meta.ID, dst.ID, newKey)
	if err != nil {
		return File{}, err
	}

	if err := s.objectStore.CopyObject(ctx, s.objectBucket, meta.StorageKey, newKey); err != nil {
		if _, revErr := s.repo.UpdateLocation(ctx, meta.ID, meta.FolderID, meta.StorageKey); revErr != nil {
			s.log.Error("invariant violation: metadata row references missing content",
				zap.String("file_id", meta.ID.String()),
				zap.String("storage_key", newKey),
				zap.NamedError("copy_error", err),
				zap.NamedError("compensation_error", revErr),
			)
			return File{}, fmt.Errorf("%w: reverting move failed after content copy error: %v", ErrStorageInconsistent, err)
		}
		return File{}, fmt.Errorf("copy object: %w", err)
	}

	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, meta.StorageKey, minio.RemoveObjectOptions{}); err != nil {
		// The row already points at the new key; the stale object is an orphan
		// blob, not a consistency break. Flag it for out-of-band cleanup.
		s.log.Error("invariant violation: stale content object left after move",
			zap.String("file_id", meta.ID.String()),
			zap.String("storage_key", meta.StorageKey),
			zap.Error(err),
		)
	}

	return moved, nil
}

// Delete removes a file's share link, metadata row and content object, in
// that order.
func (s *Service) Delete(ctx context.Context, ownerID uuid.UUID, folderPath, displayName string) (File, error) {
	f, err := s.folders.Resolve(ctx, ownerID, folderPath)
	if err != nil {
		return File{}, translateFolderError(err)
	}

	meta, err := s.repo.DeleteWithLinks(ctx, ownerID, f.ID, displayName)
	if err != nil {
		return File{}, err
	}

	if err := s.objectStore.RemoveObject(ctx, s.objectBucket, meta.StorageKey, minio.RemoveObjectOptions{}); err != nil {
		s.log.Error("invariant violation: content object survived metadata delete",
			zap.String("file_id", meta.ID.String()),
			zap.String("storage_key", meta.StorageKey),
			zap.Error(err),
		)
		return File{}, fmt.Errorf("%w: remove object: %v", ErrStorageInconsistent, err)
	}

	return meta, nil
}

// Download returns the file bytes together with the post-increment download
// count. The increment is committed only after the content read succeeded,
// and bytes are returned only after the increment is durable.
func (s *Service) Download(ctx context.Context, ownerID uuid.UUID, folderPath, displayName string) (File, []byte, error) {
	f, err := s.folders.Resolve(ctx, ownerID, folderPath)
	if err != nil {
		return File{}, nil, translateFolderError(err)
	}

	meta, err := s.repo.GetByName(ctx, ownerID, f.ID, displayName)
	if err != nil {
		return File{}, nil, err
	}

	return s.read(ctx, meta)
}

// Lookup fetches metadata by owner, folder and display name.
func (s *Service) Lookup(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error) {
	return s.repo.GetByName(ctx, ownerID, folderID, displayName)
}

// ReadByID is the content read path for consumed share links. Authorization
// happened when the link was consumed; there is no owner scope here.
func (s *Service) ReadByID(ctx context.Context, fileID uuid.UUID) (File, []byte, error) {
	meta, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return File{}, nil, err
	}
	return s.read(ctx, meta)
}

func (s *Service) read(ctx context.Context, meta File) (File, []byte, error) {
	object, err := s.objectStore.GetObject(ctx, s.objectBucket, meta.StorageKey, minio.GetObjectOptions{})
	if err != nil {
		return File{}, nil, fmt.Errorf("fetch object: %w", err)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return File{}, nil, fmt.Errorf("read object: %w", err)
	}

	count, err := s.repo.IncrementDownloadCount(ctx, meta.ID)
	if err != nil {
		return File{}, nil, err
	}
	meta.DownloadCount = count

	return meta, content, nil
}

// storageKey derives the content-store address from the placement triple.
// Hashing keeps the key deterministic while staying safe for any display name.
func storageKey(ownerID, folderID uuid.UUID, displayName string) string {
	sum := sha256.Sum256([]byte(ownerID.String() + "/" + folderID.String() + "/" + displayName))
	return hex.EncodeToString(sum[:])
}

func translateFolderError(err error) error {
	if errors.Is(err, folder.ErrFolderNotFound) {
		return ErrFolderNotFound
	}
	return err
}
