package file

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mbobrov/filebox/internal/folder"
	"github.com/minio/minio-go/v7"
)

func TestUploadCommitsMetadataBeforeContent(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	docs := folders.add(ownerID, "alice/docs")

	rowExistedAtPut := false
	objects.onPut = func(key string) {
		_, err := repo.GetByName(context.Background(), ownerID, docs.ID, "a.txt")
		rowExistedAtPut = err == nil
	}

	meta, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("hi"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !rowExistedAtPut {
		t.Fatalf("expected metadata row to be durable before the content write")
	}
	if meta.SizeBytes != 2 {
		t.Fatalf("unexpected size: %d", meta.SizeBytes)
	}
	if got := objects.data[meta.StorageKey]; !bytes.Equal(got, []byte("hi")) {
		t.Fatalf("stored bytes mismatch: %q", got)
	}
}

func TestUploadDuplicateNameFails(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	if _, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("one")); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	_, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("two"))
	if !errors.Is(err, ErrFileExists) {
		t.Fatalf("expected ErrFileExists, got %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("expected exactly one metadata row, got %d", len(repo.byID))
	}
	if len(objects.data) != 1 {
		t.Fatalf("expected exactly one content object, got %d", len(objects.data))
	}
}

func TestUploadRollsBackMetadataWhenContentWriteFails(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	objects.putErr = errors.New("disk full")
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	_, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("hi"))
	if err == nil {
		t.Fatalf("expected upload to fail")
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected compensating delete to remove the metadata row")
	}
}

func TestUploadEscalatesWhenCompensationFails(t *testing.T) {
	repo := newFakeMetaStore()
	repo.deleteByIDErr = errors.New("db down")
	folders := newFakeFolders()
	objects := newFakeObjects()
	objects.putErr = errors.New("disk full")
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	_, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("hi"))
	if !errors.Is(err, ErrStorageInconsistent) {
		t.Fatalf("expected ErrStorageInconsistent, got %v", err)
	}
}

func TestUploadEnforcesSizeLimit(t *testing.T) {
	service := NewService(newFakeMetaStore(), newFakeFolders(), newFakeObjects(), "filebox", 4, nil)

	_, err := service.Upload(context.Background(), uuid.New(), "alice", "a.txt", []byte("too big"))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestMoveRelocatesContentAndMetadata(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")
	archive := folders.add(ownerID, "alice/archive")

	uploaded, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	moved, err := service.Move(context.Background(), ownerID, "alice/docs", "alice/archive", "a.txt")
	if err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	if moved.FolderID != archive.ID {
		t.Fatalf("expected folder id to change")
	}
	if moved.StorageKey == uploaded.StorageKey {
		t.Fatalf("expected storage key to be recomputed for the new placement")
	}
	if _, ok := objects.data[uploaded.StorageKey]; ok {
		t.Fatalf("expected old content object to be removed")
	}

	_, content, err := service.Download(context.Background(), ownerID, "alice/archive", "a.txt")
	if err != nil {
		t.Fatalf("Download after move: %v", err)
	}
	if !bytes.Equal(content, []byte("payload")) {
		t.Fatalf("content changed across move: %q", content)
	}

	_, _, err = service.Download(context.Background(), ownerID, "alice/docs", "a.txt")
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("expected old location to report ErrFileNotFound, got %v", err)
	}
}

func TestMoveReportsDistinctFolderErrors(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	service := NewService(repo, folders, newFakeObjects(), "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	_, err := service.Move(context.Background(), ownerID, "nope", "alice/docs", "a.txt")
	if !errors.Is(err, ErrSourceFolderNotFound) {
		t.Fatalf("expected ErrSourceFolderNotFound, got %v", err)
	}

	_, err = service.Move(context.Background(), ownerID, "alice/docs", "nope", "a.txt")
	if !errors.Is(err, ErrDestinationFolderNotFound) {
		t.Fatalf("expected ErrDestinationFolderNotFound, got %v", err)
	}
}

func TestMoveLeavesMetadataUntouchedWhenCopyFails(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	docs := folders.add(ownerID, "alice/docs")
	folders.add(ownerID, "alice/archive")

	uploaded, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	objects.copyErr = errors.New("copy failed")
	if _, err := service.Move(context.Background(), ownerID, "alice/docs", "alice/archive", "a.txt"); err == nil {
		t.Fatalf("expected move to fail")
	}

	current, err := repo.GetByName(context.Background(), ownerID, docs.ID, "a.txt")
	if err != nil {
		t.Fatalf("file vanished: %v", err)
	}
	if current.StorageKey != uploaded.StorageKey || current.FolderID != docs.ID {
		t.Fatalf("metadata must not change when the content copy fails")
	}
}

func TestMoveOntoExistingNameLeavesDestinationIntact(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")
	archive := folders.add(ownerID, "alice/archive")

	source, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("source"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	existing, err := service.Upload(context.Background(), ownerID, "alice/archive", "a.txt", []byte("existing"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	_, err = service.Move(context.Background(), ownerID, "alice/docs", "alice/archive", "a.txt")
	if !errors.Is(err, ErrFileExists) {
		t.Fatalf("expected ErrFileExists, got %v", err)
	}

	if got := objects.data[existing.StorageKey]; !bytes.Equal(got, []byte("existing")) {
		t.Fatalf("destination content was touched by the failed move: %q", got)
	}
	if got := objects.data[source.StorageKey]; !bytes.Equal(got, []byte("source")) {
		t.Fatalf("source content was touched by the failed move: %q", got)
	}
	kept, err := repo.GetByName(context.Background(), ownerID, archive.ID, "a.txt")
	if err != nil {
		t.Fatalf("destination file vanished: %v", err)
	}
	if kept.ID != existing.ID || kept.StorageKey != existing.StorageKey {
		t.Fatalf("destination metadata changed: %+v", kept)
	}
	if _, _, err := service.Download(context.Background(), ownerID, "alice/docs", "a.txt"); err != nil {
		t.Fatalf("source must still be readable: %v", err)
	}
}

func TestMoveWithinSameFolderIsNoOp(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	uploaded, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	moved, err := service.Move(context.Background(), ownerID, "alice/docs", "alice/docs", "a.txt")
	if err != nil {
		t.Fatalf("Move returned error: %v", err)
	}
	if moved.StorageKey != uploaded.StorageKey {
		t.Fatalf("key changed on a same-folder move")
	}
	if got := objects.data[uploaded.StorageKey]; !bytes.Equal(got, []byte("payload")) {
		t.Fatalf("content changed on a same-folder move: %q", got)
	}
}

func TestMoveEscalatesWhenRevertFails(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")
	folders.add(ownerID, "alice/archive")

	if _, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("payload")); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	objects.copyErr = errors.New("copy failed")
	repo.updateErrOn = 2 // the revert

	_, err := service.Move(context.Background(), ownerID, "alice/docs", "alice/archive", "a.txt")
	if !errors.Is(err, ErrStorageInconsistent) {
		t.Fatalf("expected ErrStorageInconsistent, got %v", err)
	}
}

func TestDeleteRemovesLinkMetadataAndContent(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	uploaded, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("payload"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	repo.linked[uploaded.ID] = true

	deleted, err := service.Delete(context.Background(), ownerID, "alice/docs", "a.txt")
	if err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if deleted.DisplayName != "a.txt" {
		t.Fatalf("unexpected deleted name: %s", deleted.DisplayName)
	}
	if repo.linked[uploaded.ID] {
		t.Fatalf("expected share link to be removed with the file")
	}
	if len(repo.byID) != 0 {
		t.Fatalf("expected metadata row removed")
	}
	if _, ok := objects.data[uploaded.StorageKey]; ok {
		t.Fatalf("expected content object removed")
	}
}

func TestDownloadCountsEveryRead(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	if _, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("hi")); err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	meta, content, err := service.Download(context.Background(), ownerID, "alice/docs", "a.txt")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	if !bytes.Equal(content, []byte("hi")) || meta.DownloadCount != 1 {
		t.Fatalf("expected (hi, 1), got (%q, %d)", content, meta.DownloadCount)
	}

	meta, _, err = service.Download(context.Background(), ownerID, "alice/docs", "a.txt")
	if err != nil {
		t.Fatalf("second Download returned error: %v", err)
	}
	if meta.DownloadCount != 2 {
		t.Fatalf("expected count 2, got %d", meta.DownloadCount)
	}
}

func TestDownloadDoesNotCountFailedReads(t *testing.T) {
	repo := newFakeMetaStore()
	folders := newFakeFolders()
	objects := newFakeObjects()
	service := NewService(repo, folders, objects, "filebox", 0, nil)

	ownerID := uuid.New()
	folders.add(ownerID, "alice/docs")

	uploaded, err := service.Upload(context.Background(), ownerID, "alice/docs", "a.txt", []byte("hi"))
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}

	objects.getErr = errors.New("read failed")
	if _, _, err := service.Download(context.Background(), ownerID, "alice/docs", "a.txt"); err == nil {
		t.Fatalf("expected download to fail")
	}
	if repo.byID[uploaded.ID].DownloadCount != 0 {
		t.Fatalf("failed read must not advance the download count")
	}
}

// --- fakes ---

type fakeMetaStore struct {
	byID          map[uuid.UUID]File
	linked        map[uuid.UUID]bool
	deleteByIDErr error
	updateCalls   int
	updateErrOn   int // fail the nth UpdateLocation call, 1-based
}

func newFakeMetaStore() *fakeMetaStore {
	return &fakeMetaStore{
		byID:   make(map[uuid.UUID]File),
		linked: make(map[uuid.UUID]bool),
	}
}

func (f *fakeMetaStore) Create(ctx context.Context, meta File) (File, error) {
	for _, existing := range f.byID {
		if existing.OwnerID == meta.OwnerID && existing.FolderID == meta.FolderID && existing.DisplayName == meta.DisplayName {
			return File{}, ErrFileExists
		}
	}
	meta.CreatedAt = time.Now()
	f.byID[meta.ID] = meta
	return meta, nil
}

func (f *fakeMetaStore) GetByName(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error) {
	for _, meta := range f.byID {
		if meta.OwnerID == ownerID && meta.FolderID == folderID && meta.DisplayName == displayName {
			return meta, nil
		}
	}
	return File{}, ErrFileNotFound
}

func (f *fakeMetaStore) GetByID(ctx context.Context, fileID uuid.UUID) (File, error) {
	meta, ok := f.byID[fileID]
	if !ok {
		return File{}, ErrFileNotFound
	}
	return meta, nil
}

func (f *fakeMetaStore) UpdateLocation(ctx context.Context, fileID, folderID uuid.UUID, storageKey string) (File, error) {
	f.updateCalls++
	if f.updateErrOn != 0 && f.updateCalls == f.updateErrOn {
		return File{}, errors.New("db down")
	}
	meta, ok := f.byID[fileID]
	if !ok {
		return File{}, ErrFileNotFound
	}
	for _, existing := range f.byID {
		if existing.ID != fileID && existing.OwnerID == meta.OwnerID &&
			existing.FolderID == folderID && existing.DisplayName == meta.DisplayName {
			return File{}, ErrFileExists
		}
	}
	meta.FolderID = folderID
	meta.StorageKey = storageKey
	f.byID[fileID] = meta
	return meta, nil
}

func (f *fakeMetaStore) DeleteWithLinks(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (File, error) {
	meta, err := f.GetByName(ctx, ownerID, folderID, displayName)
	if err != nil {
		return File{}, err
	}
	delete(f.linked, meta.ID)
	delete(f.byID, meta.ID)
	return meta, nil
}

func (f *fakeMetaStore) DeleteByID(ctx context.Context, fileID uuid.UUID) error {
	if f.deleteByIDErr != nil {
		return f.deleteByIDErr
	}
	delete(f.byID, fileID)
	return nil
}

func (f *fakeMetaStore) IncrementDownloadCount(ctx context.Context, fileID uuid.UUID) (int64, error) {
	meta, ok := f.byID[fileID]
	if !ok {
		return 0, ErrFileNotFound
	}
	meta.DownloadCount++
	f.byID[fileID] = meta
	return meta.DownloadCount, nil
}

type fakeFolders struct {
	byPath map[string]folder.Folder
}

func newFakeFolders() *fakeFolders {
	return &fakeFolders{byPath: make(map[string]folder.Folder)}
}

func (f *fakeFolders) add(ownerID uuid.UUID, path string) folder.Folder {
	fld := folder.Folder{ID: uuid.New(), OwnerID: ownerID, Path: path}
	f.byPath[ownerID.String()+"\x00"+path] = fld
	return fld
}

func (f *fakeFolders) Resolve(ctx context.Context, ownerID uuid.UUID, path string) (folder.Folder, error) {
	fld, ok := f.byPath[ownerID.String()+"\x00"+path]
	if !ok {
		return folder.Folder{}, folder.ErrFolderNotFound
	}
	return fld, nil
}

type fakeObjects struct {
	data    map[string][]byte
	putErr  error
	getErr  error
	copyErr error
	onPut   func(key string)
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{data: make(map[string][]byte)}
}

func (f *fakeObjects) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.onPut != nil {
		f.onPut(objectName)
	}
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.data[objectName] = data
	return minio.UploadInfo{Size: int64(len(data))}, nil
}

func (f *fakeObjects) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.data[objectName]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjects) CopyObject(ctx context.Context, bucketName, srcObjectName, dstObjectName string) error {
	if f.copyErr != nil {
		return f.copyErr
	}
	data, ok := f.data[srcObjectName]
	if !ok {
		return errors.New("source object not found")
	}
	f.data[dstObjectName] = append([]byte(nil), data...)
	return nil
}

func (f *fakeObjects) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	delete(f.data, objectName)
	return nil
}
