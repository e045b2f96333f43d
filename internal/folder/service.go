package folder

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

type repository interface {
	ResolvePath(ctx context.Context, ownerID uuid.UUID, path string) (Folder, error)
	Create(ctx context.Context, parent Folder, name string) (Folder, error)
	ListSubfolderNames(ctx context.Context, folderID uuid.UUID) ([]string, error)
}

// FileIndex exposes the file names living in a folder. Implemented by the file
// repository; keeps this package free of a dependency on the file schema.
type FileIndex interface {
	ListNamesForFolder(ctx context.Context, folderID uuid.UUID) ([]string, error)
}

// Service owns the folder tree of each owner.
type Service struct {
	repo  repository
	files FileIndex
}

// NewService constructs a folder service.
func NewService(repo repository, files FileIndex) *Service {
	return &Service{repo: repo, files: files}
}

// Resolve returns the folder at an exact path for the owner.
func (s *Service) Resolve(ctx context.Context, ownerID uuid.UUID, path string) (Folder, error) {
	return s.repo.ResolvePath(ctx, ownerID, path)
}

// Create adds a folder under parentPath. The new path is parentPath + "/" + name.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, parentPath, name string) (Folder, error) {
	if name == "" || strings.Contains(name, "/") {
		return Folder{}, ErrInvalidName
	}

	parent, err := s.repo.ResolvePath(ctx, ownerID, parentPath)
	if err != nil {
		if errors.Is(err, ErrFolderNotFound) {
			return Folder{}, ErrParentNotFound
		}
		return Folder{}, err
	}

	return s.repo.Create(ctx, parent, name)
}

// List returns the folder at path together with its subfolder and file names.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, path string) (Listing, error) {
	f, err := s.repo.ResolvePath(ctx, ownerID, path)
	if err != nil {
		return Listing{}, err
	}

	subfolders, err := s.repo.ListSubfolderNames(ctx, f.ID)
	if err != nil {
		return Listing{}, err
	}

	files, err := s.files.ListNamesForFolder(ctx, f.ID)
	if err != nil {
		return Listing{}, err
	}

	return Listing{Folder: f, Subfolders: subfolders, Files: files}, nil
}
