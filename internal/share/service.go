package share

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mbobrov/filebox/internal/file"
	"github.com/mbobrov/filebox/internal/folder"
	"go.uber.org/zap"
)

const tokenLength = 32

type linkStore interface {
	Replace(ctx context.Context, link Link) (Link, error)
	Consume(ctx context.Context, token string) (Link, error)
}

type folderResolver interface {
	Resolve(ctx context.Context, ownerID uuid.UUID, path string) (folder.Folder, error)
}

// FileSource is the slice of the file service the issuer depends on.
type FileSource interface {
	Lookup(ctx context.Context, ownerID, folderID uuid.UUID, displayName string) (file.File, error)
	ReadByID(ctx context.Context, fileID uuid.UUID) (file.File, []byte, error)
}

// Service issues and resolves public share links.
type Service struct {
	links         linkStore
	folders       folderResolver
	files         FileSource
	maxTTLMinutes int
	nowFunc       func() time.Time
	log           *zap.Logger
}

// NewService constructs a share service.
func NewService(links linkStore, folders folderResolver, files FileSource, maxTTLMinutes int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		links:         links,
		folders:       folders,
		files:         files,
		maxTTLMinutes: maxTTLMinutes,
		nowFunc:       time.Now,
		log:           log,
	}
}

// Issue creates a share link for the file, superseding any existing one.
func (s *Service) Issue(ctx context.Context, ownerID uuid.UUID, folderPath, displayName string, ttlMinutes int) (Link, error) {
	if ttlMinutes <= 0 {
		return Link{}, ErrInvalidDuration
	}
	if s.maxTTLMinutes > 0 && ttlMinutes > s.maxTTLMinutes {
		return Link{}, ErrInvalidDuration
	}

	f, err := s.folders.Resolve(ctx, ownerID, folderPath)
	if err != nil {
		if errors.Is(err, folder.ErrFolderNotFound) {
			return Link{}, file.ErrFileNotFound
		}
		return Link{}, err
	}

	meta, err := s.files.Lookup(ctx, ownerID, f.ID, displayName)
	if err != nil {
		return Link{}, err
	}

	token, err := generateToken()
	if err != nil {
		return Link{}, fmt.Errorf("generate token: %w", err)
	}

	now := s.nowFunc()
	link := Link{
		Token:     token,
		FileID:    meta.ID,
		IssuedAt:  now,
		ExpiresAt: now.Add(time.Duration(ttlMinutes) * time.Minute),
	}

	return s.links.Replace(ctx, link)
}

// Resolve consumes a token and returns the file with its content. Each link
// resolves at most once: the row is deleted before the content read, so a
// concurrent resolution of the same token finds nothing. An expired link is
// removed on discovery and reported as expired.
func (s *Service) Resolve(ctx context.Context, token string) (file.File, []byte, error) {
	link, err := s.links.Consume(ctx, token)
	if err != nil {
		return file.File{}, nil, err
	}

	if s.nowFunc().After(link.ExpiresAt) {
		return file.File{}, nil, ErrLinkExpired
	}

	meta, content, err := s.files.ReadByID(ctx, link.FileID)
	if err != nil {
		// The link is already burned and stays burned.
		s.log.Warn("share link consumed but content read failed",
			zap.String("file_id", link.FileID.String()),
			zap.Error(err),
		)
		return file.File{}, nil, err
	}

	return meta, content, nil
}

func generateToken() (string, error) {
	raw := make([]byte, tokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
