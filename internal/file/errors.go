package file

import "errors"

var (
	// ErrFileNotFound signals that no file matches the owner, folder and name.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileExists is returned when the (folder, name) pair is already taken.
	ErrFileExists = errors.New("file already exists")
	// ErrFileTooLarge signals that the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidName rejects empty display names and names containing a path separator.
	ErrInvalidName = errors.New("invalid file name")
	// ErrFolderNotFound indicates the folder path does not resolve for this owner.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrSourceFolderNotFound indicates the move source path does not resolve.
	ErrSourceFolderNotFound = errors.New("source folder not found")
	// ErrDestinationFolderNotFound indicates the move destination path does not resolve.
	ErrDestinationFolderNotFound = errors.New("destination folder not found")
	// ErrStorageInconsistent reports a failed compensation: metadata and content
	// no longer agree and out-of-band repair is required.
	ErrStorageInconsistent = errors.New("storage inconsistent: manual repair required")
)
