package folder

import "errors"

var (
	// ErrFolderNotFound indicates the path does not resolve for this owner.
	ErrFolderNotFound = errors.New("folder not found")
	// ErrParentNotFound indicates the parent path of a create does not resolve.
	ErrParentNotFound = errors.New("parent folder not found")
	// ErrFolderExists is returned when the target path is already taken.
	ErrFolderExists = errors.New("folder already exists")
	// ErrInvalidName rejects empty names and names containing a path separator.
	ErrInvalidName = errors.New("invalid folder name")
)
