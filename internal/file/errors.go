package file

import "errors"

var (
	// ErrFileNotFound signals that the file could not be located.
	ErrFileNotFound = errors.New("file not found")
	// ErrForbidden indicates the requester may not access the file.
	ErrForbidden = errors.New("access denied")
	// ErrQuotaExceeded indicates the upload would push the owner past their storage limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrFileTooLarge signals that the upload exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoFile is returned when the upload carries no file payload.
	ErrNoFile = errors.New("no file provided")
	// ErrEmptyFilename is returned when the upload filename is blank.
	ErrEmptyFilename = errors.New("empty filename")
	// ErrExtensionNotAllowed rejects extensions outside the allow-list.
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrExtensionBlocked rejects extensions on the explicit deny-list.
	ErrExtensionBlocked = errors.New("file extension blocked")
	// ErrInvalidFolder rejects folder names that sanitize to nothing.
	ErrInvalidFolder = errors.New("invalid folder name")
	// ErrFolderExists is returned when explicitly creating a folder that already exists.
	ErrFolderExists = errors.New("folder already exists")
)
