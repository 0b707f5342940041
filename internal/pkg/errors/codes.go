package errors

import (
	"fmt"
	"net/http"
)

// Code represents an error code with HTTP status and message
type Code struct {
	Code    int    // Business error code
	Status  int    // HTTP status code
	Message string // Error message
}

// Error codes for different modules
const (
	// Success
	Success = 0

	// Common errors (1000-1999)
	ErrInternalServer = 1000
	ErrInvalidParams  = 1001
	ErrNotFound       = 1002
	ErrForbidden      = 1003
	ErrConflict       = 1004
	ErrBadRequest     = 1005

	// Author errors (2000-2999)
	ErrAuthorNotFound   = 2000
	ErrAuthorHasAliases = 2001

	// Author alias errors (2500-2999)
	ErrAliasNotFound  = 2500
	ErrAliasHasAlbums = 2501

	// Album errors (3000-3999)
	ErrAlbumNotFound    = 3000
	ErrAlbumNotDisabled = 3001

	// Image errors (4000-4999)
	ErrImageNotFound    = 4000
	ErrImageNotUploaded = 4001
	ErrInvalidImage     = 4002
	ErrInvalidFileType  = 4003

	// Archive / storage errors (5000-5999)
	ErrInvalidArchive = 5000
	ErrStorageFailed  = 5001
	ErrUploadFailed   = 5002
)

// codeMap maps error codes to their details
var codeMap = map[int]Code{
	Success: {Success, http.StatusOK, "Success"},

	ErrInternalServer: {ErrInternalServer, http.StatusInternalServerError, "Unknown server error"},
	ErrInvalidParams:  {ErrInvalidParams, http.StatusBadRequest, "Invalid parameters"},
	ErrNotFound:       {ErrNotFound, http.StatusNotFound, "Resource not found"},
	ErrForbidden:      {ErrForbidden, http.StatusForbidden, "Forbidden"},
	ErrConflict:       {ErrConflict, http.StatusConflict, "Resource conflict"},
	ErrBadRequest:     {ErrBadRequest, http.StatusBadRequest, "Bad request"},

	ErrAuthorNotFound:   {ErrAuthorNotFound, http.StatusNotFound, "Author not found"},
	ErrAuthorHasAliases: {ErrAuthorHasAliases, http.StatusBadRequest, "Cannot delete; still has attached author aliases"},

	ErrAliasNotFound:  {ErrAliasNotFound, http.StatusNotFound, "Author alias not found"},
	ErrAliasHasAlbums: {ErrAliasHasAlbums, http.StatusBadRequest, "Cannot delete; albums still reference this alias"},

	ErrAlbumNotFound:    {ErrAlbumNotFound, http.StatusNotFound, "Album not found"},
	ErrAlbumNotDisabled: {ErrAlbumNotDisabled, http.StatusForbidden, "Album not disabled, cannot delete"},

	ErrImageNotFound:    {ErrImageNotFound, http.StatusNotFound, "Image not found"},
	ErrImageNotUploaded: {ErrImageNotUploaded, http.StatusBadRequest, "Image not yet uploaded"},
	ErrInvalidImage:     {ErrInvalidImage, http.StatusBadRequest, "Invalid image detected"},
	ErrInvalidFileType:  {ErrInvalidFileType, http.StatusBadRequest, "Invalid file type detected"},

	ErrInvalidArchive: {ErrInvalidArchive, http.StatusBadRequest, "Invalid archive detected"},
	ErrStorageFailed:  {ErrStorageFailed, http.StatusInternalServerError, "Storage operation failed"},
	ErrUploadFailed:   {ErrUploadFailed, http.StatusInternalServerError, "Server error occurred during file upload"},
}

// GetCode returns the Code for a given error code
func GetCode(code int) Code {
	if c, ok := codeMap[code]; ok {
		return c
	}
	return codeMap[ErrInternalServer]
}

// GetHTTPStatus returns HTTP status for a given error code
func GetHTTPStatus(code int) int {
	return GetCode(code).Status
}

// GetMessage returns the message for a given error code
func GetMessage(code int) string {
	return GetCode(code).Message
}

// IsClientError checks if the code represents a client error (4xx)
func IsClientError(code int) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}

// IsServerError checks if the code represents a server error (5xx)
func IsServerError(code int) bool {
	return GetHTTPStatus(code) >= 500
}

// FormatError formats an error message with code
func FormatError(code int, details ...string) string {
	msg := GetMessage(code)
	if len(details) > 0 && details[0] != "" {
		return fmt.Sprintf("%s: %s", msg, details[0])
	}
	return msg
}
