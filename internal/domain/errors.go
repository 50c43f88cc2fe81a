package domain

import "errors"

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidDepartment = errors.New("unknown department")
	ErrInvalidProcess    = errors.New("process not available for the selected department")
	ErrInvalidFileType   = errors.New("file type not available for the selected process")
	ErrInvalidRouteCode  = errors.New("invalid routing code; expected DEPT-PROCESS-TYPE")
	ErrRoutingIncomplete = errors.New("department, process and file type must all be selected")
	ErrInvalidPriority   = errors.New("invalid priority")
	ErrNoValidFiles      = errors.New("no valid files to upload")
	ErrBatchInProgress   = errors.New("an upload batch is already running")
	ErrMissingCredential = errors.New("no operator credential available for upload")
	ErrUploadFailed      = errors.New("file upload to processor failed")
)
