package domain

import (
	"fmt"
	"strings"
)

// FileStatus represents the lifecycle of a queued file.
type FileStatus string

const (
	FileStatusReady     FileStatus = "ready"
	FileStatusError     FileStatus = "error"
	FileStatusUploading FileStatus = "uploading"
	FileStatusCompleted FileStatus = "completed"
	FileStatusFailed    FileStatus = "failed"
	// FileStatusSkipped is only recorded in batch outcomes for entries a
	// cancelled batch never attempted.
	FileStatusSkipped FileStatus = "skipped"
)

// Priority is the processing priority sent with an upload.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// Priorities lists the accepted priorities in ascending order.
var Priorities = []Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent, PriorityCritical}

// ParsePriority maps a case-insensitive priority name to a Priority.
// An empty string yields PriorityNormal.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PriorityNormal, nil
	}
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// BatchState tracks an upload batch from start to finish.
type BatchState string

const (
	BatchStateRunning   BatchState = "running"
	BatchStateFinished  BatchState = "finished"
	BatchStateCancelled BatchState = "cancelled"
)
