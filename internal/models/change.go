package models

import "time"

// Change is a single file's diff within a changeset.
type Change struct {
	Path string
	Diff string // unified diff text for this file
}

// CheckContext is the unit of work for the check engine: the ordered
// changeset plus optional merge-request metadata.
type CheckContext struct {
	Changes     []Change
	Title       string
	Description string
}

// ApprovalState distinguishes a known approval answer from an unknown one.
type ApprovalState string

const (
	ApprovalKnownYes ApprovalState = "known-yes"
	ApprovalKnownNo  ApprovalState = "known-no"
	ApprovalUnknown  ApprovalState = "unknown"
)

// MergeRequest carries the source-control metadata for one review.
type MergeRequest struct {
	Provider       string // e.g. "gitlab", "github"
	ProviderID     string // provider-assigned external id
	Title          string
	Description    string
	HeadSHA        string
	MergeCommitSHA string
	WebURL         string
	ApprovalsCount *int   // nil when the provider did not report approvals
	MergedBy       string // merger identity, "" when unknown
	MergedAt       *time.Time
}

// ApprovalState derives the tri-state approval answer for this MR.
// A known approvals count answers directly; otherwise attribution to a
// merger identity is a weak yes, and absent both the answer is unknown.
func (mr *MergeRequest) ApprovalState() ApprovalState {
	if mr.ApprovalsCount != nil {
		if *mr.ApprovalsCount >= 1 {
			return ApprovalKnownYes
		}
		return ApprovalKnownNo
	}
	if mr.MergedBy != "" {
		return ApprovalKnownYes
	}
	return ApprovalUnknown
}
