package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// KnowledgeSourceType tags the kind of promoted exemplar.
type KnowledgeSourceType string

const (
	// KnowledgeTypeGoldMR is a merge request promoted as a positive precedent.
	KnowledgeTypeGoldMR KnowledgeSourceType = "GOLD_MR"
)

// KnowledgeMetadataVersion is the current metadata schema version.
// Adding optional fields does not bump it; renaming or retyping a field
// requires a bump plus a read-side migration in DecodeKnowledgeMetadata.
const KnowledgeMetadataVersion = 1

// KnowledgeMetadata is the structured payload stored with an exemplar.
type KnowledgeMetadata struct {
	SchemaVersion     int             `json:"schema_version"`
	SignatureTokens   []string        `json:"signature_tokens"`
	SignatureHash     string          `json:"signature_hash"`
	Score             int             `json:"score"`
	CategoryBreakdown map[string]int  `json:"category_breakdown,omitempty"` // non-PASS count per category
	ApprovalsCount    *int            `json:"approvals_count,omitempty"`
	ApprovalState     ApprovalState   `json:"approval_state"`
	MergedAt          *time.Time      `json:"merged_at,omitempty"`
	MergeCommitSHA    string          `json:"merge_commit_sha,omitempty"`
}

// Encode serializes the metadata, stamping the current schema version.
func (m *KnowledgeMetadata) Encode() (string, error) {
	m.SchemaVersion = KnowledgeMetadataVersion
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode knowledge metadata: %w", err)
	}
	return string(data), nil
}

// DecodeKnowledgeMetadata parses a stored metadata payload. Payloads from a
// newer major schema version are rejected rather than partially read.
func DecodeKnowledgeMetadata(raw string) (*KnowledgeMetadata, error) {
	var m KnowledgeMetadata
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("decode knowledge metadata: %w", err)
	}
	if m.SchemaVersion > KnowledgeMetadataVersion {
		return nil, fmt.Errorf("knowledge metadata schema v%d is newer than supported v%d", m.SchemaVersion, KnowledgeMetadataVersion)
	}
	if m.ApprovalState == "" {
		m.ApprovalState = ApprovalUnknown
	}
	return &m, nil
}

// KnowledgeSource is a promoted exemplar in the knowledge corpus.
type KnowledgeSource struct {
	ID          string
	Tenant      string
	SourceType  KnowledgeSourceType
	Provider    string
	ProviderID  string
	Title       string
	SourceURL   string
	Content     string
	ContentHash string // SHA-256 of Content
	Metadata    KnowledgeMetadata
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FeatureSignature is the deduplicated token summary of an MR.
type FeatureSignature struct {
	Tokens []string
	Hash   string
}
