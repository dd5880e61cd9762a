package sdk

import (
	"fmt"
	"time"
)

// Upload status values used by the portal backend. The backend may
// introduce further values; callers should treat unknown statuses as
// opaque strings.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusFailed    = "Failed"
)

// UploadRecord is the metadata row for one ingested data file.
// PK/SK mirror the backend's composite key and are immutable after
// creation; UploadID is unique within a ClinicID.
type UploadRecord struct {
	PK                 string    `json:"PK"`
	SK                 string    `json:"SK"`
	ClinicID           string    `json:"clinicId"`
	UploadID           string    `json:"uploadId"`
	Filename           string    `json:"filename"`
	S3Key              string    `json:"s3Key"`
	UploadedAt         time.Time `json:"uploadedAt"`
	Status             string    `json:"status"`
	RowCount           int       `json:"rowCount"`
	UploadedByEmail    string    `json:"uploadedByEmail,omitempty"`
	UploadedBySub      string    `json:"uploadedBySub,omitempty"`
	UploadedByUsername string    `json:"uploadedByUsername,omitempty"`
}

// Key returns the composite identity of the record. UploadID alone is
// only unique per clinic, so stores key items by this value.
func (u UploadRecord) Key() string {
	return recordKey(u.ClinicID, u.UploadID)
}

// DetailRow is one parsed measurement row belonging to an upload.
// CollectedAt is passed through verbatim from the source file and is
// display-only.
type DetailRow struct {
	SK          string `json:"SK"`
	PatientID   string `json:"patientId"`
	TestCode    string `json:"testCode"`
	Value       string `json:"value"`
	Unit        string `json:"unit"`
	CollectedAt string `json:"collectedAt"`
	UploadID    string `json:"uploadId"`
	SourceKey   string `json:"sourceKey"`
}

// Page is one fetched slice of a remote collection. NextStartKey is an
// opaque continuation cursor, round-tripped verbatim to the server; an
// empty value means there are no further pages.
type Page[T any] struct {
	Items        []T
	NextStartKey string
}

// HasMore reports whether the server indicated a further page.
func (p Page[T]) HasMore() bool { return p.NextStartKey != "" }

// Scope selects which uploads a list call returns.
type Scope string

const (
	// ScopeOwn lists the caller's own clinic (derived server-side from
	// the token's clinic claim). Requires a bearer token.
	ScopeOwn Scope = "own"
	// ScopeAll lists uploads across all clinics. Requires a bearer token
	// with a staff role.
	ScopeAll Scope = "all"
	// ScopePublic uses the unauthenticated public read path.
	ScopePublic Scope = "public"
)

// ListUploadsInput configures a ListUploads call.
type ListUploadsInput struct {
	Scope    Scope
	Limit    int
	StartKey string
}

// DetailInput configures an UploadDetail call. Public selects the
// unauthenticated read path.
type DetailInput struct {
	ClinicID string
	UploadID string
	Limit    int
	StartKey string
	Public   bool
}

// UploadPatch names the mutable metadata fields. Nil fields are not
// sent and must not be touched during local reconciliation.
type UploadPatch struct {
	Filename *string `json:"filename,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// Empty reports whether the patch names no fields.
func (p UploadPatch) Empty() bool { return p.Filename == nil && p.Status == nil }

// UpdateUploadInput identifies the record to patch and the fields to set.
type UpdateUploadInput struct {
	UploadID string
	ClinicID string
	Patch    UploadPatch
}

// CreateResult is the acknowledgment for a file ingestion.
type CreateResult struct {
	UploadID string
	RowCount int
}

// DeleteAck echoes the identity of a confirmed remote deletion.
type DeleteAck struct {
	UploadID string
	ClinicID string
}

func (s Scope) validate() error {
	switch s {
	case ScopeOwn, ScopeAll, ScopePublic:
		return nil
	}
	return fmt.Errorf("unknown list scope %q", string(s))
}
