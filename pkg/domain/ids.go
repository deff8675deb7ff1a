// Package domain defines typed identifiers shared across the certification
// workflow. Wrapping uuid.UUID in distinct types keeps application, farmer, and
// auditor IDs from being swapped at call sites; parsing validates at trust
// boundaries so services can assume non-nil IDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "certflow/pkg/domain-errors"
)

type (
	// ApplicationID identifies one certification request moving through the workflow.
	ApplicationID uuid.UUID
	// FarmerID identifies the applicant who owns an application.
	FarmerID uuid.UUID
	// StaffID identifies a reviewer, scheduler, or approving officer.
	StaffID uuid.UUID
	// AuditorID identifies a field auditor (farm inspector).
	AuditorID uuid.UUID
)

func (id ApplicationID) String() string { return uuid.UUID(id).String() }
func (id FarmerID) String() string      { return uuid.UUID(id).String() }
func (id StaffID) String() string       { return uuid.UUID(id).String() }
func (id AuditorID) String() string     { return uuid.UUID(id).String() }

// MarshalText renders IDs as canonical UUID strings so JSON payloads carry
// "550e8400-..." rather than the raw byte array of the underlying uuid.UUID.
func (id ApplicationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id FarmerID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id StaffID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }
func (id AuditorID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }

func (id *ApplicationID) UnmarshalText(text []byte) error {
	u, err := parse(string(text))
	if err != nil {
		return err
	}
	*id = ApplicationID(u)
	return nil
}

func (id *FarmerID) UnmarshalText(text []byte) error {
	u, err := parse(string(text))
	if err != nil {
		return err
	}
	*id = FarmerID(u)
	return nil
}

func (id *StaffID) UnmarshalText(text []byte) error {
	u, err := parse(string(text))
	if err != nil {
		return err
	}
	*id = StaffID(u)
	return nil
}

func (id *AuditorID) UnmarshalText(text []byte) error {
	u, err := parse(string(text))
	if err != nil {
		return err
	}
	*id = AuditorID(u)
	return nil
}

func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id FarmerID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id StaffID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id AuditorID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }

// NewApplicationID returns a fresh random application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewFarmerID returns a fresh random farmer ID.
func NewFarmerID() FarmerID { return FarmerID(uuid.New()) }

// NewStaffID returns a fresh random staff ID.
func NewStaffID() StaffID { return StaffID(uuid.New()) }

// NewAuditorID returns a fresh random auditor ID.
func NewAuditorID() AuditorID { return AuditorID(uuid.New()) }

// ParseApplicationID parses and validates an application ID from its string form.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parse(s)
	return ApplicationID(u), err
}

// ParseFarmerID parses and validates a farmer ID from its string form.
func ParseFarmerID(s string) (FarmerID, error) {
	u, err := parse(s)
	return FarmerID(u), err
}

// ParseStaffID parses and validates a staff ID from its string form.
func ParseStaffID(s string) (StaffID, error) {
	u, err := parse(s)
	return StaffID(u), err
}

// ParseAuditorID parses and validates an auditor ID from its string form.
func ParseAuditorID(s string) (AuditorID, error) {
	u, err := parse(s)
	return AuditorID(u), err
}

// parse enforces the shared invariant: IDs must be valid, non-empty, non-nil UUIDs.
func parse(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
