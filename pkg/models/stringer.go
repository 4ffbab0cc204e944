package models

// String methods for all custom string types.
// These are required for toon serialization, which uses fmt.Stringer.

// FileStatus
func (s FileStatus) String() string { return string(s) }

// LineKind
func (k LineKind) String() string { return string(k) }

// FindingKind
func (k FindingKind) String() string { return string(k) }

// ConfidenceLevel
func (c ConfidenceLevel) String() string { return string(c) }
