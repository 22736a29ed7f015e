package migration

import "errors"

// ErrNotFound is returned by record store reads when no row matches.
var ErrNotFound = errors.New("record not found")

// Structural errors abort one instance's rewrite.
var (
	ErrElementNotFound   = errors.New("substrate element not found")
	ErrGroupNotFound     = errors.New("replica group not found")
	ErrTemplateNotFound  = errors.New("substrate config not found")
	ErrBlueprintNotFound = errors.New("clone blueprint not found")
	ErrAccountNotMapped  = errors.New("destination cluster has no mapped account")
	ErrNicCountMismatch  = errors.New("record has more nics than the destination vm")
	ErrDiskCountMismatch = errors.New("record has more disks than the destination vm")
	ErrNoDestinationNics = errors.New("destination vm has no nics")
)

// ErrDestinationAccountNotFound means no management-plane account points at
// the destination endpoint. It is fatal at startup.
var ErrDestinationAccountNotFound = errors.New("destination management plane account not found")
