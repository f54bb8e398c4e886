package port

import "github.com/pkg/errors"

// Store-level sentinels. Adapters translate driver errors into these so the
// core never sees sql.ErrNoRows or driver error codes.
var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrVersionConflict = errors.New("version conflict")
)
