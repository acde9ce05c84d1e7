package version

import "errors"

var (
	ErrBadNonceLength = errors.New("version: nonce has wrong length for this version")
	ErrBadType        = errors.New("version: TYPE must be four zero bytes")
	ErrBadVers        = errors.New("version: VERS must be nonempty, at most 32 entries, strictly ascending")
)
