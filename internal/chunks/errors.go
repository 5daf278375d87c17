package chunks

import "errors"

var (
	// ErrNotVendorModule indicates a path has no package below a node_modules directory
	ErrNotVendorModule = errors.New("module is not inside node_modules")
	// ErrEmptyGroup indicates the chunk group label is missing
	ErrEmptyGroup = errors.New("chunk group label is empty")
)
