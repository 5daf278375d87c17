package chunks

// Metafile is the subset of the esbuild metafile used for classification.
type Metafile struct {
	Inputs  map[string]Input  `json:"inputs"`
	Outputs map[string]Output `json:"outputs"`
}

type Input struct {
	Bytes   int      `json:"bytes"`
	Imports []Import `json:"imports"`
}

type Import struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
}

type Output struct {
	Bytes      int                          `json:"bytes"`
	EntryPoint string                       `json:"entryPoint,omitempty"`
	CSSBundle  string                       `json:"cssBundle,omitempty"`
	Imports    []Import                     `json:"imports"`
	Exports    []string                     `json:"exports"`
	Inputs     map[string]InputContribution `json:"inputs"`
}

type InputContribution struct {
	BytesInOutput int `json:"bytesInOutput"`
}
