package types

import "encoding/json"

type diagnosticJSON struct {
	Path  string       `json:"path"`
	Op    DiagnosticOp `json:"op"`
	Error string       `json:"error"`
}

func marshalDiagnostic(d Diagnostic) ([]byte, error) {
	return json.Marshal(diagnosticJSON{Path: d.Path, Op: d.Op, Error: d.Message()})
}
