package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONWriter outputs the full plan as JSON.
type JSONWriter struct{}

func (j *JSONWriter) Write(w io.Writer, plan *Plan) error {
	p := *plan
	if p.Paths == nil {
		p.Paths = []string{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
