package output

import (
	"fmt"
	"io"
)

// Side describes one materialized side.
type Side struct {
	Spec string `json:"spec"`
	Dir  string `json:"dir"`
}

// Plan is what a run would do.
type Plan struct {
	Repo     string   `json:"repo"`
	Left     Side     `json:"left"`
	Right    Side     `json:"right"`
	Mode     string   `json:"mode"`
	Base     string   `json:"base,omitempty"`
	Tool     string   `json:"tool"`
	CopyBack bool     `json:"copyBack"`
	Paths    []string `json:"paths"`
}

// Writer writes a plan in a specific format.
type Writer interface {
	Write(w io.Writer, plan *Plan) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WritePlan writes plan to w in format.
func WritePlan(w io.Writer, plan *Plan, format string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	return writer.Write(w, plan)
}
