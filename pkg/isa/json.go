package isa

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// InvestigationFileJSON is the file name of the ISA-JSON dump inside an
// ARC directory.
const InvestigationFileJSON = "i_investigation.json"

// WriteJSON encodes the investigation as indented JSON and writes it to w.
// Key order follows the struct declarations and is stable across runs, so
// consecutive exports of the same project diff cleanly. The output can be
// re-imported for round-trip processing.
func WriteJSON(inv *Investigation, w io.Writer) error {
	out, err := json.MarshalIndent(inv, "", "    ")
	if err != nil {
		return fmt.Errorf("encode investigation: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("write investigation: %w", err)
	}
	return nil
}

// DumpJSON writes i_investigation.json into dir, creating the directory
// if needed.
func DumpJSON(inv *Investigation, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, InvestigationFileJSON)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(inv, f)
}
