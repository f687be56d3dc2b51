package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatYAML   = "yaml"
	formatJSON   = "json"
	formatCBOR   = "cbor"
	formatPrompt = "prompt"
)

// cborMode encodes with Core Deterministic Encoding (RFC 8949 §4.2), so the
// same sections always produce the same bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	options := cbor.CoreDetEncOptions()
	options.Time = cbor.TimeRFC3339Nano
	options.TextMarshaler = cbor.TextMarshalerTextString
	cborMode, err = options.EncMode()
	if err != nil {
		panic("cli: CBOR encoder initialization failed: " + err.Error())
	}
}

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("unknown output format %q (expected one of %v)", format, allowed)
}

// writeOutput encodes v to the command's stdout.
func writeOutput(cmd *cobra.Command, format string, v any) error {
	return encodeOutput(cmd.OutOrStdout(), format, v)
}

func encodeOutput(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatCBOR:
		return cborMode.NewEncoder(w).Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("output format %q cannot encode data", format)
}
