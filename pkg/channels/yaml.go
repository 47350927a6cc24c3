package channels

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/yaml.v3"
)

// validateYAML parses all documents of a possibly multi-document YAML
// stream and returns the first syntax error. Content is never retained.
func validateYAML(content []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	for {
		var doc any
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
