// Package output renders cleaning results for the command line
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bnema/linkers/internal/cleaner"
)

// Supported formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted --format values
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Write renders links in the given format. Text output lists only the
// cleaned URLs of included links; JSON and YAML carry every link.
func Write(w io.Writer, format string, links []cleaner.Link) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return writeText(w, links)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(nonNil(links))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(nonNil(links)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func writeText(w io.Writer, links []cleaner.Link) error {
	for _, l := range links {
		if !l.Included {
			continue
		}
		if _, err := fmt.Fprintln(w, l.Cleaned); err != nil {
			return err
		}
	}
	return nil
}

// nonNil makes an empty result encode as [] rather than null
func nonNil(links []cleaner.Link) []cleaner.Link {
	if links == nil {
		return []cleaner.Link{}
	}
	return links
}
