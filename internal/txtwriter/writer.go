package txtwriter

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// Write stores the header and details in dir/name in a single write, each
// line terminated by "\n". Nothing is written when any line has the wrong width.
//
// RETURNS:
//   - The full path of the written file.
//   - An error if a line is malformed or the file cannot be written.
func Write(dir, name, header string, details []string) (string, error) {
	if len(header) != HeaderWidth {
		return "", errors.Errorf("header is %d bytes, want %d", len(header), HeaderWidth)
	}

	var buf bytes.Buffer
	buf.Grow(HeaderWidth + 1 + len(details)*(DetailWidth+1))
	buf.WriteString(header)
	buf.WriteByte('\n')
	for i, d := range details {
		if len(d) != DetailWidth {
			return "", errors.Errorf("detail %d is %d bytes, want %d", i+1, len(d), DetailWidth)
		}
		buf.WriteString(d)
		buf.WriteByte('\n')
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", errors.Wrap(err, "write txt")
	}
	return path, nil
}
