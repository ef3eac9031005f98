package export

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnavailable is returned when no clipboard tool is installed
var ErrClipboardUnavailable = errors.New("no clipboard utility available")

// CopyPath puts a saved recording's path on the system clipboard
func CopyPath(path string) error {
	if clipboard.Unsupported {
		return ErrClipboardUnavailable
	}
	return clipboard.WriteAll(path)
}
