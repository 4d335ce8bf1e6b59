// Package report serializes the final result set to a file, one
// "<address>#<colo> <index>" line per record.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lu-lingyun/CFTest/pkg/scan"
	fileutil "github.com/projectdiscovery/utils/file"
)

// DefaultFilename is where the report goes when no destination is given.
const DefaultFilename = "output.txt"

// Write emits the records to path in the order the aggregator
// established, creating the parent folder when needed.
func Write(path string, records []scan.Record) error {
	if path == "" {
		path = DefaultFilename
	}
	if dir := filepath.Dir(path); dir != "." && !fileutil.FolderExists(dir) {
		if err := fileutil.CreateFolder(dir); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	for _, record := range records {
		if _, err := fmt.Fprintf(file, "%s#%s %d\n", record.Address, record.Colo, record.Index); err != nil {
			return err
		}
	}
	return nil
}
