package long

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
)

// WriteArchive bundles the named files of dir into a zip at archivePath.
// Files that do not exist are skipped.
func WriteArchive(dir, archivePath string, names []string) error {
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("long: create archive: %w", err)
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		fw, err := zipWriter.Create(name)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := fw.Write(data); err != nil {
			return err
		}
	}
	if err := zipWriter.Close(); err != nil {
		return fmt.Errorf("long: close archive: %w", err)
	}
	return file.Close()
}
