// Package files provides file system helpers for the data directory.
//
// FindYearFiles lists the per-year count files (yobYYYY.txt) and returns them in
// year order. WriteAtomic writes generated artifacts through a temp file and
// a rename so that a reader never sees a half-written reference table.
//
// Example usage:
//
//	yearFiles, err := files.FindYearFiles(paths.NamesDir)
//
//	err = files.WriteAtomic(paths.GenderReferenceFile, func(w io.Writer) error {
//	    return writeRows(w, rows)
//	})
package files
