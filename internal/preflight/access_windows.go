//go:build windows

package preflight

import "os"

// checkReadWrite probes write access by creating and removing a temp file;
// Windows ACLs are not reflected in mode bits.
func checkReadWrite(path string) error {
	f, err := os.CreateTemp(path, ".apod-preflight-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
