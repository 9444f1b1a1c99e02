//go:build !unix

package settings

import "os"

func canRead(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func canWrite(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o200 != 0
}
