//go:build !unix && !windows

package install

import "os"

// Platforms without advisory locks run unlocked.
func tryLock(*os.File) error { return nil }

func unlock(*os.File) error { return nil }
