//go:build windows

package picker

import "os"

func termSize(*os.File) (width, height int) { return 0, 0 }
