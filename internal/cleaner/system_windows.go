//go:build windows

package cleaner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"unsafe"

	"github.com/lakshaymaurya-felt/cleanml/internal/command"
	"github.com/lakshaymaurya-felt/cleanml/internal/core"
)

// ─── Shell32 Syscalls ────────────────────────────────────────────────────────

var (
	modShell32          = syscall.NewLazyDLL("shell32.dll")
	procEmptyRecycleBin = modShell32.NewProc("SHEmptyRecycleBinW")
	procQueryRecycleBin = modShell32.NewProc("SHQueryRecycleBinW")
)

const (
	sherbNoConfirmation = 0x00000001
	sherbNoProgressUI   = 0x00000002
	sherbNoSound        = 0x00000004
)

// shQueryRBInfo mirrors the Windows SHQUERYRBINFO struct.
// Go's natural alignment adds padding after cbSize on AMD64,
// matching the C struct layout on both 32-bit and 64-bit.
type shQueryRBInfo struct {
	cbSize      uint32
	i64Size     int64
	i64NumItems int64
}

// queryRecycleBin returns the size and item count of the Recycle Bin
// across all drives.
func queryRecycleBin() (size, items int64, err error) {
	var info shQueryRBInfo
	info.cbSize = uint32(unsafe.Sizeof(info))

	ret, _, _ := procQueryRecycleBin.Call(0, uintptr(unsafe.Pointer(&info)))
	if ret != 0 {
		return 0, 0, fmt.Errorf("SHQueryRecycleBinW failed: HRESULT 0x%08x", uint32(ret))
	}
	return info.i64Size, info.i64NumItems, nil
}

func emptyRecycleBin(string, func(float64) bool) (int64, error) {
	size, _, _ := queryRecycleBin()

	flags := uintptr(sherbNoConfirmation | sherbNoProgressUI | sherbNoSound)
	ret, _, _ := procEmptyRecycleBin.Call(0, 0, flags)

	// S_OK (0) = success, E_UNEXPECTED (0x8000FFFF) = bin already empty.
	if hr := uint32(ret); hr != 0 && hr != 0x8000FFFF {
		return 0, fmt.Errorf("SHEmptyRecycleBinW failed: HRESULT 0x%08x", hr)
	}
	return size, nil
}

// recycleBin offers one emptying operation when the bin holds anything.
func recycleBin(yield func(command.Command, error) bool) {
	_, items, err := queryRecycleBin()
	if err != nil {
		yield(nil, err)
		return
	}
	if items == 0 {
		return
	}
	yield(command.Function{Label: "Empty the recycle bin", Effect: emptyRecycleBin}, nil)
}

// windowsTempDirs returns the user and system temp directories, with
// %TEMP% and its legacy location deduplicated.
func windowsTempDirs() []string {
	user := os.ExpandEnv(`${USERPROFILE}\Local Settings\Temp`)
	if major, _, _ := core.GetWindowsVersion(); major >= 6 {
		user = os.Getenv("TEMP")
	}
	dirs := []string{user, filepath.Join(os.Getenv("WINDIR"), "Temp")}

	seen := make(map[string]bool)
	var unique []string
	for _, d := range dirs {
		if d == "" {
			continue
		}
		cleaned := filepath.Clean(d)
		key := strings.ToLower(cleaned)
		if !seen[key] {
			seen[key] = true
			unique = append(unique, cleaned)
		}
	}
	return unique
}
