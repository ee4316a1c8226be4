//go:build !windows

package process

const caseInsensitive = false

func hostProcessNames() ([]string, error) {
	return gopsutilNames()
}
