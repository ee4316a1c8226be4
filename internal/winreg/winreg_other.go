//go:build !windows

package winreg

// Exists always reports false outside Windows.
func Exists(full, value string, hasValue bool) bool {
	return false
}

// Delete always fails with ErrUnsupported outside Windows.
func Delete(full, value string, hasValue bool) error {
	return ErrUnsupported
}
