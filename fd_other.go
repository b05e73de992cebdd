//go:build !linux && !darwin

package reactor

func closeFD(int) error {
	return ErrUnsupportedPlatform
}
