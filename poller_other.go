//go:build !linux

package reactor

// poller is unavailable off Linux; New fails with ErrUnsupportedPlatform.
type poller struct{}

func (p *poller) init() error              { return ErrUnsupportedPlatform }
func (p *poller) close() error             { return nil }
func (p *poller) addWake(int, int32) error { return ErrUnsupportedPlatform }
func (p *poller) add(int, int32) error     { return ErrUnsupportedPlatform }
func (p *poller) del(int) error            { return ErrUnsupportedPlatform }

func (p *poller) wait(int, func(int, int32, IOEvents)) (int, error) {
	return 0, ErrUnsupportedPlatform
}

func createWakeFd() (int, error) { return -1, ErrUnsupportedPlatform }

func signalWakeFd(int) error { return ErrUnsupportedPlatform }

func drainWakeFd(int) {}
