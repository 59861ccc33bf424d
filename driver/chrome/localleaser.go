package chrome

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
)

// LocalLeaser starts chrome processes on this machine
type LocalLeaser struct {
	browserLock sync.RWMutex
	browsers    map[string]*gcd.Gcd
	chrome      string
	tmp         string
	headless    bool
}

// NewLocalLeaser using the chrome binary found by FindChrome
func NewLocalLeaser(headless bool) *LocalLeaser {
	chrome, tmp := FindChrome()
	return &LocalLeaser{
		browsers: make(map[string]*gcd.Gcd),
		chrome:   chrome,
		tmp:      tmp,
		headless: headless,
	}
}

// Acquire starts a new chrome process and returns its debugger port
func (s *LocalLeaser) Acquire() (string, error) {
	if s.chrome == "" {
		return "", ErrNoChrome
	}
	b := gcd.NewChromeDebugger()
	b.DeleteProfileOnExit()

	profileDir, err := randProfile(s.tmp)
	if err != nil {
		return "", err
	}
	port := randPort()

	b.AddFlags(chromeFlags(s.headless))
	if err := b.StartProcess(s.chrome, profileDir, port); err != nil {
		return "", errors.Wrap(err, "failed to start chrome")
	}
	log.Debug().Str("port", port).Str("profile", profileDir).Msg("started chrome")

	s.browserLock.Lock()
	s.browsers[port] = b
	s.browserLock.Unlock()
	return port, nil
}

// Count of running browsers
func (s *LocalLeaser) Count() (string, error) {
	s.browserLock.RLock()
	count := len(s.browsers)
	s.browserLock.RUnlock()
	return strconv.Itoa(count), nil
}

// Return (and kill) the browser on port
func (s *LocalLeaser) Return(port string) error {
	s.browserLock.Lock()
	defer s.browserLock.Unlock()

	if b, ok := s.browsers[port]; ok {
		if err := b.ExitProcess(); err != nil {
			return err
		}
		delete(s.browsers, port)
		return nil
	}
	return errors.New("not found")
}

// Cleanup exits every browser this leaser started and removes their profiles
func (s *LocalLeaser) Cleanup() (string, error) {
	s.browserLock.Lock()
	for port, b := range s.browsers {
		if err := b.ExitProcess(); err != nil {
			log.Warn().Err(err).Str("port", port).Msg("failed to exit chrome")
		}
		delete(s.browsers, port)
	}
	s.browserLock.Unlock()

	if err := RemoveTmpContents(s.tmp); err != nil {
		return "", err
	}
	return "ok", nil
}
