package chrome

import (
	"io/ioutil"
	"net"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// LeaserService hands out running browsers by their debugger port
type LeaserService interface {
	Acquire() (string, error) // returns port number
	Return(port string) error
	Cleanup() (string, error)
	Count() (string, error)
}

func randPort() string {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		log.Warn().Err(err).Msg("unable to get port using default 9022")
		return "9022"
	}
	_, randPort, _ := net.SplitHostPort(l.Addr().String())
	l.Close()
	return randPort
}

func randProfile(tmp string) (string, error) {
	if err := os.MkdirAll(tmp, 0700); err != nil {
		return "", err
	}
	profile, err := ioutil.TempDir(tmp, "bromine")
	if err != nil {
		log.Error().Err(err).Msg("failed to create temporary profile directory")
		return "", err
	}
	// an empty profile would have chrome clean up the system directory on exit
	if profile == "" {
		log.Fatal().Msg("profile returned empty")
	}
	return profile, nil
}

// RemoveTmpContents that the browser created
func RemoveTmpContents(tmp string) error {
	if tmp == "" {
		return nil
	}
	files, err := filepath.Glob(filepath.Join(tmp, "bromine*"))
	if err != nil {
		return err
	}
	for _, file := range files {
		if err = os.RemoveAll(file); err != nil {
			return err
		}
	}
	return nil
}

// KillOldProcesses with a vengence
func KillOldProcesses() error {
	for _, name := range []string{"google-chrome", "chrome", "chromium"} {
		killer := FindKill(name)
		cmd := exec.Command(killer[0], killer[1:]...)
		output, err := cmd.CombinedOutput()
		if err != nil {
			log.Debug().Msgf("%s %s:%s", name, err.Error(), string(output))
		}
	}
	return nil
}
