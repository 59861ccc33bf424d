package chrome

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ChromeEnv overrides the chrome binary FindChrome returns
const ChromeEnv = "BROMINE_CHROME"

var linuxChromes = []string{"chromium-browser", "chromium", "google-chrome", "google-chrome-stable"}

// FindChrome on the FS, returns the binary (empty if none) and a temp directory for profiles
func FindChrome() (string, string) {
	tmp := filepath.Join(os.TempDir(), "bromine")
	if chrome := os.Getenv(ChromeEnv); chrome != "" {
		return chrome, tmp
	}

	switch runtime.GOOS {
	case "windows":
		return "C:\\Program Files (x86)\\Google\\Chrome\\Application\\chrome.exe", tmp
	case "darwin":
		return "/Applications/Google Chrome.app/Contents/MacOS/Google Chrome", tmp
	case "linux":
		for _, name := range linuxChromes {
			if path, err := exec.LookPath(name); err == nil {
				return path, tmp
			}
		}
	}
	return "", tmp
}

// FindKill based on OS
func FindKill(browser string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"taskkill", "/IM", browser + ".exe"}
	}
	return []string{"killall", browser}
}
