package chrome_test

import (
	"os"
	"testing"

	"gitlab.com/bromine/driver/chrome"
)

func TestFindChromeEnv(t *testing.T) {
	old := os.Getenv(chrome.ChromeEnv)
	defer os.Setenv(chrome.ChromeEnv, old)

	os.Setenv(chrome.ChromeEnv, "/opt/chrome/chrome")
	bin, tmp := chrome.FindChrome()
	if bin != "/opt/chrome/chrome" {
		t.Fatalf("expected env override got %s", bin)
	}
	if tmp == "" {
		t.Fatalf("expected a temp directory")
	}
}

func TestFindKill(t *testing.T) {
	killer := chrome.FindKill("chrome")
	if len(killer) < 2 {
		t.Fatalf("expected a kill command got %v", killer)
	}
}

func TestLocalLeaserNoChrome(t *testing.T) {
	old := os.Getenv(chrome.ChromeEnv)
	defer os.Setenv(chrome.ChromeEnv, old)
	os.Unsetenv(chrome.ChromeEnv)

	leaser := chrome.NewLocalLeaser(true)
	if count, _ := leaser.Count(); count != "0" {
		t.Fatalf("expected no browsers got %s", count)
	}
	if err := leaser.Return("1234"); err == nil {
		t.Fatalf("expected error returning unknown browser")
	}
}
