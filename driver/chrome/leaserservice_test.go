package chrome_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/bromine/driver/chrome"
)

type fakeLeaser struct {
	next    int
	leased  map[string]bool
	cleaned bool
}

func (f *fakeLeaser) Acquire() (string, error) {
	f.next++
	port := strconv.Itoa(9000 + f.next)
	f.leased[port] = true
	return port, nil
}

func (f *fakeLeaser) Return(port string) error {
	if !f.leased[port] {
		return errors.New("not found")
	}
	delete(f.leased, port)
	return nil
}

func (f *fakeLeaser) Cleanup() (string, error) {
	f.cleaned = true
	return "ok", nil
}

func (f *fakeLeaser) Count() (string, error) {
	return strconv.Itoa(len(f.leased)), nil
}

func TestSocketLeaserServer(t *testing.T) {
	dir, err := ioutil.TempDir("", "leaser")
	if err != nil {
		t.Fatalf("error making dir: %s", err)
	}
	defer os.RemoveAll(dir)
	sock := filepath.Join(dir, chrome.DefaultSocket)

	fake := &fakeLeaser{leased: make(map[string]bool)}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv := chrome.NewLeaserServer(fake, sock)
	go srv.Serve(ctx)

	for i := 0; i < 50; i++ {
		if _, err := os.Stat(sock); err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	client := chrome.NewSocketLeaser(sock)
	port, err := client.Acquire()
	if err != nil || port != "9001" {
		t.Fatalf("expected port 9001 got %q (%v)", port, err)
	}
	if count, _ := client.Count(); count != "1" {
		t.Fatalf("expected 1 leased browser got %s", count)
	}
	if err := client.Return(port); err != nil {
		t.Fatalf("error returning browser: %s", err)
	}
	if err := client.Return("1"); err == nil {
		t.Fatalf("expected error returning unknown browser")
	}
	if resp, err := client.Cleanup(); err != nil || resp != "ok" || !fake.cleaned {
		t.Fatalf("expected cleanup to reach the leaser (%s, %v)", resp, err)
	}
}
