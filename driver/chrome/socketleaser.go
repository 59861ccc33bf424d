package chrome

import (
	"context"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

// DefaultSocket a leaser service listens on
const DefaultSocket = "bromine.sock"

// SocketLeaser asks a leaser service on a unix socket for browsers, so tests
// in a container can share browsers started on the host
type SocketLeaser struct {
	leaserClient http.Client
}

// NewSocketLeaser for browsers served over sock
func NewSocketLeaser(sock string) *SocketLeaser {
	if sock == "" {
		sock = DefaultSocket
	}
	s := &SocketLeaser{}
	s.leaserClient = http.Client{
		Transport: &http.Transport{
			DialContext: func(_ context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", sock)
			},
		},
	}
	return s
}

func (s *SocketLeaser) get(path string) (string, int, error) {
	resp, err := s.leaserClient.Get("http://unix/" + path)
	if err != nil {
		return "", 0, err
	}
	body, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", resp.StatusCode, err
	}
	return string(body), resp.StatusCode, nil
}

// Acquire a new browser
func (s *SocketLeaser) Acquire() (string, error) {
	port, status, err := s.get("acquire")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", errors.Errorf("acquire failed with status %d: %s", status, port)
	}
	return port, nil
}

// Count how many browsers
func (s *SocketLeaser) Count() (string, error) {
	count, _, err := s.get("count")
	return count, err
}

// Return (and kill) the browser
func (s *SocketLeaser) Return(port string) error {
	_, status, err := s.get("return?port=" + url.QueryEscape(port))
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		return errors.New("browser not found")
	}
	return nil
}

// Cleanup all old browser processes, hope you weren't running chrome!
func (s *SocketLeaser) Cleanup() (string, error) {
	response, status, err := s.get("cleanup")
	if err != nil {
		return "", err
	}
	if status == http.StatusInternalServerError {
		return "", errors.New(response)
	}
	return response, nil
}
