package chrome

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/wirepair/gcd"
)

// Session is a leased chrome process with one tab to drive. The embedded Tab
// implements bromine.Driver.
type Session struct {
	*Tab
	leaser LeaserService
	g      *gcd.Gcd
	port   string
}

// Open leases a browser, connects to it and opens a fresh tab
func Open(ctx context.Context, leaser LeaserService) (*Session, error) {
	port, err := leaser.Acquire()
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire browser")
	}

	g := gcd.NewChromeDebugger()
	if err := g.ConnectToInstance("localhost", port); err != nil {
		release(ctx, leaser, port)
		return nil, errors.Wrap(err, "failed to connect to browser")
	}

	target, err := g.NewTab()
	if err != nil {
		release(ctx, leaser, port)
		return nil, errors.Wrap(err, "failed to open tab")
	}

	log.Ctx(ctx).Debug().Str("port", port).Msg("session opened")
	return &Session{
		Tab:    NewTab(ctx, g, target),
		leaser: leaser,
		g:      g,
		port:   port,
	}, nil
}

// Port of the debugger this session is attached to
func (s *Session) Port() string {
	return s.port
}

// Close the tab and return the browser to the leaser
func (s *Session) Close() error {
	s.Tab.Close()
	if err := s.g.CloseTab(s.Tab.Target()); err != nil {
		log.Debug().Err(err).Msg("failed to close tab")
	}
	return s.leaser.Return(s.port)
}

// release a browser that never got a usable tab. gcd keeps no connection open
// until a tab exists, returning the port exits the process and its debugger.
func release(ctx context.Context, leaser LeaserService, port string) {
	if err := leaser.Return(port); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("port", port).Msg("failed to return browser")
	}
}
