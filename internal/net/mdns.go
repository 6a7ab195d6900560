package net

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_localboard._tcp"

// Advertise announces a hosted board on the LAN. The caller shuts the
// returned server down when hosting stops.
func Advertise(title string, port int, logger *slog.Logger) (*mdns.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"LocalBoard", title})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service, Logger: quietLogger()})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	logger.Info("advertising board", "service", serviceType, "host", host, "port", port)
	return server, nil
}

// Found is a board advertised by another host.
type Found struct {
	Host  string
	Addr  string
	Title string
}

// Link is the join link of the found board.
func (f Found) Link() string { return Scheme + f.Addr }

// Browse queries the LAN for hosted boards for up to timeout, calling found
// for each IPv4 answer.
func Browse(ctx context.Context, timeout time.Duration, found func(Found)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			f := Found{Host: e.Host, Addr: net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port))}
			if len(e.InfoFields) > 1 {
				f.Title = e.InfoFields[1]
			}
			found(f)
		}
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	params.Logger = quietLogger()

	errc := make(chan error, 1)
	go func() { errc <- mdns.Query(params) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
		<-errc
	}
	close(entries)
	<-done
	return err
}

// quietLogger drops the library's own log output; failures surface as
// returned errors.
func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}
