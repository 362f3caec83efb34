package dayz

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

const DefaultServerName = "DayZ Server"

// Env describes the monitored server. Binaries embed it in their own env struct.
type Env struct {
	// A2S query address (IP:QUERYPORT), not the game port.
	ServerAddress string `envconfig:"SERVER_ADDRESS"`
	ServerName    string `envconfig:"SERVER_NAME" default:"DayZ Server"`
}

func (e Env) Validate() error {
	if e.ServerAddress == "" {
		return errors.New("SERVER_ADDRESS is required")
	}
	host, port, err := net.SplitHostPort(e.ServerAddress)
	if err != nil {
		return fmt.Errorf("invalid SERVER_ADDRESS %q: %w", e.ServerAddress, err)
	}
	if host == "" {
		return fmt.Errorf("invalid SERVER_ADDRESS %q: missing host", e.ServerAddress)
	}
	if p, err := strconv.ParseUint(port, 10, 16); err != nil || p == 0 {
		return fmt.Errorf("invalid SERVER_ADDRESS %q: bad port %q", e.ServerAddress, port)
	}
	return nil
}
