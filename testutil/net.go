/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"fmt"
	"net"
	"time"
)

const dialRetryInterval = 10 * time.Millisecond

// GetLocalAddrWithFreeTCPPort returns a 127.0.0.1:<port> address where nobody listens at the moment of the call.
func GetLocalAddrWithFreeTCPPort() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer func() {
		if closeErr := l.Close(); closeErr != nil {
			panic(closeErr)
		}
	}()
	return l.Addr().String()
}

// WaitListeningServer polls addr until a TCP connection succeeds or the timeout elapses.
func WaitListeningServer(addr string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", addr, time.Second)
		if err == nil {
			return conn.Close()
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("server on %s is not listening after %s: %w", addr, timeout, err)
		}
		time.Sleep(dialRetryInterval)
	}
}
