//go:build !unix

package core

import "net"

func tuneTCPConn(tc *net.TCPConn) error {
	if err := tc.SetNoDelay(true); err != nil {
		return err
	}
	return tc.SetKeepAlive(true)
}
