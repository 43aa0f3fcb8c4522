package surrealcrud

import (
	"net"
)

// localIP returns the address of the interface that routes to the outside world.
// Dialing UDP sends no packets; it only asks the kernel to pick a source address.
// It falls back to the loopback address when no route exists.
func localIP() string {
	conn, err := net.Dial("udp", "10.255.255.255:1")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()
	if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsUnspecified() {
		return addr.IP.String()
	}
	return "127.0.0.1"
}
