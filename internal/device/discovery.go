package device

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"time"
)

// DiscoveryPort is where thermostats broadcast "ONE <device_id>".
const DiscoveryPort = 11000

const announcePrefix = "ONE "

// Announcement is one thermostat found on the LAN.
type Announcement struct {
	DeviceID string
	Host     string
}

// ParseAnnouncement extracts the device id from a broadcast datagram.
func ParseAnnouncement(msg []byte) (string, bool) {
	msg = bytes.TrimRight(msg, "\x00\r\n ")
	if !bytes.HasPrefix(msg, []byte(announcePrefix)) {
		return "", false
	}
	fields := bytes.Fields(msg[len(announcePrefix):])
	if len(fields) == 0 {
		return "", false
	}
	return string(fields[0]), true
}

// ListenDiscovery opens the UDP socket thermostats broadcast to.
// An empty addr listens on all interfaces at DiscoveryPort.
func ListenDiscovery(addr string) (net.PacketConn, error) {
	if addr == "" {
		addr = ":" + strconv.Itoa(DiscoveryPort)
	}
	return net.ListenPacket("udp4", addr)
}

// Discover waits on conn for the first valid announcement. Other datagrams
// are ignored. It returns ctx.Err() when ctx ends first.
func Discover(ctx context.Context, conn net.PacketConn) (Announcement, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, 512)
	for {
		n, from, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return Announcement{}, ctx.Err()
			}
			return Announcement{}, &TransportError{Op: "discover", Target: conn.LocalAddr().String(), Err: err}
		}
		id, ok := ParseAnnouncement(buf[:n])
		if !ok {
			continue
		}
		host := from.String()
		if ua, ok := from.(*net.UDPAddr); ok {
			host = ua.IP.String()
		}
		return Announcement{DeviceID: id, Host: host}, nil
	}
}
