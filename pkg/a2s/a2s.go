// Package a2s implements the client side of the Source engine A2S_INFO query.
package a2s

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// DefaultTimeout bounds a whole query round-trip when Client.Timeout is zero.
const DefaultTimeout = 5 * time.Second

const (
	maxPacketSize = 4096
	maxChallenges = 3

	simpleHeader int32 = -1
	splitHeader  int32 = -2

	infoRequestType   byte = 'T'
	infoResponseType  byte = 'I'
	challengeResponse byte = 'A'
)

var infoPayload = []byte("Source Engine Query\x00")

// Client queries game servers. The zero value is ready to use.
type Client struct {
	// Timeout is applied to the UDP socket for the whole exchange, challenge included.
	Timeout time.Duration
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c *Client) connect(ctx context.Context, addr string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	deadline := time.Now().Add(c.timeout())
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}
	return conn, nil
}

// Info sends A2S_INFO to addr (host:port of the query port) and decodes the reply.
// A S2C_CHALLENGE reply is answered by resending the request with the challenge attached.
func (c *Client) Info(ctx context.Context, addr string) (*Info, error) {
	conn, err := c.connect(ctx, addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	defer stop()

	req := infoRequest(nil)
	for attempt := 0; ; attempt++ {
		if _, err := conn.Write(req); err != nil {
			return nil, fmt.Errorf("failed to send info request: %w", err)
		}
		payload, err := receive(conn)
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			return nil, ErrShortPacket
		}
		switch payload[0] {
		case challengeResponse:
			if len(payload) < 5 {
				return nil, ErrShortPacket
			}
			if attempt >= maxChallenges {
				return nil, ErrChallenge
			}
			req = infoRequest(payload[1:5])
		case infoResponseType:
			return parseInfo(payload)
		default:
			return nil, fmt.Errorf("%w: 0x%02x", ErrUnexpectedResponse, payload[0])
		}
	}
}

func infoRequest(challenge []byte) []byte {
	req := make([]byte, 0, 5+len(infoPayload)+len(challenge))
	req = append(req, 0xFF, 0xFF, 0xFF, 0xFF, infoRequestType)
	req = append(req, infoPayload...)
	return append(req, challenge...)
}

// receive reads one logical response, reassembling split packets, and returns it
// without the leading 0xFFFFFFFF header.
func receive(conn net.Conn) ([]byte, error) {
	var (
		parts   map[byte][]byte
		splitID int32
		total   byte
	)
	buf := make([]byte, maxPacketSize)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		pkt := buf[:n]
		if len(pkt) < 4 {
			return nil, ErrShortPacket
		}
		switch int32(binary.LittleEndian.Uint32(pkt)) {
		case simpleHeader:
			return bytes.Clone(pkt[4:]), nil
		case splitHeader:
			h, body, err := parseSplit(pkt[4:])
			if err != nil {
				return nil, err
			}
			if parts == nil {
				parts = make(map[byte][]byte, h.total)
				splitID, total = h.id, h.total
			}
			if h.id != splitID {
				continue
			}
			parts[h.number] = bytes.Clone(body)
			if len(parts) < int(total) {
				continue
			}
			var whole []byte
			for i := byte(0); i < total; i++ {
				part, ok := parts[i]
				if !ok {
					return nil, ErrInvalidSplit
				}
				whole = append(whole, part...)
			}
			if len(whole) < 4 || int32(binary.LittleEndian.Uint32(whole)) != simpleHeader {
				return nil, ErrInvalidHeader
			}
			return whole[4:], nil
		default:
			return nil, ErrInvalidHeader
		}
	}
}

type splitInfo struct {
	id     int32
	total  byte
	number byte
}

// parseSplit decodes the Source engine split header: id, total, number, size.
func parseSplit(b []byte) (splitInfo, []byte, error) {
	if len(b) < 8 {
		return splitInfo{}, nil, ErrShortPacket
	}
	h := splitInfo{
		id:     int32(binary.LittleEndian.Uint32(b)),
		total:  b[4],
		number: b[5],
	}
	if uint32(h.id)&0x80000000 != 0 {
		return h, nil, ErrCompressed
	}
	if h.total == 0 || h.number >= h.total {
		return h, nil, ErrInvalidSplit
	}
	return h, b[8:], nil
}
