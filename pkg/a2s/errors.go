package a2s

import "errors"

var (
	ErrShortPacket        = errors.New("a2s: packet too short")
	ErrInvalidHeader      = errors.New("a2s: invalid packet header")
	ErrInvalidSplit       = errors.New("a2s: invalid split packet")
	ErrCompressed         = errors.New("a2s: compressed split packets are not supported")
	ErrUnexpectedResponse = errors.New("a2s: unexpected response type")
	ErrChallenge          = errors.New("a2s: server kept answering with a challenge")
)
