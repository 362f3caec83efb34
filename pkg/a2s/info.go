package a2s

import (
	"bytes"
	"encoding/binary"
)

// Extra Data Flag bits of an A2S_INFO response.
const (
	EDFGameID   byte = 0x01
	EDFSteamID  byte = 0x10
	EDFKeywords byte = 0x20
	EDFSourceTV byte = 0x40
	EDFGamePort byte = 0x80
)

const theShipAppID = 2400

// Info is a decoded A2S_INFO response.
type Info struct {
	Protocol    byte
	Name        string
	Map         string
	Folder      string
	Game        string
	AppID       uint16
	Players     uint8
	MaxPlayers  uint8
	Bots        uint8
	ServerType  byte // 'd' dedicated, 'l' listen, 'p' proxy
	Environment byte // 'l' linux, 'w' windows, 'm'/'o' mac
	Visibility  bool
	VAC         bool
	TheShip     *TheShip
	Version     string

	EDF      byte
	GamePort uint16
	SteamID  uint64
	SourceTV *SourceTV
	Keywords string
	GameID   uint64
}

type TheShip struct {
	Mode      byte
	Witnesses byte
	Duration  byte
}

type SourceTV struct {
	Port uint16
	Name string
}

// HasKeywords reports whether the server sent a keyword string at all.
// An empty Keywords with HasKeywords true means the server sent an empty string.
func (i *Info) HasKeywords() bool {
	return i.EDF&EDFKeywords != 0
}

func parseInfo(payload []byte) (*Info, error) {
	buf := bytes.NewBuffer(payload)
	if h, err := buf.ReadByte(); err != nil || h != infoResponseType {
		return nil, ErrUnexpectedResponse
	}

	info := &Info{}
	var err error
	if info.Protocol, err = buf.ReadByte(); err != nil {
		return nil, ErrShortPacket
	}
	for _, s := range []*string{&info.Name, &info.Map, &info.Folder, &info.Game} {
		if *s, err = readString(buf); err != nil {
			return nil, err
		}
	}
	if info.AppID, err = readUint16(buf); err != nil {
		return nil, err
	}
	fixed := buf.Next(7)
	if len(fixed) != 7 {
		return nil, ErrShortPacket
	}
	info.Players = fixed[0]
	info.MaxPlayers = fixed[1]
	info.Bots = fixed[2]
	info.ServerType = fixed[3]
	info.Environment = fixed[4]
	info.Visibility = fixed[5] == 1
	info.VAC = fixed[6] == 1

	if info.AppID == theShipAppID {
		ship := buf.Next(3)
		if len(ship) != 3 {
			return nil, ErrShortPacket
		}
		info.TheShip = &TheShip{Mode: ship[0], Witnesses: ship[1], Duration: ship[2]}
	}
	if info.Version, err = readString(buf); err != nil {
		return nil, err
	}

	// EDF and everything after it is optional.
	if info.EDF, err = buf.ReadByte(); err != nil {
		info.EDF = 0
		return info, nil
	}
	if info.EDF&EDFGamePort != 0 {
		if info.GamePort, err = readUint16(buf); err != nil {
			return nil, err
		}
	}
	if info.EDF&EDFSteamID != 0 {
		if info.SteamID, err = readUint64(buf); err != nil {
			return nil, err
		}
	}
	if info.EDF&EDFSourceTV != 0 {
		tv := &SourceTV{}
		if tv.Port, err = readUint16(buf); err != nil {
			return nil, err
		}
		if tv.Name, err = readString(buf); err != nil {
			return nil, err
		}
		info.SourceTV = tv
	}
	if info.EDF&EDFKeywords != 0 {
		if info.Keywords, err = readString(buf); err != nil {
			return nil, err
		}
	}
	if info.EDF&EDFGameID != 0 {
		if info.GameID, err = readUint64(buf); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func readString(buf *bytes.Buffer) (string, error) {
	raw, err := buf.ReadBytes(0)
	if err != nil {
		return "", ErrShortPacket
	}
	return string(raw[:len(raw)-1]), nil
}

func readUint16(buf *bytes.Buffer) (uint16, error) {
	b := buf.Next(2)
	if len(b) != 2 {
		return 0, ErrShortPacket
	}
	return binary.LittleEndian.Uint16(b), nil
}

func readUint64(buf *bytes.Buffer) (uint64, error) {
	b := buf.Next(8)
	if len(b) != 8 {
		return 0, ErrShortPacket
	}
	return binary.LittleEndian.Uint64(b), nil
}
