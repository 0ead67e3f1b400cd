package blofeld

import (
	"errors"
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
)

const (
	waldorfID = 0x3E
	blofeldID = 0x13

	msgSNDR = 0x00 // sound request
	msgSNDD = 0x10 // sound dump

	// BroadcastDevice addresses every Blofeld on the cable.
	BroadcastDevice byte = 0x7F
	// EditBufferBank with program 0 addresses the sound being edited.
	EditBufferBank byte = 0x7F

	// checksumWildcard is accepted in place of a real checksum.
	checksumWildcard = 0x7F
)

var ErrNotBlofeld = errors.New("not a Waldorf Blofeld sysex message")

// Location is where a sound dump is stored: device, bank and program as
// sent on the wire (bank 0 is A, program 0 is 1).
type Location struct {
	Device  byte
	Bank    byte
	Program byte
}

// ParseLocation validates a bank letter A to H and a program 1 to 128.
func ParseLocation(device byte, bank string, program int) (Location, error) {
	if bank == "" {
		return Location{}, errors.New("bank must not be empty")
	}
	ch := strings.ToUpper(bank)[0]
	if len(bank) != 1 || ch < 'A' || ch > 'H' {
		return Location{}, fmt.Errorf("bank must be A-H, got %q", bank)
	}
	if program < 1 || program > 128 {
		return Location{}, fmt.Errorf("program must be in range 1-128, got %d", program)
	}
	return Location{Device: device, Bank: ch - 'A', Program: byte(program - 1)}, nil
}

// EditBuffer is the location of the sound currently being edited.
func EditBuffer(device byte) Location {
	return Location{Device: device, Bank: EditBufferBank}
}

func (l Location) String() string {
	if l.Bank == EditBufferBank {
		return "edit buffer"
	}
	return fmt.Sprintf("%c%03d", 'A'+l.Bank, int(l.Program)+1)
}

func checksum(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return sum & 0x7F
}

// SNDD builds the sound dump message storing s at loc.
func (s *Sound) SNDD(loc Location) (midi.Message, error) {
	sdata, err := s.SDATA()
	if err != nil {
		return nil, err
	}
	body := make([]byte, 0, SoundSize+7)
	body = append(body, waldorfID, blofeldID, loc.Device, msgSNDD, loc.Bank, loc.Program)
	body = append(body, sdata...)
	body = append(body, checksum(sdata))
	return midi.SysEx(body), nil
}

// SNDR builds the request asking a Blofeld to dump the sound at loc.
func SNDR(loc Location) midi.Message {
	return midi.SysEx([]byte{waldorfID, blofeldID, loc.Device, msgSNDR, loc.Bank, loc.Program})
}

// ParseSNDD decodes a sound dump message.
func ParseSNDD(msg midi.Message) (*Sound, Location, error) {
	var body []byte
	if !msg.GetSysEx(&body) {
		return nil, Location{}, ErrNotBlofeld
	}
	if len(body) < 4 || body[0] != waldorfID || body[1] != blofeldID {
		return nil, Location{}, ErrNotBlofeld
	}
	if body[3] != msgSNDD {
		return nil, Location{}, fmt.Errorf("unexpected message type 0x%02X (expected SNDD 0x%02X)", body[3], msgSNDD)
	}
	if len(body) != SoundSize+7 {
		return nil, Location{}, fmt.Errorf("unexpected dump size %d (want %d)", len(body)+2, SoundSize+9)
	}

	loc := Location{Device: body[2], Bank: body[4], Program: body[5]}
	sdata := body[6 : 6+SoundSize]
	if sum := body[6+SoundSize]; sum != checksumWildcard && sum != checksum(sdata) {
		return nil, loc, fmt.Errorf("checksum mismatch: expected 0x%02X got 0x%02X", checksum(sdata), sum)
	}
	s, err := ParseSDATA(sdata)
	return s, loc, err
}
