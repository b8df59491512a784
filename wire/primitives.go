package wire

import (
	"encoding/binary"
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
)

// Hash256Size is the length in bytes of a double-SHA-256 digest.
const Hash256Size = 32

// Hash256 is a 32-byte double-SHA-256 digest, stored and transmitted
// little-endian as Bitcoin's block/transaction hashes always are.
type Hash256 [Hash256Size]byte

func (h Hash256) String() string {
	// Bitcoin hashes print big-endian (reversed) by convention.
	reversed := make([]byte, Hash256Size)
	for i := 0; i < Hash256Size; i++ {
		reversed[i] = h[Hash256Size-1-i]
	}
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 0, Hash256Size*2)
	for _, b := range reversed {
		out = append(out, hexDigits[b>>4], hexDigits[b&0x0f])
	}
	return string(out)
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeInt32(w io.Writer, v int32) error {
	return writeUint32(w, uint32(v))
}

func readInt32(r io.Reader) (int32, error) {
	v, err := readUint32(r)
	return int32(v), err
}

func nowUnix() int64 {
	return time.Now().Unix()
}

func writeUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// WriteVarInt writes val as a variable-length integer.A.
func WriteVarInt(w io.Writer, val uint64) error {
	switch {
	case val < 0xfd:
		_, err := w.Write([]byte{byte(val)})
		return err
	case val <= 0xffff:
		if _, err := w.Write([]byte{0xfd}); err != nil {
			return err
		}
		var buf [2]byte
		binary.LittleEndian.PutUint16(buf[:], uint16(val))
		_, err := w.Write(buf[:])
		return err
	case val <= 0xffffffff:
		if _, err := w.Write([]byte{0xfe}); err != nil {
			return err
		}
		return writeUint32(w, uint32(val))
	default:
		if _, err := w.Write([]byte{0xff}); err != nil {
			return err
		}
		return writeUint64(w, val)
	}
}

// ReadVarInt reads a variable-length integer.A.
func ReadVarInt(r io.Reader) (uint64, error) {
	var prefix [1]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return 0, err
	}
	switch prefix[0] {
	case 0xfd:
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, err
		}
		return uint64(binary.LittleEndian.Uint16(buf[:])), nil
	case 0xfe:
		v, err := readUint32(r)
		return uint64(v), err
	case 0xff:
		return readUint64(r)
	default:
		return uint64(prefix[0]), nil
	}
}

// WriteVarBytes writes a varint length followed by the raw bytes.
func WriteVarBytes(w io.Writer, b []byte) error {
	if err := WriteVarInt(w, uint64(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadVarBytes reads a varint-length-prefixed byte slice, rejecting
// declared lengths larger than maxLen to bound allocation from a hostile
// peer.
func ReadVarBytes(r io.Reader, maxLen uint64, what string) ([]byte, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length > maxLen {
		return nil, NewProtocolError(errors.Errorf("%s: varbytes length %d exceeds max %d", what, length, maxLen).Error(), nil)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteVarString writes a varint length followed by the UTF-8 bytes of s.
func WriteVarString(w io.Writer, s string) error {
	return WriteVarBytes(w, []byte(s))
}

// ReadVarString reads a varint-length-prefixed UTF-8 string.
func ReadVarString(r io.Reader, maxLen uint64) (string, error) {
	b, err := ReadVarBytes(r, maxLen, "varstring")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PeerAddress is an IP address plus a port, IPv4-only.
type PeerAddress struct {
	Timestamp time.Time
	Services  ServiceFlag
	IP        net.IP
	Port      uint16
}

// NewPeerAddress builds a PeerAddress stamped with the current time.
func NewPeerAddress(services ServiceFlag, ip net.IP, port uint16) *PeerAddress {
	return &PeerAddress{
		Timestamp: time.Now(),
		Services:  services,
		IP:        ip,
		Port:      port,
	}
}

// writeTo serializes the address in the wire's 26-byte form, or 30 bytes
// with the leading timestamp:
// 4-byte time (iff withTimestamp), 8-byte services, 16-byte IPv4-mapped
// IPv6 address, 2-byte big-endian port.
func (a *PeerAddress) writeTo(w io.Writer, withTimestamp bool) error {
	if withTimestamp {
		if err := writeUint32(w, uint32(a.Timestamp.Unix())); err != nil {
			return err
		}
	}
	if err := writeUint64(w, uint64(a.Services)); err != nil {
		return err
	}
	var ip [16]byte
	if a.IP != nil {
		copy(ip[:], a.IP.To16())
	}
	if _, err := w.Write(ip[:]); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, a.Port)
}

func readPeerAddress(r io.Reader, withTimestamp bool) (*PeerAddress, error) {
	a := &PeerAddress{}
	if withTimestamp {
		ts, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		a.Timestamp = time.Unix(int64(ts), 0)
	}
	services, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	a.Services = ServiceFlag(services)
	var ip [16]byte
	if _, err := io.ReadFull(r, ip[:]); err != nil {
		return nil, err
	}
	a.IP = net.IP(ip[:])
	var port uint16
	if err := binary.Read(r, binary.BigEndian, &port); err != nil {
		return nil, err
	}
	a.Port = port
	return a, nil
}
