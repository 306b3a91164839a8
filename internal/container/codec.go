package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"evonet/internal/network"
)

var byteOrder = binary.LittleEndian

// Marshal encodes f. Partial and Full payloads fail with ErrUnsupportedKind.
func Marshal(f File) ([]byte, error) {
	kind := f.Kind()
	if f.Version > CurrentVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	buf := make([]byte, 0, 256)
	buf = append(buf, Magic...)
	buf = append(buf, byte(kind))
	buf = byteOrder.AppendUint16(buf, f.Version)

	switch contents := f.Contents.(type) {
	case nil, Empty:
		return buf, nil
	case NetworkContents:
		if contents.Network == nil {
			return nil, fmt.Errorf("%w: nil network", ErrNotNetwork)
		}
		return appendNetwork(buf, contents.Network)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}
}

func appendNetwork(buf []byte, net *network.Network) ([]byte, error) {
	var err error
	buf = byteOrder.AppendUint64(buf, net.ID())
	if buf, err = appendString(buf, net.Name()); err != nil {
		return nil, fmt.Errorf("network name: %w", err)
	}
	if buf, err = appendString(buf, net.Activation()); err != nil {
		return nil, fmt.Errorf("network activation: %w", err)
	}

	nodes := net.Nodes()
	buf = byteOrder.AppendUint64(buf, uint64(len(nodes)))
	for _, node := range nodes {
		buf = byteOrder.AppendUint64(buf, uint64(node.ID))
		buf = byteOrder.AppendUint16(buf, uint16(node.Kind))
		outputs := node.Outputs()
		buf = byteOrder.AppendUint64(buf, uint64(len(outputs)))
		for _, conn := range outputs {
			buf = byteOrder.AppendUint64(buf, uint64(conn.Target))
			buf = byteOrder.AppendUint32(buf, math.Float32bits(conn.Strength))
			buf = byteOrder.AppendUint32(buf, math.Float32bits(conn.PlasticityRate))
			buf = byteOrder.AppendUint32(buf, math.Float32bits(conn.PlasticityThreshold))
			buf = byteOrder.AppendUint32(buf, math.Float32bits(conn.Reliability))
		}
	}
	return buf, nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	if len(s) > maxStringLen {
		return nil, fmt.Errorf("string length %d exceeds %d", len(s), maxStringLen)
	}
	buf = byteOrder.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...), nil
}

// Unmarshal decodes a complete container. Trailing bytes are rejected.
func Unmarshal(data []byte) (File, error) {
	return Decode(bytes.NewReader(data))
}

// Encode writes f to w in one call.
func Encode(w io.Writer, f File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Decode reads one container from r and expects r to end after it.
func Decode(r io.Reader) (File, error) {
	d := &decoder{r: r}
	header, err := d.header()
	if err != nil {
		return File{}, err
	}

	file := File{Version: header.Version}
	switch header.Kind {
	case KindNone:
		file.Contents = Empty{}
	case KindNetwork:
		net, err := d.network()
		if err != nil {
			return File{}, err
		}
		file.Contents = NetworkContents{Network: net}
	default:
		return File{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, header.Kind)
	}

	if err := d.end(); err != nil {
		return File{}, err
	}
	return file, nil
}

// Write encodes f and writes the whole file at once. A failed write may leave
// a truncated file behind.
func Write(path string, f File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

func WriteNetwork(path string, net *network.Network) error {
	return Write(path, NewNetworkFile(net))
}

func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return Unmarshal(data)
}

func ReadNetwork(path string) (*network.Network, error) {
	file, err := Read(path)
	if err != nil {
		return nil, err
	}
	return file.Network()
}

// ReadHeader validates and returns only the header, whatever the payload kind.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	return (&decoder{r: f}).header()
}

type decoder struct {
	r   io.Reader
	buf [8]byte
}

func (d *decoder) read(n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated", ErrInvalidFormat)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return d.buf[:n], nil
}

func (d *decoder) u8() (uint8, error) {
	b, err := d.read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) u16() (uint16, error) {
	b, err := d.read(2)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint16(b), nil
}

func (d *decoder) u32() (uint32, error) {
	b, err := d.read(4)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint32(b), nil
}

func (d *decoder) u64() (uint64, error) {
	b, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return byteOrder.Uint64(b), nil
}

func (d *decoder) f32() (float32, error) {
	bits, err := d.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

func (d *decoder) str() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if n > maxStringLen {
		return "", fmt.Errorf("%w: string length %d exceeds %d", ErrInvalidFormat, n, maxStringLen)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		return "", fmt.Errorf("%w: truncated string", ErrInvalidFormat)
	}
	return string(b), nil
}

func (d *decoder) header() (Header, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(d.r, magic); err != nil || string(magic) != Magic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrInvalidFormat)
	}
	kind, err := d.u8()
	if err != nil {
		return Header{}, err
	}
	if int(kind) >= len(kindNames) {
		return Header{}, fmt.Errorf("%w: unknown kind %d", ErrInvalidFormat, kind)
	}
	version, err := d.u16()
	if err != nil {
		return Header{}, err
	}
	if version > CurrentVersion {
		return Header{}, fmt.Errorf("%w: %d (newest readable is %d)", ErrUnsupportedVersion, version, CurrentVersion)
	}
	return Header{Kind: Kind(kind), Version: version}, nil
}

func (d *decoder) network() (*network.Network, error) {
	id, err := d.u64()
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, fmt.Errorf("%w: zero network id", ErrInvalidFormat)
	}
	name, err := d.str()
	if err != nil {
		return nil, err
	}
	activation, err := d.str()
	if err != nil {
		return nil, err
	}
	net, err := network.New(network.Options{ID: id, Name: name, Activation: activation})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	nodeCount, err := d.u64()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < nodeCount; i++ {
		if err := d.node(net); err != nil {
			return nil, fmt.Errorf("node %d of %d: %w", i, nodeCount, err)
		}
	}
	return net, nil
}

func (d *decoder) node(net *network.Network) error {
	id, err := d.u64()
	if err != nil {
		return err
	}
	rawKind, err := d.u16()
	if err != nil {
		return err
	}
	kind := network.NodeKind(rawKind)
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown node kind %d", ErrInvalidFormat, rawKind)
	}
	outputCount, err := d.u64()
	if err != nil {
		return err
	}

	// The count is untrusted; grow as connections actually decode.
	outputs := make([]network.Connection, 0, min(outputCount, 64))
	for j := uint64(0); j < outputCount; j++ {
		conn, err := d.connection()
		if err != nil {
			return err
		}
		outputs = append(outputs, conn)
	}
	if err := net.Restore(network.NodeID(id), kind, outputs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}
	return nil
}

func (d *decoder) connection() (network.Connection, error) {
	var conn network.Connection
	target, err := d.u64()
	if err != nil {
		return conn, err
	}
	conn.Target = network.NodeID(target)
	for _, dst := range []*float32{&conn.Strength, &conn.PlasticityRate, &conn.PlasticityThreshold, &conn.Reliability} {
		if *dst, err = d.f32(); err != nil {
			return conn, err
		}
	}
	return conn, nil
}

func (d *decoder) end() error {
	var probe [1]byte
	n, err := d.r.Read(probe[:])
	if n > 0 {
		return fmt.Errorf("%w: trailing bytes after payload", ErrInvalidFormat)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
