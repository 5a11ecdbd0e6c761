package checkpoint

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"

	"github.com/dd0wney/cluso-percolation/pkg/pools"
)

type entryKind byte

const (
	kindHeader  entryKind = 1
	kindRemoval entryKind = 2
)

// entry layout: [Kind:1][DataLen:4][Data:N][Checksum:4]
const entryOverhead = 1 + 4 + 4

// maxEntry bounds the data length read from disk so that a corrupted length
// field cannot trigger a huge allocation.
const maxEntry = 1 << 16

// writeEntry compresses and appends one entry, returning the bytes written.
func (l *Log) writeEntry(kind entryKind, data []byte) (int, error) {
	scratch := pools.GetBytesSized(snappy.MaxEncodedLen(len(data)))
	defer pools.PutBytes(scratch)
	compressed := snappy.Encode(scratch, data)

	frame := pools.NewBufferBuilder(len(compressed) + entryOverhead)
	defer frame.Release()
	frame.WriteByte(byte(kind))
	frame.WriteUint32BE(uint32(len(compressed)))
	frame.Write(compressed)
	frame.WriteUint32BE(crc32.ChecksumIEEE(compressed))

	if _, err := l.writer.Write(frame.Bytes()); err != nil {
		return 0, err
	}

	// Flush to disk for durability
	if err := l.writer.Flush(); err != nil {
		return 0, err
	}
	if l.sync {
		if err := l.file.Sync(); err != nil {
			return 0, err
		}
	}

	l.bytesUncompressed += uint64(len(data))
	l.bytesCompressed += uint64(len(compressed))
	return len(compressed) + entryOverhead, nil
}

type logContents struct {
	header     *Header
	removals   []int
	validBytes int64
	torn       bool
}

// readEntries decodes a whole log. A short final entry marks the log as torn
// rather than failing; a checksum mismatch is ErrCorrupt.
func readEntries(r io.Reader) (*logContents, error) {
	reader := bufio.NewReader(r)
	out := &logContents{}

	for {
		kind, err := reader.ReadByte()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		var dataLen uint32
		if err := binary.Read(reader, binary.BigEndian, &dataLen); err != nil {
			return tornOrErr(out, err)
		}
		if dataLen > maxEntry {
			return nil, fmt.Errorf("%w: entry of %d bytes", ErrCorrupt, dataLen)
		}

		compressed := make([]byte, dataLen)
		if _, err := io.ReadFull(reader, compressed); err != nil {
			return tornOrErr(out, err)
		}

		var checksum uint32
		if err := binary.Read(reader, binary.BigEndian, &checksum); err != nil {
			return tornOrErr(out, err)
		}
		if crc32.ChecksumIEEE(compressed) != checksum {
			return nil, fmt.Errorf("%w: checksum mismatch after %d removals", ErrCorrupt, len(out.removals))
		}

		data, err := snappy.Decode(nil, compressed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}

		switch entryKind(kind) {
		case kindHeader:
			if out.header != nil {
				return nil, fmt.Errorf("%w: duplicate header", ErrCorrupt)
			}
			h, err := decodeHeader(data)
			if err != nil {
				return nil, err
			}
			out.header = &h
		case kindRemoval:
			if out.header == nil {
				return nil, fmt.Errorf("%w: removal before header", ErrCorrupt)
			}
			oi, err := decodeRemoval(data)
			if err != nil {
				return nil, err
			}
			out.removals = append(out.removals, oi)
		default:
			return nil, fmt.Errorf("%w: unknown entry kind %d", ErrCorrupt, kind)
		}

		out.validBytes += int64(entryOverhead) + int64(dataLen)
	}
}

func tornOrErr(out *logContents, err error) (*logContents, error) {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		out.torn = true
		return out, nil
	}
	return nil, err
}

func encodeRemoval(oi int) []byte {
	return binary.AppendUvarint(nil, uint64(oi))
}

func decodeRemoval(data []byte) (int, error) {
	v, n := binary.Uvarint(data)
	if n <= 0 || n != len(data) {
		return 0, fmt.Errorf("%w: bad removal entry", ErrCorrupt)
	}
	return int(v), nil
}

func encodeHeader(h Header) []byte {
	buf := binary.AppendUvarint(nil, uint64(h.N0))
	buf = binary.AppendUvarint(buf, h.Seed)
	return append(buf, h.Policy...)
}

func decodeHeader(data []byte) (Header, error) {
	n0, n := binary.Uvarint(data)
	if n <= 0 {
		return Header{}, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	data = data[n:]
	seed, n := binary.Uvarint(data)
	if n <= 0 {
		return Header{}, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	return Header{Policy: string(data[n:]), N0: int(n0), Seed: seed}, nil
}
