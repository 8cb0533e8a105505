package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// CompressedPrefix marks a payload whose remainder is a zlib stream.
const CompressedPrefix = "ABG:"

// CompressThreshold is the payload size above which outgoing datagrams are compressed.
const CompressThreshold = 400

// IsCompressed reports whether data carries the compression prefix.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, []byte(CompressedPrefix))
}

// Decompress inflates a prefixed payload. Uncompressed payloads are returned unchanged.
func Decompress(data []byte) ([]byte, error) {
	if !IsCompressed(data) {
		return data, nil
	}
	zr, err := zlib.NewReader(bytes.NewReader(data[len(CompressedPrefix):]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokenPacket, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, MaxFrameSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokenPacket, err)
	}
	if len(out) > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	return out, nil
}

// Compress deflates data at best compression and adds the prefix.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(CompressedPrefix)
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MaybeCompress compresses payloads above CompressThreshold.
func MaybeCompress(data []byte) ([]byte, error) {
	if len(data) <= CompressThreshold {
		return data, nil
	}
	return Compress(data)
}
