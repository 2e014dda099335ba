package shard

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/facetgo/codec"
)

// Compression selects the algorithm for transport blocks.
type Compression uint8

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = 0
	// CompressionLZ4 is fast with a modest ratio, good for hot paths.
	CompressionLZ4 Compression = 1
	// CompressionZSTD trades CPU for a better ratio, good for large blocks.
	CompressionZSTD Compression = 2
)

// blockMagic identifies a facetgo transport block, version included.
var blockMagic = [4]byte{'F', 'G', 'B', '1'}

// maxBlockSize bounds the decoded payload, so a corrupt header cannot force
// an absurd allocation.
const maxBlockSize = 1 << 30

// Block carries every slot's partial result for one facet from one shard.
//
// Framing: [magic 4][compression 1][codec name len 1][codec name]
// [uncompressed size u32][stored size u32][payload]. The codec name makes
// blocks self-describing; the reader selects the decoder from the header.
type Block struct {
	Field    string     `json:"field"`
	Partials []*Partial `json:"partials"`
}

// zstd coders are pooled; EncodeAll/DecodeAll on a pooled instance avoids
// re-allocating the window per block.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// WriteBlock serializes and frames a block. A nil codec falls back to
// codec.Default. If compression does not actually shrink the payload, the
// block is stored uncompressed regardless of the requested algorithm.
func WriteBlock(w io.Writer, blk *Block, c codec.Codec, comp Compression) error {
	if c == nil {
		c = codec.Default
	}
	name := c.Name()
	if len(name) == 0 || len(name) > 255 {
		return fmt.Errorf("shard: invalid codec name %q", name)
	}
	if _, ok := codec.ByName(name); !ok {
		return fmt.Errorf("shard: codec %q is not registered, the block would be undecodable", name)
	}

	payload, err := c.Marshal(blk)
	if err != nil {
		return fmt.Errorf("shard: marshal block: %w", err)
	}

	stored := payload
	switch comp {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		var compressor lz4.Compressor
		n, err := compressor.CompressBlock(payload, buf)
		if err != nil {
			return fmt.Errorf("shard: lz4 compress: %w", err)
		}
		if n > 0 && n < len(payload) {
			stored = buf[:n]
		} else {
			comp = CompressionNone
		}
	case CompressionZSTD:
		enc := getZstdEncoder()
		buf := enc.EncodeAll(payload, nil)
		zstdEncoderPool.Put(enc)
		if len(buf) < len(payload) {
			stored = buf
		} else {
			comp = CompressionNone
		}
	default:
		return fmt.Errorf("shard: unknown compression %d", comp)
	}

	header := make([]byte, 0, 4+1+1+len(name)+8)
	header = append(header, blockMagic[:]...)
	header = append(header, byte(comp), byte(len(name)))
	header = append(header, name...)
	header = binary.LittleEndian.AppendUint32(header, uint32(len(payload)))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(stored)))

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("shard: write block header: %w", err)
	}
	if _, err := w.Write(stored); err != nil {
		return fmt.Errorf("shard: write block payload: %w", err)
	}
	return nil
}

// ReadBlock parses one framed block.
func ReadBlock(r io.Reader) (*Block, error) {
	var fixed [6]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("shard: read block header: %w", err)
	}
	if [4]byte(fixed[:4]) != blockMagic {
		return nil, fmt.Errorf("shard: invalid block magic %q", fixed[:4])
	}
	comp := Compression(fixed[4])

	name := make([]byte, fixed[5])
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, fmt.Errorf("shard: read codec name: %w", err)
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return nil, fmt.Errorf("shard: unknown codec %q", name)
	}

	var sizes [8]byte
	if _, err := io.ReadFull(r, sizes[:]); err != nil {
		return nil, fmt.Errorf("shard: read block sizes: %w", err)
	}
	uncompressed := binary.LittleEndian.Uint32(sizes[:4])
	storedSize := binary.LittleEndian.Uint32(sizes[4:])
	if uncompressed > maxBlockSize || storedSize > maxBlockSize {
		return nil, fmt.Errorf("shard: block size %d/%d exceeds limit", uncompressed, storedSize)
	}

	stored := make([]byte, storedSize)
	if _, err := io.ReadFull(r, stored); err != nil {
		return nil, fmt.Errorf("shard: read block payload: %w", err)
	}

	payload := stored
	switch comp {
	case CompressionNone:
		if storedSize != uncompressed {
			return nil, fmt.Errorf("shard: uncompressed block with mismatched sizes %d != %d", storedSize, uncompressed)
		}
	case CompressionLZ4:
		payload = make([]byte, uncompressed)
		n, err := lz4.UncompressBlock(stored, payload)
		if err != nil {
			return nil, fmt.Errorf("shard: lz4 decompress: %w", err)
		}
		if uint32(n) != uncompressed {
			return nil, fmt.Errorf("shard: lz4 decompressed %d bytes, header says %d", n, uncompressed)
		}
	case CompressionZSTD:
		dec := getZstdDecoder()
		out, err := dec.DecodeAll(stored, make([]byte, 0, uncompressed))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("shard: zstd decompress: %w", err)
		}
		if uint32(len(out)) != uncompressed {
			return nil, fmt.Errorf("shard: zstd decompressed %d bytes, header says %d", len(out), uncompressed)
		}
		payload = out
	default:
		return nil, fmt.Errorf("shard: unknown compression %d", comp)
	}

	blk := &Block{}
	if err := c.Unmarshal(payload, blk); err != nil {
		return nil, fmt.Errorf("shard: unmarshal block: %w", err)
	}
	return blk, nil
}
