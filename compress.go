package bfopt

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Blobs stored in the run store (program output, encoded IR) are zstd
// frames. EncodeAll and DecodeAll are safe for concurrent use, so suite
// workers share one encoder and one decoder.
var (
	blobCodecOnce sync.Once
	blobEncoder   *zstd.Encoder
	blobDecoder   *zstd.Decoder
	blobCodecErr  error
)

func blobCodec() (*zstd.Encoder, *zstd.Decoder, error) {
	blobCodecOnce.Do(func() {
		if blobEncoder, blobCodecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault)); blobCodecErr != nil {
			return
		}
		blobDecoder, blobCodecErr = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
	return blobEncoder, blobDecoder, blobCodecErr
}

func packBlob(data []byte) ([]byte, error) {
	enc, _, err := blobCodec()
	if err != nil {
		return nil, fmt.Errorf("Failed to create zstd codec. %w", err)
	}
	return enc.EncodeAll(data, nil), nil
}

func unpackBlob(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	_, dec, err := blobCodec()
	if err != nil {
		return nil, fmt.Errorf("Failed to create zstd codec. %w", err)
	}
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to decompress blob. %w", err)
	}
	return out, nil
}
