package operation

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v4"
)

var errUncompressedValue = errors.New("could not uncompress data")

// Codec encodes values with msgpack, optionally snappy compressed.
type Codec struct {
	compress bool
}

var (
	RawCodec        = Codec{compress: false}
	CompressedCodec = Codec{compress: true}
)

// Encode encodes the given entity using msgpack and then compresses the
// value if the codec is configured to.
func (c Codec) Encode(entity interface{}) ([]byte, error) {
	val, err := msgpack.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("could not encode entity: %w", err)
	}
	if !c.compress {
		return val, nil
	}
	return snappy.Encode(nil, val), nil
}

// Decode decodes the given value into the given entity.
func (c Codec) Decode(val []byte, entity interface{}) error {
	if c.compress {
		uncompressed, err := snappy.Decode(nil, val)
		if err != nil {
			return fmt.Errorf("%s: %w", err, errUncompressedValue)
		}
		val = uncompressed
	}

	err := msgpack.Unmarshal(val, entity)
	if err != nil {
		return fmt.Errorf("could not decode entity: %w", err)
	}
	return nil
}

// IsErrUncompressedValue reports whether err was caused by reading a value
// that was not snappy compressed with a compressing codec.
func IsErrUncompressedValue(err error) bool {
	return errors.Is(err, errUncompressedValue)
}
