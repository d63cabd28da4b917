package cache

import (
	json "github.com/goccy/go-json"

	"chatapp-client/internal/models"
)

// Codec turns records into bytes for the shared backends.
type Codec[T any] struct {
	Encode func(*T) ([]byte, error)
	Decode func([]byte) (*T, error)
}

// JSONCodec works for plain records whose fields are all exported.
func JSONCodec[T any]() Codec[T] {
	return Codec[T]{
		Encode: func(v *T) ([]byte, error) {
			return json.Marshal(v)
		},
		Decode: func(data []byte) (*T, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

// MessageCodec stores messages in their wire format.
func MessageCodec() Codec[models.Message] {
	return Codec[models.Message]{
		Encode: models.EncodeMessage,
		Decode: models.DecodeMessage,
	}
}
