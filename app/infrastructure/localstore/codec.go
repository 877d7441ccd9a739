package localstore

import "encoding/json"

// Codec converts cached values to and from their stored byte form. The local
// cache is deliberately schema-flexible, so the default is JSON; callers with
// other needs plug in their own.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, dest any) error
}

type JSONCodec struct{}

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}
