package store

import (
	"github.com/vmihailenco/msgpack/v4"
)

// MakeKey of a predicate and id
func MakeKey(id []byte, predicate string) []byte {
	key := []byte(predicate)
	key = append(key, byte(':'))
	key = append(key, id...)
	return key
}

// Encode any journal value
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode a journal value into v
func Decode(val []byte, v interface{}) error {
	return msgpack.Unmarshal(val, v)
}
