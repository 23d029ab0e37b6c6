package cache

import (
	"encoding/hex"
	"fmt"

	"github.com/minio/highwayhash"
)

var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint hashes the parts into a short hex key. Parts are separated so
// ("ab","c") and ("a","bc") differ.
func Fingerprint(parts ...any) string {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		panic(err) // key length is fixed
	}
	for _, p := range parts {
		switch v := p.(type) {
		case []byte:
			h.Write(v)
		case string:
			h.Write([]byte(v))
		default:
			fmt.Fprint(h, v)
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
