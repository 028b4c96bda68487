package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key builds a namespaced cache key from an adapter name, an operation and
// the call's semantic parameters. Params are canonicalized through JSON so
// equivalent calls share an entry regardless of who built them.
func Key(adapter, op string, params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		// Only unmarshalable params (channels, funcs) hit this; fall back to
		// the formatted value so the key is still stable per call site.
		b = []byte(fmt.Sprintf("%v", params))
	}
	sum := md5.Sum(b)
	return adapter + ":" + op + ":" + hex.EncodeToString(sum[:])[:16]
}
