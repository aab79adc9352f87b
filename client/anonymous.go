package client

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/ozontech/lumina/reconcile"
)

// AnonymousOrigin makes up the identifying fields of a push: input file md5,
// database and input paths and the host name.
func AnonymousOrigin() (reconcile.Origin, error) {
	var o reconcile.Origin
	if _, err := rand.Read(o.MD5[:]); err != nil {
		return o, fmt.Errorf("random md5: %w", err)
	}
	names, err := randomHex(3, 6)
	if err != nil {
		return o, err
	}
	o.InputPath = `C:\Users\` + names[0] + `\` + names[1] + ".exe"
	o.IDBPath = `C:\Users\` + names[0] + `\` + names[1] + ".i64"
	o.Hostname = "DESKTOP-" + names[2]
	return o, nil
}

func randomHex(count, size int) ([]string, error) {
	buf := make([]byte, count*size)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("random names: %w", err)
	}
	out := make([]string, count)
	for i := range out {
		out[i] = hex.EncodeToString(buf[i*size : (i+1)*size])
	}
	return out, nil
}
