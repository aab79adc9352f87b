package reconcile

import (
	"fmt"

	"github.com/ozontech/lumina/protoerr"
	"github.com/ozontech/lumina/rpc"
)

// Origin describes where pushed functions come from.
type Origin struct {
	IDBPath   string
	InputPath string
	MD5       [16]byte
	Hostname  string
}

// PushRequest builds the PUSH_MD of records. addresses is parallel to records.
func PushRequest(origin Origin, records []rpc.FuncMD, addresses []uint64) (*rpc.PushMD, error) {
	if len(records) != len(addresses) {
		return nil, fmt.Errorf("push of %d records with %d addresses", len(records), len(addresses))
	}
	return &rpc.PushMD{
		IDBPath:   origin.IDBPath,
		InputPath: origin.InputPath,
		MD5:       origin.MD5,
		Hostname:  origin.Hostname,
		Records:   records,
		Addresses: addresses,
	}, nil
}

// PushStatus checks that res has one flag per pushed record and returns the
// flags unchanged.
func PushStatus(res *rpc.PushMDResult, pushed int) ([]uint32, error) {
	if len(res.Status) != pushed {
		return nil, &protoerr.ProtocolViolationError{
			Reason: fmt.Sprintf("push result has %d flags for %d records", len(res.Status), pushed),
		}
	}
	return res.Status, nil
}
