package rpc

import "strconv"

// Code is the one byte message type carried by every frame.
type Code uint8

const (
	CodeOK           Code = 0x0a
	CodeFail         Code = 0x0b
	CodeNotify       Code = 0x0c
	CodeHelo         Code = 0x0d
	CodePullMD       Code = 0x0e
	CodePullMDResult Code = 0x0f
	CodePushMD       Code = 0x10
	CodePushMDResult Code = 0x11

	// declared by the protocol, no body schema is known for them
	CodeGetPop             Code = 0x12
	CodeGetPopResult       Code = 0x13
	CodeListPeers          Code = 0x14
	CodeListPeersResult    Code = 0x15
	CodeKillSessions       Code = 0x16
	CodeKillSessionsResult Code = 0x17
	CodeDelEntries         Code = 0x18
	CodeDelEntriesResult   Code = 0x19
	CodeShowEntries        Code = 0x1a
	CodeShowEntriesResult  Code = 0x1b
	CodeDumpMD             Code = 0x1c
	CodeDumpMDResult       Code = 0x1d
	CodeCleanDB            Code = 0x1e
	CodeDebugCtl           Code = 0x1f
)

var codeNames = map[Code]string{
	CodeOK:                 "RPC_OK",
	CodeFail:               "RPC_FAIL",
	CodeNotify:             "RPC_NOTIFY",
	CodeHelo:               "RPC_HELO",
	CodePullMD:             "PULL_MD",
	CodePullMDResult:       "PULL_MD_RESULT",
	CodePushMD:             "PUSH_MD",
	CodePushMDResult:       "PUSH_MD_RESULT",
	CodeGetPop:             "GET_POP",
	CodeGetPopResult:       "GET_POP_RESULT",
	CodeListPeers:          "LIST_PEERS",
	CodeListPeersResult:    "LIST_PEERS_RESULT",
	CodeKillSessions:       "KILL_SESSIONS",
	CodeKillSessionsResult: "KILL_SESSIONS_RESULT",
	CodeDelEntries:         "DEL_ENTRIES",
	CodeDelEntriesResult:   "DEL_ENTRIES_RESULT",
	CodeShowEntries:        "SHOW_ENTRIES",
	CodeShowEntriesResult:  "SHOW_ENTRIES_RESULT",
	CodeDumpMD:             "DUMP_MD",
	CodeDumpMDResult:       "DUMP_MD_RESULT",
	CodeCleanDB:            "CLEAN_DB",
	CodeDebugCtl:           "DEBUGCTL",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "UNKNOWN(0x" + strconv.FormatUint(uint64(c), 16) + ")"
}

// Known reports whether the protocol declares c.
func (c Code) Known() bool {
	_, ok := codeNames[c]
	return ok
}

// Implemented reports whether c has a body schema.
func (c Code) Implemented() bool {
	return c >= CodeOK && c <= CodePushMDResult
}
