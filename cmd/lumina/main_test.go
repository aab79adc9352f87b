package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ozontech/lumina/formats/funclist"
	"github.com/ozontech/lumina/lumtest"
	"github.com/ozontech/lumina/mdproto"
	"github.com/ozontech/lumina/packet"
	"github.com/ozontech/lumina/rpc"
)

func TestPrintRecords(t *testing.T) {
	t.Parallel()

	data := []byte{0x03, 0x01, 0xFF, 0x01, 0x0B, 0x01, 0x0C, 0x71, 0x05, 0x02, 0x0A, 0x03, 0x00, 0x03, 0x61, 0x31}
	messages, err := mdproto.Decode(data)
	require.NoError(t, err)

	b := new(bytes.Buffer)
	require.NoError(t, printRecords(b, messages))
	assert.Equal(t,
		"#0 CMNT_FUNC_REG body=ff\n"+
			"#1 TYPE_INFO unk=1 type=FUNC_DEF flags=0x71 cc=__FASTCALL return=__INT64 argc=2 args=0a0300036131\n",
		b.String(),
	)
}

func TestDumpFrames(t *testing.T) {
	t.Parallel()

	var stream []byte
	for _, m := range []rpc.Message{
		&rpc.Helo{Protocol: 2, License: []byte{}},
		&rpc.OK{},
		&rpc.PullMD{Unknown: []uint32{}, Signatures: []rpc.FuncSignature{rpc.NewSignature([]byte{1})}},
		&rpc.PullMDResult{Found: []uint32{1}, Results: []rpc.FuncInfo{}},
	} {
		var err error
		stream, err = packet.AppendMessage(stream, m)
		require.NoError(t, err)
	}
	stream = packet.AppendFrame(stream, rpc.CodeDumpMD, []byte{1, 2})

	b := new(bytes.Buffer)
	n, err := dumpFrames(b, iotest.HalfReader(bytes.NewReader(stream)))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	lines := strings.Split(strings.TrimSpace(b.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "#1 RPC_HELO 9 B: protocol=2 license=0 B id=0 watermark=0", lines[0])
	assert.Equal(t, "#2 RPC_OK 0 B: ok", lines[1])
	assert.Equal(t, "#3 PULL_MD 6 B: flags=0 signatures=1", lines[2])
	assert.Equal(t, "#4 PULL_MD_RESULT 3 B: requested=1 found=0", lines[3])
	assert.Equal(t, "#5 DUMP_MD 2 B: unsupported rpc code 0x1c", lines[4])

	_, err = dumpFrames(new(bytes.Buffer), bytes.NewReader(stream[:len(stream)-1]))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, servers ...*lumtest.Server) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("timeout: 2s\nservers:\n")
	for _, s := range servers {
		fmt.Fprintf(&sb, "  - address: %s\n    port: %d\n    allow_push: true\n", s.Host(), s.Port())
	}
	path := filepath.Join(t.TempDir(), "lumina.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))
	return path
}

func TestPullCommand(t *testing.T) {
	t.Parallel()

	srv, err := lumtest.NewServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, srv.Close()) }()
	srv.Add([]byte{0xAB}, rpc.FuncInfo{Metadata: rpc.FuncMetadata{Name: "known", Size: 4, Data: []byte{1}}})

	dir := t.TempDir()
	in := filepath.Join(dir, "in.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(
		`{"address":1,"signature":"qw=="}`+"\n"+
			`{"address":2,"signature":"zQ=="}`+"\n",
	), 0o600))
	f, err := os.Open(in)
	require.NoError(t, err)

	out := filepath.Join(dir, "out.jsonl")
	cmd := &PullCommand{
		ConfigFlags: ConfigFlags{Config: writeConfig(t, srv), Report: filepath.Join(dir, "report.tsv")},
		In:          f,
		Out:         out,
	}
	require.NoError(t, cmd.Run(context.Background(), zaptest.NewLogger(t)))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	fs, err := funclist.ReadAll(bytes.NewReader(b))
	require.NoError(t, err)
	require.Len(t, fs, 2)
	assert.True(t, fs[0].Resolved)
	assert.Equal(t, "known", fs[0].Name)
	assert.False(t, fs[1].Resolved)

	report, err := os.ReadFile(filepath.Join(dir, "report.tsv"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "\tpull\t")
	assert.Contains(t, string(report), "\tok\n")
}

func TestPushCommand(t *testing.T) {
	t.Parallel()

	srv, err := lumtest.NewServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, srv.Close()) }()

	in := filepath.Join(t.TempDir(), "in.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(
		`{"address":4198400,"signature":"qw==","resolved":true,"name":"main","size":4,"data":"AQ==","popularity":0}`+"\n"+
			`{"address":2,"signature":"zQ=="}`+"\n",
	), 0o600))
	f, err := os.Open(in)
	require.NoError(t, err)

	cmd := &PushCommand{
		ConfigFlags: ConfigFlags{Config: writeConfig(t, srv)},
		In:          f,
		IDBPath:     "/work/a.i64",
		Hostname:    "builder",
		InputMD5:    "000102030405060708090a0b0c0d0e0f",
	}
	require.NoError(t, cmd.Validate())
	require.NoError(t, cmd.Run(context.Background(), zaptest.NewLogger(t)))

	pushes := srv.Pushes()
	require.Len(t, pushes, 1)
	assert.Equal(t, "/work/a.i64", pushes[0].IDBPath)
	assert.Equal(t, "builder", pushes[0].Hostname)
	assert.Equal(t, byte(0x0f), pushes[0].MD5[15])
	assert.Equal(t, []uint64{4198400}, pushes[0].Addresses)
	require.Len(t, pushes[0].Records, 1)
	assert.Equal(t, "main", pushes[0].Records[0].Metadata.Name)

	bad := &PushCommand{InputMD5: "xyz"}
	assert.Error(t, bad.Validate())
}

func TestHeloCommand(t *testing.T) {
	t.Parallel()

	ok, err := lumtest.NewServer(zaptest.NewLogger(t))
	require.NoError(t, err)
	defer func() { assert.NoError(t, ok.Close()) }()

	refusing, err := lumtest.NewServer(zaptest.NewLogger(t), lumtest.WithHeloFail(1, "no"))
	require.NoError(t, err)
	defer func() { assert.NoError(t, refusing.Close()) }()

	cmd := &HeloCommand{ConfigFlags: ConfigFlags{Config: writeConfig(t, ok, refusing)}}
	err = cmd.Run(context.Background(), zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 servers refused")
	assert.Len(t, ok.Helos(), 1)
	assert.Len(t, refusing.Helos(), 1)
}
