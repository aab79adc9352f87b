package mdproto_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ozontech/lumina/mdproto"
	"github.com/ozontech/lumina/protoerr"
)

var funcDefRecord = []byte{0x01, 0x0B, 0x01, 0x0C, 0x71, 0x05, 0x02, 0x0A, 0x03, 0x00, 0x03, 0x61, 0x31}

func TestDecodeFuncDef(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	records, err := mdproto.Split(funcDefRecord)
	require.NoError(t, err)
	require.Len(t, records, 1)
	a.Equal(mdproto.CmdTypeInfo, records[0].Cmd)
	a.Len(records[0].Body, 11)

	m, err := mdproto.DecodeRecord(records[0])
	require.NoError(t, err)
	ti, ok := m.(*mdproto.TypeInfo)
	require.True(t, ok, "got %T", m)

	a.Equal(uint8(1), ti.Unk)
	a.Equal(mdproto.TInfoFuncDef, ti.Type)
	require.NotNil(t, ti.Func)
	a.Equal(uint8(0x71), ti.Func.Flags)
	a.Equal(mdproto.TypeInt64, ti.Func.ReturnType)
	a.Equal("__INT64", ti.Func.ReturnType.String())
	a.Equal(uint32(2), ti.Func.Argc)
	a.Equal([]byte{0x0A, 0x03, 0x00, 0x03, 0x61, 0x31}, ti.Func.Tail)
	a.Equal(mdproto.CCFastcall, ti.Func.CallingConv())
	a.False(ti.Func.ArgsDecoded())
}

func TestEncodeRoundTrip(t *testing.T) {
	t.Parallel()

	messages, err := mdproto.Decode(funcDefRecord)
	require.NoError(t, err)
	require.Len(t, messages, 1)

	rec, err := mdproto.Encode(messages[0])
	require.NoError(t, err)
	b, err := mdproto.AppendRecord(nil, rec)
	require.NoError(t, err)
	assert.Equal(t, funcDefRecord, b)
}

func TestTypeInfoOtherKind(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	ti := &mdproto.TypeInfo{Unk: 2, Type: 0x03, Rest: []byte{0xEE, 0xFF}}
	body, err := ti.MarshalAppend(nil)
	require.NoError(t, err)
	a.Equal([]byte{0x02, 0x03, 0xEE, 0xFF}, body)

	var got mdproto.TypeInfo
	require.NoError(t, got.Unmarshal(body))
	a.Nil(got.Func)
	a.Equal(*ti, got)
	a.Equal("TINFO(0x3)", got.Type.String())

	bad := &mdproto.TypeInfo{Type: 0x03, Func: &mdproto.FuncDef{}}
	_, err = bad.MarshalAppend(nil)
	a.Error(err)
}

func TestUnsupportedCmd(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	data := []byte{
		0x03, 0x02, 'h', 'i', // CMNT_FUNC_REG
		0x2A, 0x00, // unknown command, empty body
	}
	data = append(data, funcDefRecord...)

	messages, err := mdproto.Decode(data)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	u, ok := messages[0].(*mdproto.Unsupported)
	require.True(t, ok)
	a.Equal(mdproto.CmdCmntFuncReg, u.Cmd())
	a.Equal("CMNT_FUNC_REG", u.Cmd().String())
	a.Equal([]byte("hi"), u.Body)

	u, ok = messages[1].(*mdproto.Unsupported)
	require.True(t, ok)
	a.Equal("MD(42)", u.Cmd().String())
	a.False(u.Cmd().Known())
	a.Empty(u.Body)

	a.IsType(&mdproto.TypeInfo{}, messages[2])
}

func TestDecodeTruncated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		decoded int
	}{
		{"cmd", []byte{0xC0}, 0},
		{"body length", []byte{0x01, 0x05, 0x00}, 0},
		{"trailing record", append(append([]byte{}, funcDefRecord...), 0x02, 0x03, 0x00), 1},
		{"type info body", []byte{0x01, 0x01, 0x01}, 0},
		{"func def body", []byte{0x01, 0x03, 0x01, 0x0C, 0x71}, 0},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			messages, err := mdproto.Decode(tc.data)
			require.ErrorIs(t, err, protoerr.ErrTruncated)
			assert.Len(t, messages, tc.decoded)
		})
	}
}

func TestNames(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	a.Equal("INST_OPR_REP", mdproto.CmdInstOprRep.String())
	a.Equal("FUNC_DEF", mdproto.TInfoFuncDef.String())
	a.Equal("SHORT_FLOAT", mdproto.TypeTbyte.String())
	a.Equal("TYPE(0x77)", mdproto.BaseType(0x77).String())
	a.Equal("__USERCALL_2", mdproto.CCUsercall2.String())
	a.Equal("CC(2)", mdproto.CallingConv(2).String())
}
