package mdproto

import "strconv"

// BaseType is the type_t byte of a declaration.
type BaseType uint32

const (
	TypeVoid       BaseType = 0x01
	TypeInt8       BaseType = 0x02
	TypeChar       BaseType = 0x32
	TypeInt16      BaseType = 0x03
	TypeInt32      BaseType = 0x04
	TypeInt64      BaseType = 0x05
	TypeInt128     BaseType = 0x06
	TypeInt        BaseType = 0x07
	TypeSeg        BaseType = 0x37
	TypeBool       BaseType = 0x08
	TypeBool1      BaseType = 0x18
	TypeBool2      BaseType = 0x28
	TypeBool4      BaseType = 0x38
	TypeBool8      BaseType = 0x48
	TypeFloat      BaseType = 0x09
	TypeDouble     BaseType = 0x19
	TypeLongDouble BaseType = 0x29
	TypeShortFloat BaseType = 0x39

	TypeWord    BaseType = 0x10
	TypeQword   BaseType = 0x20
	TypeUnknown BaseType = 0x30
	TypeByte    BaseType = 0x11
	TypeDword   BaseType = 0x21
	TypeOword   BaseType = 0x31
	// TypeTbyte shares its value with TypeShortFloat.
	TypeTbyte BaseType = 0x39
)

var baseTypeNames = map[BaseType]string{
	TypeVoid:       "VOID",
	TypeInt8:       "__INT8",
	TypeChar:       "CHAR",
	TypeInt16:      "__INT16",
	TypeInt32:      "__INT32",
	TypeInt64:      "__INT64",
	TypeInt128:     "__INT128",
	TypeInt:        "INT",
	TypeSeg:        "__SEG",
	TypeBool:       "BOOL",
	TypeBool1:      "_BOOL1",
	TypeBool2:      "_BOOL2",
	TypeBool4:      "_BOOL4",
	TypeBool8:      "_BOOL8",
	TypeFloat:      "FLOAT",
	TypeDouble:     "DOUBLE",
	TypeLongDouble: "LONG_DOUBLE",
	TypeShortFloat: "SHORT_FLOAT",
	TypeWord:       "_WORD",
	TypeQword:      "_QWORD",
	TypeUnknown:    "_UNKNOWN",
	TypeByte:       "_BYTE",
	TypeDword:      "_DWORD",
	TypeOword:      "_OWORD",
}

func (t BaseType) String() string {
	if name, ok := baseTypeNames[t]; ok {
		return name
	}
	return "TYPE(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}

// Modifier values of TYPE_DECL_MODIF.
const (
	ModSigned    = 0x10
	ModUnsigned  = 0x20
	ModConst     = 0x40
	ModVolatile  = 0x80
	ModPointer   = 0x0a00
	ModNoReturn  = 0xaf01
	ModHidden    = 0xff41
	ModReturnPtr = 0xff42
	ModStructPtr = 0xff43
	ModArrayPtr  = 0xff48
)

// Function kinds of FUNC_DEF_MODIF.
const (
	FuncNear      = 0x0C | 0x40>>2
	FuncFar       = 0x0C | 0x80>>2
	FuncInterrupt = 0x0C | 0xC0>>2
)

// CallingConv is the high nibble of FuncDef.Flags.
type CallingConv uint8

const (
	CCBad       CallingConv = 0x0
	CCCdecl     CallingConv = 0x3
	CCStdcall   CallingConv = 0x5
	CCPascal    CallingConv = 0x6
	CCFastcall  CallingConv = 0x7
	CCThiscall  CallingConv = 0x8
	CCNocall    CallingConv = 0x9
	CCUsercall  CallingConv = 0xD
	CCUserpurge CallingConv = 0xE
	CCUsercall2 CallingConv = 0xF
)

var ccNames = map[CallingConv]string{
	CCBad:       "__BAD_CC",
	CCCdecl:     "__CDECL",
	CCStdcall:   "__STDCALL",
	CCPascal:    "__PASCAL",
	CCFastcall:  "__FASTCALL",
	CCThiscall:  "__THISCALL",
	CCNocall:    "NOCALL",
	CCUsercall:  "__USERCALL",
	CCUserpurge: "__USERPURGE",
	CCUsercall2: "__USERCALL_2",
}

func (c CallingConv) String() string {
	if name, ok := ccNames[c]; ok {
		return name
	}
	return "CC(" + strconv.Itoa(int(c)) + ")"
}
