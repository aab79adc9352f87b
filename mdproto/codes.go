package mdproto

import "strconv"

// Cmd selects the body layout of a metadata record.
type Cmd uint32

const (
	CmdTypeInfo    Cmd = 0x1
	CmdNop         Cmd = 0x2
	CmdCmntFuncReg Cmd = 0x3
	CmdCmntFuncRep Cmd = 0x4
	CmdCmntInstReg Cmd = 0x5
	CmdCmntInstRep Cmd = 0x6
	CmdCmntExtra   Cmd = 0x7
	CmdStackPtrs   Cmd = 0x8
	CmdFrameDescr  Cmd = 0x9
	CmdInstOprRep  Cmd = 0xA
)

var cmdNames = [...]string{
	CmdTypeInfo:    "TYPE_INFO",
	CmdNop:         "NOP",
	CmdCmntFuncReg: "CMNT_FUNC_REG",
	CmdCmntFuncRep: "CMNT_FUNC_REP",
	CmdCmntInstReg: "CMNT_INST_REG",
	CmdCmntInstRep: "CMNT_INST_REP",
	CmdCmntExtra:   "CMNT_EXTRA",
	CmdStackPtrs:   "STACK_PTRS",
	CmdFrameDescr:  "FRAME_DESCR",
	CmdInstOprRep:  "INST_OPR_REP",
}

func (c Cmd) String() string {
	if c.Known() {
		return cmdNames[c]
	}
	return "MD(" + strconv.FormatUint(uint64(c), 10) + ")"
}

func (c Cmd) Known() bool {
	return c >= CmdTypeInfo && c <= CmdInstOprRep
}

// TInfoType is the kind of type descriptor carried by TYPE_INFO.
type TInfoType uint32

const TInfoFuncDef TInfoType = 0x0C

func (t TInfoType) String() string {
	if t == TInfoFuncDef {
		return "FUNC_DEF"
	}
	return "TINFO(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}
