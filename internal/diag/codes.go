package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// ввод-вывод
	IOLoadFileError   Code = 1001
	IOCacheReadError  Code = 1002
	IOCacheWriteError Code = 1003

	// конфигурация
	CfgInvalidFile  Code = 2001
	CfgInvalidValue Code = 2002

	// fixture lowering
	LowMalformedNode    Code = 3001
	LowUnknownKey       Code = 3002
	LowDuplicateItem    Code = 3003
	LowMissingBody      Code = 3004
	LowUnexpectedSyntax Code = 3005

	// наблюдаемость
	ObsTimings Code = 8001

	// internal compiler errors
	InternalCompilerError Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	IOLoadFileError:       "I/O error while loading file",
	IOCacheReadError:      "Fingerprint cache could not be read",
	IOCacheWriteError:     "Fingerprint cache could not be written",
	CfgInvalidFile:        "Invalid configuration file",
	CfgInvalidValue:       "Invalid configuration value",
	LowMalformedNode:      "Malformed node",
	LowUnknownKey:         "Unknown key",
	LowDuplicateItem:      "Duplicate item",
	LowMissingBody:        "Missing body",
	LowUnexpectedSyntax:   "Unexpected syntax",
	ObsTimings:            "Pipeline timings",
	InternalCompilerError: "Internal compiler error",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("LOW%04d", ic)
	case ic >= 8000 && ic < 9000:
		return fmt.Sprintf("OBS%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("ICE%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
