package extension

import (
	"fmt"

	"github.com/igorsilveira/helloext/pkg/a2a"
)

// Extension error codes. The -32001 code is shared by "no valid combination"
// and "invalid timezone"; callers tell them apart by message.
const (
	CodeInvalidParams       = a2a.ErrCodeInvalidParams
	CodeNoValidCombination  = -32001
	CodeInvalidTimezone     = -32001
	CodeGenerationFailed    = -32002
	CodeUnsupportedLanguage = -32003
)

const missingID = "Missing required parameter: id"

func InvalidParams(format string, args ...any) *a2a.JSONRPCError {
	return a2a.Errorf(CodeInvalidParams, "Invalid params: %s", fmt.Sprintf(format, args...))
}

func MissingID() *a2a.JSONRPCError {
	return InvalidParams(missingID)
}
