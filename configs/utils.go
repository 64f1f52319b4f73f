package configs

import (
	"fmt"
	"log"
	"time"

	"github.com/goccy/go-json"
)

// TPrintf prints trace-level messages, gated by ShowTestInfo, exactly as the
// teacher's TPrintf in configs/utils.go.
func TPrintf(format string, a ...interface{}) {
	if ShowTestInfo {
		emit(format, a...)
	}
}

// DPrintf prints debug-level messages, gated by ShowDebugInfo.
func DPrintf(format string, a ...interface{}) {
	if ShowDebugInfo {
		emit(format, a...)
	}
}

func emit(format string, a ...interface{}) {
	line := time.Now().Format("15:04:05.000") + " <---> " + format
	if LogToFile {
		log.Printf(line, a...)
	} else {
		fmt.Printf(line+"\n", a...)
	}
}

// Warn prints a warning when cond is false, gated by ShowWarnings.
func Warn(cond bool, msg string) bool {
	if ShowWarnings && !cond {
		emit("[WARNING] %s", msg)
	}
	return cond
}

// Assert panics with msg when cond is false. Reserved for invariant
// violations the protocol itself should make impossible, never for
// externally triggerable error paths.
func Assert(cond bool, msg string) bool {
	if !cond {
		panic("[ERROR] assertion failed: " + msg)
	}
	return cond
}

// JToString marshals v with the teacher's chosen JSON library for debug
// dumps (configs.JPrint in the teacher).
func JToString(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}
