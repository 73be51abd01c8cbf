package werror

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
)

var _ fmt.Formatter = stacktrace(nil)

const defaultStackDepth = 48

// stacktrace only stores the pointers; frames are resolved lazily on format.
type stacktrace []uintptr

func capture(skip int) stacktrace {
	st := make(stacktrace, defaultStackDepth)
	n := runtime.Callers(2+skip, st)
	return st[:n]
}

func formatFrame(s fmt.State, fr runtime.Frame, verb rune) {
	fn := fr.Function
	if fn == "" {
		fn = "unknown"
	}
	switch verb {
	case 'v', 's':
		io.WriteString(s, fn)
		io.WriteString(s, "\n\t")
		io.WriteString(s, fr.File)
		if s.Flag('+') {
			io.WriteString(s, ":")
			io.WriteString(s, strconv.Itoa(fr.Line))
		}
	}
}

func (st stacktrace) Format(s fmt.State, verb rune) {
	frames := runtime.CallersFrames(st)
	for {
		fr, more := frames.Next()
		io.WriteString(s, "\n")
		formatFrame(s, fr, verb)
		if !more {
			break
		}
	}
}
