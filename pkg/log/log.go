// Package log provides a simple leveled logger for csi-ingestd.
//
// Time/date are omitted by default because this daemon is expected to run
// under a supervisor (systemd or similar) that timestamps its own output;
// pass -logdate to re-enable them.
//
// Uses these prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	DebugWriter io.Writer = os.Stderr
	InfoWriter  io.Writer = os.Stderr
	WarnWriter  io.Writer = os.Stderr
	ErrWriter   io.Writer = os.Stderr
	CritWriter  io.Writer = os.Stderr
)

var (
	DebugPrefix string = "<7>[DEBUG]    "
	InfoPrefix  string = "<6>[INFO]     "
	WarnPrefix  string = "<4>[WARNING]  "
	ErrPrefix   string = "<3>[ERROR]    "
	CritPrefix  string = "<2>[CRITICAL] "
)

var (
	DebugLog *log.Logger = log.New(DebugWriter, DebugPrefix, 0)
	InfoLog  *log.Logger = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.Lshortfile)
	ErrLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.Llongfile)
	CritLog  *log.Logger = log.New(CritWriter, CritPrefix, log.Llongfile)

	DebugTimeLog *log.Logger = log.New(DebugWriter, DebugPrefix, log.LstdFlags)
	InfoTimeLog  *log.Logger = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog  *log.Logger = log.New(WarnWriter, WarnPrefix, log.LstdFlags|log.Lshortfile)
	ErrTimeLog   *log.Logger = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Llongfile)
	CritTimeLog  *log.Logger = log.New(CritWriter, CritPrefix, log.LstdFlags|log.Llongfile)
)

// SetLevel disables all levels below lvl by redirecting their writers to
// io.Discard. Valid values: "crit", "err", "warn", "info", "debug".
func SetLevel(lvl string) {
	switch lvl {
	case "crit":
		ErrWriter = io.Discard
		fallthrough
	case "err", "fatal":
		WarnWriter = io.Discard
		fallthrough
	case "warn":
		InfoWriter = io.Discard
		fallthrough
	case "info":
		DebugWriter = io.Discard
	case "debug":
		// nothing disabled
	default:
		fmt.Printf("log: unknown level %q, using \"debug\"\n", lvl)
		SetLevel("debug")
	}
}

func SetLogDateTime(v bool) {
	logDateTime = v
}

func printStr(v ...any) string { return fmt.Sprint(v...) }

func Print(v ...any) { Info(v...) }

func Debug(v ...any) {
	if DebugWriter == io.Discard {
		return
	}
	if logDateTime {
		DebugTimeLog.Output(2, printStr(v...))
	} else {
		DebugLog.Output(2, printStr(v...))
	}
}

func Info(v ...any) {
	if InfoWriter == io.Discard {
		return
	}
	if logDateTime {
		InfoTimeLog.Output(2, printStr(v...))
	} else {
		InfoLog.Output(2, printStr(v...))
	}
}

func Warn(v ...any) {
	if WarnWriter == io.Discard {
		return
	}
	if logDateTime {
		WarnTimeLog.Output(2, printStr(v...))
	} else {
		WarnLog.Output(2, printStr(v...))
	}
}

func Error(v ...any) {
	if ErrWriter == io.Discard {
		return
	}
	if logDateTime {
		ErrTimeLog.Output(2, printStr(v...))
	} else {
		ErrLog.Output(2, printStr(v...))
	}
}

// Fatal writes an error log line then terminates the process.
func Fatal(v ...any) {
	Error(v...)
	os.Exit(1)
}

func Crit(v ...any) {
	if CritWriter == io.Discard {
		return
	}
	if logDateTime {
		CritTimeLog.Output(2, printStr(v...))
	} else {
		CritLog.Output(2, printStr(v...))
	}
}

func printfStr(format string, v ...any) string { return fmt.Sprintf(format, v...) }

func Printf(format string, v ...any) { Infof(format, v...) }

func Debugf(format string, v ...any) {
	if DebugWriter == io.Discard {
		return
	}
	if logDateTime {
		DebugTimeLog.Output(2, printfStr(format, v...))
	} else {
		DebugLog.Output(2, printfStr(format, v...))
	}
}

func Infof(format string, v ...any) {
	if InfoWriter == io.Discard {
		return
	}
	if logDateTime {
		InfoTimeLog.Output(2, printfStr(format, v...))
	} else {
		InfoLog.Output(2, printfStr(format, v...))
	}
}

func Warnf(format string, v ...any) {
	if WarnWriter == io.Discard {
		return
	}
	if logDateTime {
		WarnTimeLog.Output(2, printfStr(format, v...))
	} else {
		WarnLog.Output(2, printfStr(format, v...))
	}
}

func Errorf(format string, v ...any) {
	if ErrWriter == io.Discard {
		return
	}
	if logDateTime {
		ErrTimeLog.Output(2, printfStr(format, v...))
	} else {
		ErrLog.Output(2, printfStr(format, v...))
	}
}

// Fatalf writes a formatted error log line then terminates the process.
func Fatalf(format string, v ...any) {
	Errorf(format, v...)
	os.Exit(1)
}

func Critf(format string, v ...any) {
	if CritWriter == io.Discard {
		return
	}
	if logDateTime {
		CritTimeLog.Output(2, printfStr(format, v...))
	} else {
		CritLog.Output(2, printfStr(format, v...))
	}
}
