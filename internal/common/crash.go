// -----------------------------------------------------------------------
// Crash Reports - last-resort diagnostics for panics
// -----------------------------------------------------------------------

package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CrashLogDir is where crash reports land. InstallCrashHandler overrides it
// during startup.
var CrashLogDir = "./logs"

// InstallCrashHandler prepares the crash report directory. Call it at the
// start of main, before anything that can panic, paired with a deferred
// RecoverWithCrashFile.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}

	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create crash log directory: %v\n", err)
	}
}

// WriteCrashFile persists a crash report for the given panic and returns the
// report path. It runs inside recovery handlers, so it sticks to plain file
// IO with a stderr fallback rather than anything that could fail quietly.
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	timestamp := time.Now().Format("2006-01-02T15-04-05")
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", timestamp))

	var report bytes.Buffer
	section := func(title, body string) {
		fmt.Fprintf(&report, "=== %s ===\n%s\n", title, body)
	}

	section("QUAESTOR CRASH REPORT", fmt.Sprintf("Time: %s\nVersion: %s\n",
		time.Now().Format(time.RFC3339), GetFullVersion()))
	section("PANIC VALUE", fmt.Sprintf("%v\n", panicVal))
	section("STACK TRACE", stackTrace)
	section("ALL GOROUTINES", GetAllGoroutineStacks())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	section("SYSTEM INFO", fmt.Sprintf(
		"NumGoroutine: %d\nNumCPU: %d\nGOOS: %s\nGOARCH: %s\nAlloc: %d MB\nSys: %d MB\nNumGC: %d\n",
		runtime.NumGoroutine(), runtime.NumCPU(), runtime.GOOS, runtime.GOARCH,
		memStats.Alloc/1024/1024, memStats.Sys/1024/1024, memStats.NumGC))

	report.WriteString("=== END CRASH REPORT ===\n")

	file, err := os.OpenFile(crashPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create crash file: %v\n", err)
		fmt.Fprint(os.Stderr, report.String())
		return ""
	}

	if _, err := file.Write(report.Bytes()); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n", err)
		fmt.Fprint(os.Stderr, report.String())
	}
	file.Sync()
	file.Close()

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\n", crashPath)
	fmt.Fprintf(os.Stderr, "Panic: %v\n", panicVal)

	return crashPath
}

// GetAllGoroutineStacks dumps every goroutine's stack, growing the buffer
// until the dump fits.
func GetAllGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
		if len(buf) > 64*1024*1024 {
			return string(buf[:runtime.Stack(buf, true)])
		}
	}
}

// GetStackTrace returns the current goroutine's stack trace.
func GetStackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile is the deferred top-of-main recovery: any panic that
// escapes gets a crash report and a nonzero exit.
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, GetStackTrace())
		os.Exit(1)
	}
}
