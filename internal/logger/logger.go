// Package logger provides leveled logging for every context. Output goes to
// a per-day file under the data directory; debug mode echoes to stdout.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

var (
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	debugLogger *log.Logger
	logFile     *os.File
	debugMode   bool
)

// Init opens the log file. With debug set, messages also go to stdout.
func Init(logsDir string, debug bool) error {
	debugMode = debug

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("create logs directory: %w", err)
	}

	logPath := filepath.Join(logsDir, fmt.Sprintf("tubefocus_%s.log", time.Now().Format("2006-01-02")))

	var err error
	logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	var writer io.Writer = logFile
	if debugMode {
		writer = io.MultiWriter(os.Stdout, logFile)
	}

	infoLogger = log.New(writer, "[INFO] ", log.Ldate|log.Ltime|log.Lshortfile)
	warnLogger = log.New(writer, "[WARN] ", log.Ldate|log.Ltime|log.Lshortfile)
	errorLogger = log.New(writer, "[ERROR] ", log.Ldate|log.Ltime|log.Lshortfile)
	debugLogger = log.New(writer, "[DEBUG] ", log.Ldate|log.Ltime|log.Lshortfile)

	Info("logging to %s (debug: %v)", logPath, debugMode)
	return nil
}

func Close() {
	if logFile != nil {
		logFile.Close()
	}
}

// Info logs routine events. Dropped when Init has not run.
func Info(format string, v ...any) {
	if infoLogger != nil {
		infoLogger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Warn logs recoverable problems. Falls back to stderr before Init.
func Warn(format string, v ...any) {
	if warnLogger != nil {
		warnLogger.Output(2, fmt.Sprintf(format, v...))
	} else {
		log.Printf("[WARN] "+format, v...)
	}
}

// Error logs failures. Falls back to stderr before Init.
func Error(format string, v ...any) {
	if errorLogger != nil {
		errorLogger.Output(2, fmt.Sprintf(format, v...))
	} else {
		log.Printf("[ERROR] "+format, v...)
	}
}

// Debug logs developer detail. Dropped when Init has not run or debug mode
// is off.
func Debug(format string, v ...any) {
	if debugLogger != nil && debugMode {
		debugLogger.Output(2, fmt.Sprintf(format, v...))
	}
}
