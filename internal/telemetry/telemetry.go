//
// Copyright (c) 2025 Markku Rossi
//
// All rights reserved.
//

// Package telemetry implements the module's level-gated diagnostic
// logger: a primary sink, an optional syslog-style fan-out sink, and a
// buffered mode for callers that want to batch output until handshake
// completion.
package telemetry

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Log levels, most severe first. A message is written when its level is
// at or below the configured level.
const (
	LevelError = iota
	LevelWarn
	LevelInfo
	LevelDebug
	LevelTrace
)

var (
	mu         sync.Mutex
	sink       io.Writer
	syslogSink io.Writer
	level      = LevelInfo
	instaflush = true
	pending    bytes.Buffer
)

// Init configures the primary sink, the log level, and whether writes
// are flushed immediately. It resets any previously attached syslog
// sink and any pending buffered output.
func Init(w io.Writer, lvl int, flush bool) {
	mu.Lock()
	defer mu.Unlock()

	sink = w
	syslogSink = nil
	level = lvl
	instaflush = flush
	pending.Reset()
}

// SetLevel changes the log level.
func SetLevel(lvl int) {
	mu.Lock()
	defer mu.Unlock()

	level = lvl
}

// AttachSyslog attaches a secondary sink. Every message written to the
// primary sink is also written to w.
func AttachSyslog(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	syslogSink = w
}

// SetInstaflush toggles buffering. Turning instaflush on flushes any
// pending buffered output.
func SetInstaflush(flush bool) {
	mu.Lock()
	defer mu.Unlock()

	instaflush = flush
	if instaflush && pending.Len() > 0 {
		flushLocked(pending.Bytes())
		pending.Reset()
	}
}

// Flush writes out any buffered output without changing the buffering
// mode.
func Flush() {
	mu.Lock()
	defer mu.Unlock()

	if pending.Len() > 0 {
		flushLocked(pending.Bytes())
		pending.Reset()
	}
}

// Tracef logs at trace level.
func Tracef(format string, a ...interface{}) {
	logf(LevelTrace, format, a...)
}

// Debugf logs at debug level.
func Debugf(format string, a ...interface{}) {
	logf(LevelDebug, format, a...)
}

// Infof logs at info level.
func Infof(format string, a ...interface{}) {
	logf(LevelInfo, format, a...)
}

// Warnf logs at warning level.
func Warnf(format string, a ...interface{}) {
	logf(LevelWarn, format, a...)
}

// Errorf logs at error level.
func Errorf(format string, a ...interface{}) {
	logf(LevelError, format, a...)
}

func logf(lvl int, format string, a ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if sink == nil || lvl > level {
		return
	}
	msg := fmt.Sprintf(format, a...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	if instaflush {
		flushLocked([]byte(msg))
	} else {
		pending.WriteString(msg)
	}
}

func flushLocked(data []byte) {
	if sink != nil {
		sink.Write(data)
	}
	if syslogSink != nil {
		syslogSink.Write(data)
	}
}
