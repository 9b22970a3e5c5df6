package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDebugLinesFollowFlag(t *testing.T) {
	var quiet, verbose bytes.Buffer
	q := NewWithWriter(false, &quiet)
	v := NewWithWriter(true, &verbose)

	for _, l := range []*Logger{q, v} {
		l.Printf("resolved %d accounts", 3)
		l.Debugf("walk %s", "GA")
	}

	assert.Contains(t, quiet.String(), "resolved 3 accounts")
	assert.NotContains(t, quiet.String(), "walk GA")
	assert.Contains(t, verbose.String(), "resolved 3 accounts")
	assert.Contains(t, verbose.String(), "debug: walk GA")
}

func TestNilLogger(t *testing.T) {
	var l *Logger
	assert.False(t, l.Debug())
	assert.NotPanics(t, func() {
		l.Printf("ignored")
		l.Println("ignored")
		l.Debugf("ignored")
	})
}
