package kernel

import (
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/nnkernel/pkg/nnmodel"
)

// NewLeveledLog wraps a logger so that messages below the given verbosity are
// dropped. This is how the config key debug_level takes effect: level 0 keeps
// only errors, 1 adds warnings, 2 adds info, 3 adds debug output.
func NewLeveledLog(log logs.Log, level int) logs.Log {
	return &leveledLog{
		Log:   log,
		level: level,
	}
}

type leveledLog struct {
	logs.Log
	level int
}

func (l *leveledLog) Debugf(format string, a ...interface{}) {
	if l.level >= nnmodel.DebugLevelDebug {
		l.Log.Debugf(format, a...)
	}
}

func (l *leveledLog) Infof(format string, a ...interface{}) {
	if l.level >= nnmodel.DebugLevelInfo {
		l.Log.Infof(format, a...)
	}
}

func (l *leveledLog) Warnf(format string, a ...interface{}) {
	if l.level >= nnmodel.DebugLevelWarning {
		l.Log.Warnf(format, a...)
	}
}
