package ports

import (
	"context"
	"log/slog"
	"time"
)

// StructuredLogger scopes an slog.Logger with the identity of the
// component doing the logging, and hands out run/node scoped children
// so every line carries workflow and node identity without each call
// site repeating it.
type StructuredLogger struct {
	logger    *slog.Logger
	component string
	baseAttrs []slog.Attr
}

func NewStructuredLogger(logger *slog.Logger, component string) *StructuredLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &StructuredLogger{
		logger:    logger,
		component: component,
		baseAttrs: []slog.Attr{slog.String("component", component)},
	}
}

func (sl *StructuredLogger) WithRun(runID, workflowID string) *RunLogger {
	return &RunLogger{
		logger:     sl,
		runID:      runID,
		workflowID: workflowID,
	}
}

func (sl *StructuredLogger) Debug(msg string, args ...interface{}) {
	sl.log(slog.LevelDebug, msg, args...)
}

func (sl *StructuredLogger) Info(msg string, args ...interface{}) {
	sl.log(slog.LevelInfo, msg, args...)
}

func (sl *StructuredLogger) Warn(msg string, args ...interface{}) {
	sl.log(slog.LevelWarn, msg, args...)
}

func (sl *StructuredLogger) Error(msg string, args ...interface{}) {
	sl.log(slog.LevelError, msg, args...)
}

func (sl *StructuredLogger) log(level slog.Level, msg string, args ...interface{}) {
	attrs := append(append([]slog.Attr{}, sl.baseAttrs...), convertArgs(args...)...)
	sl.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// RunLogger stamps every line with run and workflow identity.
type RunLogger struct {
	logger     *StructuredLogger
	runID      string
	workflowID string
}

func (rl *RunLogger) scoped(args ...interface{}) []interface{} {
	return append([]interface{}{"run_id", rl.runID, "workflow_id", rl.workflowID}, args...)
}

func (rl *RunLogger) Debug(msg string, args ...interface{}) {
	rl.logger.Debug(msg, rl.scoped(args...)...)
}

func (rl *RunLogger) Info(msg string, args ...interface{}) {
	rl.logger.Info(msg, rl.scoped(args...)...)
}

func (rl *RunLogger) Warn(msg string, args ...interface{}) {
	rl.logger.Warn(msg, rl.scoped(args...)...)
}

func (rl *RunLogger) Error(msg string, args ...interface{}) {
	rl.logger.Error(msg, rl.scoped(args...)...)
}

func (rl *RunLogger) WithNode(nodeID, nodeType string) *NodeLogger {
	return &NodeLogger{run: rl, nodeID: nodeID, nodeType: nodeType, startTime: time.Now()}
}

// NodeLogger stamps lines with node identity and elapsed time since the
// node started.
type NodeLogger struct {
	run       *RunLogger
	nodeID    string
	nodeType  string
	startTime time.Time
}

func (nl *NodeLogger) scoped(args ...interface{}) []interface{} {
	return append([]interface{}{
		"node_id", nl.nodeID,
		"node_type", nl.nodeType,
		"elapsed", time.Since(nl.startTime),
	}, args...)
}

func (nl *NodeLogger) Debug(msg string, args ...interface{}) {
	nl.run.Debug(msg, nl.scoped(args...)...)
}

func (nl *NodeLogger) Info(msg string, args ...interface{}) {
	nl.run.Info(msg, nl.scoped(args...)...)
}

func (nl *NodeLogger) Error(msg string, args ...interface{}) {
	nl.run.Error(msg, nl.scoped(args...)...)
}

func convertArgs(args ...interface{}) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(args)/2)

	for i := 0; i < len(args)-1; i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}

		value := args[i+1]
		switch v := value.(type) {
		case string:
			attrs = append(attrs, slog.String(key, v))
		case int:
			attrs = append(attrs, slog.Int(key, v))
		case int64:
			attrs = append(attrs, slog.Int64(key, v))
		case bool:
			attrs = append(attrs, slog.Bool(key, v))
		case time.Duration:
			attrs = append(attrs, slog.Duration(key, v))
		case time.Time:
			attrs = append(attrs, slog.Time(key, v))
		case error:
			attrs = append(attrs, slog.String(key, v.Error()))
		default:
			attrs = append(attrs, slog.Any(key, v))
		}
	}

	return attrs
}
