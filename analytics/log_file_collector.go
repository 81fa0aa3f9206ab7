package analytics

import (
	"os"

	"github.com/mohitkumar/resolveflow/model"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogFileDataCollector struct {
	fileName string
	logger   *zap.Logger
}

func NewLogFileDataCollector(fileName string) (*LogFileDataCollector, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.StacktraceKey = ""
	fileEncoder := zapcore.NewJSONEncoder(encoderConfig)
	logFile, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	writer := zapcore.AddSync(logFile)
	core := zapcore.NewCore(fileEncoder, writer, zapcore.InfoLevel)
	return &LogFileDataCollector{
		fileName: fileName,
		logger:   zap.New(core),
	}, nil
}

func sessionFields(session *model.FlowSession) []zap.Field {
	return []zap.Field{
		zap.String("sessionId", session.Id),
		zap.String("flowId", session.FlowId),
		zap.String("category", session.Category),
		zap.String("threadId", session.ThreadId),
		zap.Int("answered", session.FlowState.Len()),
	}
}

func (lc *LogFileDataCollector) RecordCompleted(session *model.FlowSession, resolution string) {
	fields := append(sessionFields(session), zap.String("resolution", resolution))
	if session.CompletedAt != nil {
		fields = append(fields, zap.Duration("duration", session.CompletedAt.Sub(session.StartedAt)))
	}
	lc.logger.Info("completed", fields...)
}

func (lc *LogFileDataCollector) RecordAbandoned(session *model.FlowSession) {
	lc.logger.Info("abandoned", append(sessionFields(session), zap.String("node", session.CurrentNodeId))...)
}

func (lc *LogFileDataCollector) RecordContinuation(continuation model.Continuation) {
	lc.logger.Info("continuation",
		zap.String("from", continuation.FromSessionId),
		zap.String("to", continuation.ToSessionId),
		zap.String("threadId", continuation.ThreadId))
}

func (lc *LogFileDataCollector) Close() error {
	return lc.logger.Sync()
}
