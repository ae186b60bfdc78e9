package logger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

const sourceLocationKey = "logging.googleapis.com/sourceLocation"

// cloudFormatter renders entries in the structured layout Cloud Logging parses
// from container stdout/stderr.
type cloudFormatter struct {
	serviceName string
}

func (f *cloudFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	data := make(logrus.Fields, len(entry.Data)+5)
	for k, v := range entry.Data {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}

	loggerName := f.serviceName
	if component, ok := entry.Data[FieldComponent].(string); ok && component != "" {
		loggerName = component
	}

	data["severity"] = severity(entry.Level)
	data["message"] = entry.Message
	data["timestamp"] = entry.Time.UTC().Format(time.RFC3339Nano)
	data["labels"] = map[string]string{"logger_name": loggerName}
	if entry.HasCaller() {
		data[sourceLocationKey] = map[string]interface{}{
			"file":     entry.Caller.File,
			"line":     entry.Caller.Line,
			"function": entry.Caller.Function,
		}
	}

	line, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(line, '\n'), nil
}

func severity(level logrus.Level) string {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return "DEBUG"
	case logrus.InfoLevel:
		return "INFO"
	case logrus.WarnLevel:
		return "WARNING"
	case logrus.ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}
