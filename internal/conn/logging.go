// internal/conn/logging.go

package conn

import (
	"github.com/sirupsen/logrus"
)

// logConnect logs a message once the websocket handshake succeeded.
func logConnect(logger *logrus.Logger, url string) {
	logger.WithFields(logrus.Fields{
		"url": url,
	}).Info("WebSocket connected")
}

// logDisconnect logs a message when the link ends. err is nil for a normal close.
func logDisconnect(logger *logrus.Logger, url string, err error) {
	fields := logrus.Fields{
		"url": url,
	}
	if err != nil {
		fields["error"] = err
	}
	logger.WithFields(fields).Info("WebSocket disconnected")
}

// logDropped logs an outbound message that was not sent.
func logDropped(logger *logrus.Logger, kind, reason string) {
	logger.WithFields(logrus.Fields{
		"type":   kind,
		"reason": reason,
	}).Debug("WebSocket send dropped")
}
