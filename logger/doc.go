// Package logger provides structured logging for streamkit using zerolog.
//
// Stages log their lifecycle at debug level and unhandled error events at
// warn level, tagged with the stage name and stream ID.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("stream")
//	log.Debug("stage ended", logger.Fields(logger.FieldStage, "split"))
package logger
