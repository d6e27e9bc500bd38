// Package errors provides the error taxonomy shared by streamkit stages.
//
// Every error surfaced on a stream's error event is an *AppError carrying a
// machine-readable code and a Fatal flag. Fatal errors terminate the stage
// (the stream is destroyed and emits close instead of end); non-fatal
// errors are per-chunk and the stream keeps flowing.
package errors
