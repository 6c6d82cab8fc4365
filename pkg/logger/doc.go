/*
Package logger wraps uber-go/zap behind a small interface so the walker,
worker pool and indexer can log without depending on zap directly.

Verbosity levels:

	0: Info, Warn, Error (default)
	1: Debug + Level 0
	2: Trace + Level 1

Structured fields:

	log.WithFields(logger.Fields{
	    "root":    "/srv/data",
	    "indexed": 1204,
	}).Info("Indexed 1204 files")

Error values passed as fields are encoded with zap.NamedError so the message
survives JSON encoding.

Library code that is handed no logger uses Nop().
*/
package logger
