// Package logging provides structured logging for Gray Logic Voice.
//
// Logger embeds *slog.Logger, so it satisfies the small Logger interfaces
// declared by the directive, backend and audit packages without adapters.
// Every entry carries service=graylogic-voice and the build version.
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file:
//	    path: "./logs/graylogic-voice.log"
//	    max_size: 50     # megabytes, rotated by lumberjack
//
// Directive logs carry namespace, name and endpoint_id. Scope tokens and
// JWTs are never logged.
package logging
