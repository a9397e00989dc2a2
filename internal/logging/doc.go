// Package logging provides structured logging with OpenTelemetry integration.
//
// # Overview
//
// Logging wraps Zap with:
//   - Output to stdout or stderr (stderr when stdout carries a protocol, as in MCP mode)
//   - Optional OpenTelemetry log export through the otelzap bridge
//   - Automatic context fields (trace_id, span_id, request.id, repository)
//   - Secret redaction by field name and value pattern
//   - Sampling that never drops errors
//
// # Usage
//
//	cfg := logging.NewDefaultConfig()
//	logger, err := logging.NewLogger(cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRequestID(ctx, requestID)
//	ctx = logging.WithRepository(ctx, "octo/hello")
//	logger.Info(ctx, "digest built", zap.Int("chars", n))
//
// Components that only need a plain *zap.Logger take logger.Underlying().
//
// # Testing
//
//	tl := logging.NewTestLogger()
//	tl.Info(ctx, "summarized", zap.String("repository", "octo/hello"))
//	tl.AssertLogged(t, zapcore.InfoLevel, "summarized")
//	tl.AssertNoSecrets(t)
package logging
