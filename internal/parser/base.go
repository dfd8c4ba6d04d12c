package parser

import (
	"fjacquet/txmerge/internal/logging"
)

// BaseParser carries the logger shared by parser implementations. Embed it.
type BaseParser struct {
	logger logging.Logger
}

// NewBaseParser returns a BaseParser; a nil logger gets an info-level logrus adapter.
func NewBaseParser(logger logging.Logger) BaseParser {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return BaseParser{logger: logger}
}

// SetLogger replaces the logger unless logger is nil.
func (b *BaseParser) SetLogger(logger logging.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// GetLogger returns the parser's logger.
func (b *BaseParser) GetLogger() logging.Logger {
	return b.logger
}
