// Package diagnostics implements the engine's three-tier error taxonomy:
// fatal lexer errors, in-band parser errors, and severity-tagged analysis
// errors. None of these ever panic across a stage boundary; every
// producing function returns its error (or appends it to a collector)
// instead of throwing.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/sqlfront/sqlfront/internal/token"
)

// Severity classifies an analysis-stage diagnostic. Lexer and parser
// diagnostics have no severity: lexer errors are always fatal to the
// tokenize step, parser errors are always recoverable.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityCritical
)

func (s Severity) String() string {
	if s == SeverityCritical {
		return "critical"
	}
	return "warning"
}

// LexError is one malformed span the scanner recovered from.
type LexError struct {
	Code    string
	Message string
	Span    token.Span
}

func (e LexError) Error() string {
	return fmt.Sprintf("%s: %s (at %d)", e.Code, e.Message, e.Span.Offset)
}

// Well-known lexer error codes.
const (
	ErrUnterminatedString       = "L001"
	ErrUnterminatedBlockComment = "L002"
	ErrUnexpectedCharacter      = "L003"
)

// CumulatedTokenizerException is returned by the scanner's top-level entry
// point when one or more LexErrors occurred. It wraps the full error list;
// scanning itself never aborts early.
type CumulatedTokenizerException struct {
	Errors []LexError
}

func (e *CumulatedTokenizerException) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, le := range e.Errors {
		msgs[i] = le.Error()
	}
	return fmt.Sprintf("tokenize: %d error(s): %s", len(e.Errors), strings.Join(msgs, "; "))
}

func NewCumulatedTokenizerException(errs []LexError) *CumulatedTokenizerException {
	return &CumulatedTokenizerException{Errors: errs}
}

// ParseError is a single recovered parser failure. The parser never
// throws these; it appends them to ParseResult.Errors and resynchronizes.
type ParseError struct {
	Code    string
	Message string
	Span    token.Span
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%s: %s (at %d)", e.Code, e.Message, e.Span.Offset)
}

func NewParseError(code string, tok token.Token, format string, args ...any) ParseError {
	return ParseError{Code: code, Message: fmt.Sprintf(format, args...), Span: tok.Span}
}

// Well-known parser error codes.
const (
	ErrUnexpectedToken    = "P001"
	ErrExpectedExpression = "P002"
	ErrExpectedIdentifier = "P003"
	ErrUnclosedParen      = "P004"
	ErrUnknownStatement   = "P005"
)

// AnalysisError is a severity-tagged diagnostic produced during semantic
// analysis. AffectedNode is the node identity (see ast.NodeID) the error
// is about, when there is one specific node to blame.
type AnalysisError struct {
	Code         string
	Message      string
	Severity     Severity
	Span         token.Span
	AffectedNode int64
}

func (e AnalysisError) Error() string {
	return fmt.Sprintf("%s[%s]: %s (at %d)", e.Code, e.Severity, e.Message, e.Span.Offset)
}

func NewAnalysisError(code string, severity Severity, span token.Span, nodeID int64, format string, args ...any) AnalysisError {
	return AnalysisError{
		Code:         code,
		Message:      fmt.Sprintf(format, args...),
		Severity:     severity,
		Span:         span,
		AffectedNode: nodeID,
	}
}

// Well-known analysis error codes.
const (
	ErrDuplicateAlias       = "A001"
	ErrAmbiguousReference   = "A002"
	ErrUnresolvedReference  = "A003"
	ErrUnresolvedTable      = "A004"
	ErrUnresolvedStar       = "A005"
	ErrTypeConflict         = "A006"
	ErrUnsupportedStatement = "A007"
)
