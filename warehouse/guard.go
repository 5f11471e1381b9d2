package warehouse

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/adarshms444/Agentic-AI-Retail-Analytics-System/errors"
	"github.com/adarshms444/Agentic-AI-Retail-Analytics-System/llm"
)

var (
	stringLiteral = regexp.MustCompile(`'(?:[^']|'')*'`)
	lineComment   = regexp.MustCompile(`--[^\n]*`)
	blockComment  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	writeKeyword  = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|grant|revoke|copy|call|merge|vacuum|reindex|set|reset|listen|notify)\b`)
	leadingLabel  = regexp.MustCompile(`(?i)^\s*(sql\s*(query)?\s*:)\s*`)
)

// CleanSQL strips code fences, a leading "SQL:" label and trailing semicolons
// from model output.
func CleanSQL(text string) string {
	s := llm.StripCodeFences(text)
	s = leadingLabel.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, ";") {
		s = strings.TrimSpace(strings.TrimSuffix(s, ";"))
	}
	return s
}

// CheckReadOnly accepts a single SELECT or WITH statement and rejects
// anything that writes or changes session state.
func CheckReadOnly(query string) error {
	bare := stringLiteral.ReplaceAllString(query, "''")
	bare = blockComment.ReplaceAllString(bare, " ")
	bare = lineComment.ReplaceAllString(bare, " ")
	bare = strings.TrimSpace(bare)

	if bare == "" {
		return fmt.Errorf("%w: empty statement", apperrors.ErrReadOnlyViolation)
	}
	if strings.Contains(bare, ";") {
		return fmt.Errorf("%w: multiple statements", apperrors.ErrReadOnlyViolation)
	}
	fields := strings.Fields(bare)
	first := strings.ToUpper(strings.TrimLeft(fields[0], "("))
	if first != "SELECT" && first != "WITH" {
		return fmt.Errorf("%w: statement starts with %s", apperrors.ErrReadOnlyViolation, fields[0])
	}
	if kw := writeKeyword.FindString(bare); kw != "" {
		return fmt.Errorf("%w: contains %s", apperrors.ErrReadOnlyViolation, strings.ToUpper(kw))
	}
	return nil
}
