// Package nlp provides text preprocessing and feature extraction used to
// clean email content before prompting and to enrich the heuristic
// fallback.
package nlp

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mikey/llm-email-triage/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var autoSignatureRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)enviado do meu (iphone|ipad|android|samsung|xiaomi).*`),
	regexp.MustCompile(`(?i)sent from my (iphone|ipad|android).*`),
	regexp.MustCompile(`(?i)get outlook for (ios|android).*`),
	regexp.MustCompile(`(?i)baixado do outlook para (ios|android).*`),
	regexp.MustCompile(`(?i)aviso legal:.*`),
	regexp.MustCompile(`(?i)disclaimer:.*`),
}

var (
	spaceRunRe = regexp.MustCompile(`[ \t]+`)
	blankRunRe = regexp.MustCompile(`\n{3,}`)
)

// foldTransformer strips combining marks so accented and plain spellings
// compare equal ("dúvida" == "duvida")
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases text and removes diacritics
func Fold(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		folded = text
	}
	return strings.ToLower(folded)
}

// Preprocessor cleans raw email text before it reaches a model
type Preprocessor struct {
	logger   *zap.Logger
	text     *utils.TextProcessor
	maxChars int
}

// NewPreprocessor creates a new preprocessor. maxChars bounds the content
// injected into prompts.
func NewPreprocessor(logger *zap.Logger, text *utils.TextProcessor, maxChars int) *Preprocessor {
	return &Preprocessor{
		logger:   logger,
		text:     text,
		maxChars: maxChars,
	}
}

// NormalizeForModel strips automatic signatures and legal footers,
// collapses whitespace and truncates to the configured size, keeping the
// result valid UTF-8. It removes noise only; the wording of the email is
// preserved.
func (p *Preprocessor) NormalizeForModel(text string) string {
	cleaned := text
	for _, re := range autoSignatureRes {
		cleaned = re.ReplaceAllString(cleaned, "")
	}

	cleaned = spaceRunRe.ReplaceAllString(cleaned, " ")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	normalized := p.text.ProcessText(cleaned, p.maxChars)

	if len(normalized) != len(text) {
		p.logger.Debug("Content normalized for model",
			zap.Int("original_size", len(text)),
			zap.Int("normalized_size", len(normalized)))
	}

	return normalized
}
