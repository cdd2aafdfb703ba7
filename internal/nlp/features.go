package nlp

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Keyword lists are stored accent-folded; input text is folded before
// matching so accented and plain spellings both count.
var (
	technicalKeywords = []string{
		"erro", "bug", "falha", "defeito", "problema tecnico",
		"nao funciona", "nao consegui", "travando", "lento",
		"crash", "parou", "quebrado", "corrompido",
	}
	businessKeywords = []string{
		"preco", "custo", "valor", "orcamento", "proposta",
		"contrato", "comprar", "adquirir", "contratar",
		"investimento", "pagamento", "fatura",
	}
	supportKeywords = []string{
		"ajuda", "suporte", "duvida", "como fazer", "nao sei",
		"orientacao", "assistencia", "informacao", "esclarecimento",
		"tutorial", "instrucao", "passo a passo",
	}
	socialKeywords = []string{
		"parabens", "felicitacoes", "aniversario", "festa",
		"convite", "celebracao", "gratidao", "obrigado por tudo",
		"abraco", "beijo", "feliz", "alegria",
	}
	urgencyKeywords = []string{
		"urgente", "imediato", "asap", "rapido", "prazo",
		"emergencia", "critico", "quanto antes",
	}
)

var deadlineRes = []*regexp.Regexp{
	regexp.MustCompile(`prazo`),
	regexp.MustCompile(`ate (hoje|amanha|segunda|terca|quarta|quinta|sexta)`),
	regexp.MustCompile(`ate (?:dia|o dia) \d{1,2}`),
	regexp.MustCompile(`deadline`),
	regexp.MustCompile(`data limite`),
}

// Features holds the signals extracted from an email's text
type Features struct {
	WordCount            int
	QuestionCount        int
	ExclamationCount     int
	HasMultipleQuestions bool
	CapsRatio            float64
	TechnicalScore       float64
	BusinessScore        float64
	SupportScore         float64
	SocialScore          float64
	UrgencyScore         float64
	HasDeadlineMention   bool
	Category             string
	Confidence           float64
}

// Extractor computes keyword and structure features from email text
type Extractor struct {
	logger *zap.Logger
}

// NewExtractor creates a new feature extractor
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract computes all features over subject and content together
func (e *Extractor) Extract(content, subject string) Features {
	full := Fold(strings.TrimSpace(subject + " " + content))

	f := Features{
		WordCount:        len(strings.Fields(content)),
		QuestionCount:    strings.Count(content, "?"),
		ExclamationCount: strings.Count(content, "!"),
		CapsRatio:        capsRatio(content),
		TechnicalScore:   keywordScore(full, technicalKeywords),
		BusinessScore:    keywordScore(full, businessKeywords),
		SupportScore:     keywordScore(full, supportKeywords),
		SocialScore:      keywordScore(full, socialKeywords),
	}
	f.HasMultipleQuestions = f.QuestionCount >= 2
	f.UrgencyScore = e.urgencyScore(full, f)
	f.HasDeadlineMention = hasDeadlineMention(full)
	f.Category = classifyByFeatures(f)
	f.Confidence = featureConfidence(f)

	e.logger.Debug("Extracted text features",
		zap.Float64("technical", f.TechnicalScore),
		zap.Float64("business", f.BusinessScore),
		zap.Float64("support", f.SupportScore),
		zap.Float64("social", f.SocialScore),
		zap.Float64("urgency", f.UrgencyScore))

	return f
}

// keywordScore normalizes so three matches saturate at 1.0
func keywordScore(text string, keywords []string) float64 {
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matches++
		}
	}
	score := float64(matches) / 3.0
	if score > 1.0 {
		return 1.0
	}
	return score
}

func (e *Extractor) urgencyScore(text string, f Features) float64 {
	score := 0.0
	for _, kw := range urgencyKeywords {
		if strings.Contains(text, kw) {
			score += 0.3
		}
	}
	if f.ExclamationCount >= 2 {
		score += 0.2
	}
	if f.CapsRatio > 0.5 {
		score += 0.2
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

func hasDeadlineMention(text string) bool {
	for _, re := range deadlineRes {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func capsRatio(text string) float64 {
	letters, caps := 0, 0
	for _, r := range text {
		if 'a' <= r && r <= 'z' {
			letters++
		} else if 'A' <= r && r <= 'Z' {
			letters++
			caps++
		}
	}
	if letters == 0 {
		return 0.0
	}
	return float64(caps) / float64(letters)
}

// classifyByFeatures gives a coarse category hint used only by the
// fallback chain, never by the LLM tiers
func classifyByFeatures(f Features) string {
	if f.TechnicalScore > 0.3 || f.BusinessScore > 0.3 || f.SupportScore > 0.3 {
		return "productive"
	}
	if f.SocialScore > 0.3 && f.TechnicalScore < 0.1 && f.BusinessScore < 0.1 {
		return "unproductive"
	}
	return "uncertain"
}

func featureConfidence(f Features) float64 {
	max := f.TechnicalScore
	for _, s := range []float64{f.BusinessScore, f.SupportScore, f.SocialScore} {
		if s > max {
			max = s
		}
	}
	switch {
	case max > 0.5:
		return 0.8
	case max > 0.3:
		return 0.6
	default:
		return 0.3
	}
}
