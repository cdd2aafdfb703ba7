// Package prompt assembles the classification-and-response prompt sent to
// every LLM tier. The output is deterministic for identical inputs so the
// pipeline stays testable.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-email-triage/internal/core"
	"github.com/mikey/llm-email-triage/internal/nlp"
	"github.com/mikey/llm-email-triage/internal/normalize"
)

const (
	defaultRecipient   = "cliente@email.com"
	defaultSubjectLine = "Re: Seu contato"
	defaultCompany     = "Equipe de Suporte"
)

const promptFormat = `Você é um assistente profissional da empresa %s.

Classifique o email abaixo como "productive" ou "unproductive" e gere uma resposta adequada.

PRODUTIVO = Email relacionado aos NEGÓCIOS da empresa:
- Dúvidas sobre produtos/serviços
- Problemas técnicos ou bugs
- Solicitações de suporte ou informações
- Reclamações sobre serviços
- Questões comerciais (preços, contratos)
- Perguntas sobre a empresa (localização, horários, etc)

IMPRODUTIVO = Email pessoal/social SEM relação com negócios:
- Agradecimentos, felicitações e convites
- Perguntas pessoais sobre funcionários
- Saudações sociais puras sem contexto
- Spam ou marketing externo
- Conversas casuais

REGRAS: Se o email pergunta ALGO SOBRE A EMPRESA OU SEUS SERVIÇOS, é PRODUTIVO. Se o email é URGENTE sobre algo da empresa, é PRODUTIVO.

EMAIL:
Assunto: %s
Remetente: %s
Conteúdo:
%s

INSTRUÇÕES PARA A RESPOSTA:
1. Identifique o tipo de questão e seja específico sobre o contexto do remetente
2. Para emails produtivos, ofereça solução clara ou próximos passos
3. Para emails improdutivos, responda de forma breve e cordial
4. Use tom profissional mas acessível
5. SEMPRE termine o corpo com: "Atenciosamente,\n%s"%s

Responda APENAS com um objeto JSON válido, sem texto adicional:
{
  "category": "productive" ou "unproductive",
  "confidence": número entre 0 e 1 indicando sua confiança,
  "reasoning": "explicação em 2-3 frases do porquê da classificação",
  "response": {
    "to": "%s",
    "subject": "%s",
    "body": "corpo da resposta gerada"
  }
}`

// Builder assembles classification prompts
type Builder struct {
	pre *nlp.Preprocessor
}

// NewBuilder creates a new prompt builder
func NewBuilder(pre *nlp.Preprocessor) *Builder {
	return &Builder{pre: pre}
}

// Build produces the tier prompt for an email and an optional company
// profile. Profile name and custom instructions are injected verbatim;
// without a profile the neutral defaults apply.
func (b *Builder) Build(email *core.Email, profile *core.CompanyProfile) string {
	n := normalize.Normalize(email.Content)

	subject := email.Subject
	if subject == "" {
		subject = n.Subject
	}
	subjectLine := "Sem assunto"
	if subject != "" {
		subjectLine = subject
	}

	company := defaultCompany
	customBlock := ""
	if profile != nil {
		if profile.CompanyName != "" {
			company = profile.CompanyName
		}
		if profile.CustomInstructions != "" {
			customBlock = fmt.Sprintf("\n\nINSTRUÇÕES PERSONALIZADAS DA EMPRESA:\n%s", profile.CustomInstructions)
		}
	}

	content := b.pre.NormalizeForModel(email.Content)

	return fmt.Sprintf(promptFormat,
		company,
		subjectLine,
		senderContext(email, n),
		content,
		company,
		customBlock,
		recipient(email, n),
		replySubject(subject),
	)
}

// senderContext summarizes what is known about the sender
func senderContext(email *core.Email, n normalize.Normalized) string {
	var parts []string
	if n.SenderName != "" {
		if n.SenderRole != "" {
			parts = append(parts, fmt.Sprintf("%s (%s)", n.SenderName, n.SenderRole))
		} else {
			parts = append(parts, n.SenderName)
		}
	}
	if addr := senderAddress(email, n); addr != "" {
		parts = append(parts, addr)
	}
	if len(parts) == 0 {
		return "Não identificado"
	}
	return strings.Join(parts, " - ")
}

func senderAddress(email *core.Email, n normalize.Normalized) string {
	if strings.Contains(email.Sender, "@") {
		return email.Sender
	}
	return n.SenderEmail
}

func recipient(email *core.Email, n normalize.Normalized) string {
	if addr := senderAddress(email, n); addr != "" {
		return addr
	}
	return defaultRecipient
}

func replySubject(subject string) string {
	if subject == "" {
		return defaultSubjectLine
	}
	return "Re: " + subject
}
