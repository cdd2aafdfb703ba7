package normalize

import "testing"

const sampleEmail = `Assunto: Dúvida sobre fatura

Olá, estou com uma dúvida sobre a minha última fatura.
Podem me ajudar?

Atenciosamente,
João Silva
Gerente Financeiro
joao.silva@empresa.com.br
(11) 99999-9999`

func TestNormalizeExtractsFields(t *testing.T) {
	n := Normalize(sampleEmail)

	if n.Subject != "Dúvida sobre fatura" {
		t.Fatalf("unexpected subject %q", n.Subject)
	}
	if n.SenderEmail != "joao.silva@empresa.com.br" {
		t.Fatalf("unexpected sender email %q", n.SenderEmail)
	}
	if n.SenderName != "João Silva" {
		t.Fatalf("unexpected sender name %q", n.SenderName)
	}
	if n.SenderRole != "Gerente Financeiro" {
		t.Fatalf("unexpected sender role %q", n.SenderRole)
	}
	if n.Content != sampleEmail {
		t.Fatalf("content must be returned unchanged")
	}
}

func TestNormalizeSkipsPhoneAndAddressInSignature(t *testing.T) {
	n := Normalize("Tudo certo por aqui.\n\nAtt,\n(11) 3456-7890\nmaria@empresa.com\nMaria Souza")

	if n.SenderName != "Maria Souza" {
		t.Fatalf("expected phone and address lines to be skipped, got name %q", n.SenderName)
	}
	if n.SenderRole != "" {
		t.Fatalf("expected no role, got %q", n.SenderRole)
	}
}

func TestNormalizeWithoutSignature(t *testing.T) {
	n := Normalize("Obrigado pelo atendimento de ontem!")

	if n.SenderName != "" || n.SenderRole != "" {
		t.Fatalf("expected empty signature fields, got %q / %q", n.SenderName, n.SenderRole)
	}
	if n.Subject != "" {
		t.Fatalf("expected empty subject, got %q", n.Subject)
	}
}

func TestNormalizeEnglishSubject(t *testing.T) {
	n := Normalize("Subject: Invoice question\n\nHello, quick question about my invoice.")

	if n.Subject != "Invoice question" {
		t.Fatalf("unexpected subject %q", n.Subject)
	}
}
