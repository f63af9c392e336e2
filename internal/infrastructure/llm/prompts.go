package llm

import (
	"fmt"
	"strings"
)

const digestPromptEN = `Extract 6-12 main news stories from this briefing.

For EACH story, provide:
1. Story title (highlight, important)
2. Key details (2-4 bullets with specific words/phrases/numbers extracted from text)
3. If there's a link/URL mentioned for this story in the content, include it

Format EXACTLY like this:

<strong style="font-size: 18px; display: block; margin-top: 12px; margin-bottom: 2px;">1. [Story Title]</strong>
• [Detail with specific words from text]
• [Detail with numbers/names/specific data]

Newsletter content:
`

const digestPromptPT = `Extraia 6-12 notícias principais do briefing.

Para CADA notícia, forneça:
1. Título da notícia (destaque, importante)
2. Detalhes chave (2-4 bullets com palavras/frases/números específicos extraídos do texto)
3. Se houver um link/URL mencionado para esta notícia no conteúdo, inclua-o

Formate EXATAMENTE assim:

<strong style="font-size: 18px; display: block; margin-top: 12px; margin-bottom: 2px;">1. [Título da Notícia]</strong>
• [Detalhe com palavras específicas do texto]
• [Detalhe com números/nomes/dados específicos]

CRÍTICO: Responda em português

Conteúdo do newsletter:
`

// BuildDigestPrompt asks the model to break a multi-story digest into
// numbered stories in the detected language.
func BuildDigestPrompt(content string, portuguese bool) string {
	if portuguese {
		return digestPromptPT + "\n" + content
	}
	return digestPromptEN + "\n" + content
}

// BuildSinglePrompt asks for a compact enrichment of one ordinary newsletter.
func BuildSinglePrompt(title, content string, portuguese bool) string {
	var b strings.Builder

	b.WriteString("Summarize this financial newsletter as a short briefing card.\n\n")
	b.WriteString("Provide:\n")
	b.WriteString("1. A one-line takeaway\n")
	b.WriteString("2. 3-5 bullets with specific numbers, names and facts from the text\n\n")
	if portuguese {
		b.WriteString("CRÍTICO: Responda em português\n\n")
	}
	fmt.Fprintf(&b, "Subject: %s\n\nContent:\n%s", title, content)

	return b.String()
}
