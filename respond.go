package medbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/medbotorg/medbot/llm"
	"github.com/medbotorg/medbot/nlp"
)

const systemPromptFR = `Tu es MedBot, un assistant médical intelligent et empathique basé sur une base de connaissances médicale.

Ton rôle:
- Analyser les symptômes du patient avec bienveillance
- Fournir des informations médicales préliminaires basées sur la base de connaissances
- Recommander la spécialité médicale appropriée
- Toujours encourager la consultation d'un professionnel de santé

IMPORTANT:
- Tu n'es PAS un médecin, tu es un assistant d'orientation
- Tes recommandations sont basées sur des données structurées, pas un diagnostic médical
- En cas d'urgence (douleur thoracique, difficulté respiratoire sévère), recommande une consultation immédiate

Structure ta réponse ainsi:
1. Reconnaissance empathique des symptômes
2. Analyse basée sur les données disponibles
3. Recommandation de spécialité et département
4. Niveau d'urgence
5. Précautions/conseils
6. Encouragement à consulter un professionnel`

const systemPromptEN = `You are MedBot, an intelligent and empathetic medical assistant based on a medical knowledge base.

Your role:
- Analyze patient symptoms with compassion
- Provide preliminary medical information based on the knowledge base
- Recommend the appropriate medical specialty
- Always encourage consultation with a healthcare professional

IMPORTANT:
- You are NOT a doctor, you are a guidance assistant
- Your recommendations are based on structured data, not a medical diagnosis
- In case of emergency (chest pain, severe breathing difficulty), recommend immediate consultation

Structure your response:
1. Empathetic acknowledgment of symptoms
2. Analysis based on available data
3. Specialty and department recommendation
4. Urgency level
5. Precautions/advice
6. Encouragement to consult a professional`

func systemPrompt(lang nlp.Language) string {
	if lang == nlp.LangFrench {
		return systemPromptFR
	}
	return systemPromptEN
}

// formatContext renders the ranked conditions as a context block for the
// generation prompt. Symptom lists are capped at 5 and precautions at 3 to
// keep the prompt compact.
func formatContext(analysis *Analysis) string {
	if len(analysis.Conditions) == 0 {
		if analysis.Language == nlp.LangFrench {
			return "Aucune maladie correspondante trouvée dans notre base de données."
		}
		return "No matching disease found in our database."
	}

	var b strings.Builder
	for i, c := range analysis.Conditions {
		symptoms := c.Symptoms
		if len(symptoms) > 5 {
			symptoms = symptoms[:5]
		}

		fmt.Fprintf(&b, "\nDisease #%d: %s\n", i+1, c.Name)
		fmt.Fprintf(&b, "- Match score: %.1f%%\n", c.MatchPercentage)
		fmt.Fprintf(&b, "- Associated symptoms: %s\n", strings.Join(symptoms, ", "))
		fmt.Fprintf(&b, "- Matching symptoms: %s\n", strings.Join(c.MatchedSymptoms, ", "))
		fmt.Fprintf(&b, "- Urgency level: %s\n", c.Urgency)

		if c.Referral != nil {
			fmt.Fprintf(&b, "- Recommended specialty: %s\n", c.Referral.Specialty)
			fmt.Fprintf(&b, "- Department: %s\n", c.Referral.Department)
			fmt.Fprintf(&b, "- Location: %s\n", c.Referral.Location)
		}

		if len(c.Precautions) > 0 {
			precautions := c.Precautions
			if len(precautions) > 3 {
				precautions = precautions[:3]
			}
			fmt.Fprintf(&b, "- Precautions: %s\n", strings.Join(precautions, ", "))
		}
	}
	return b.String()
}

// generate builds the prompt and calls the chat model. The conversation
// history is trimmed to the configured window before it enters the prompt.
func (e *engine) generate(ctx context.Context, req Request, analysis *Analysis) (string, string, error) {
	history := req.History
	if len(history) > e.cfg.HistoryWindow {
		history = history[len(history)-e.cfg.HistoryWindow:]
	}

	var b strings.Builder
	if analysis.Language == nlp.LangFrench {
		b.WriteString("Contexte de la Base de Connaissances:\n")
	} else {
		b.WriteString("Knowledge Base Context:\n")
	}
	b.WriteString(formatContext(analysis))
	b.WriteString("\n")

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt(analysis.Language)})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{
		Role:    "user",
		Content: b.String() + "\nPatient: " + req.Text,
	})

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Messages:    messages,
		Temperature: e.cfg.Chat.Temperature,
		MaxTokens:   e.cfg.Chat.MaxTokens,
	})
	if err != nil {
		return "", "", err
	}
	return resp.Content, resp.Model, nil
}

// fallbackResponse renders a deterministic reply from the analysis alone.
// Used when no chat provider is configured or generation fails. Same
// analysis, same text.
func fallbackResponse(analysis *Analysis) string {
	if len(analysis.Conditions) == 0 {
		if analysis.Language == nlp.LangFrench {
			return `Je n'ai pas trouvé de correspondance exacte pour vos symptômes dans ma base de données.

Je vous recommande de consulter un médecin généraliste qui pourra vous examiner et établir un diagnostic approprié.

Si vos symptômes sont sévères ou s'aggravent, n'hésitez pas à vous rendre aux urgences.`
		}
		return `I couldn't find an exact match for your symptoms in my database.

I recommend consulting a general practitioner who can examine you and make an appropriate diagnosis.

If your symptoms are severe or worsening, don't hesitate to go to the emergency room.`
	}

	top := analysis.Conditions[0]
	var b strings.Builder

	if analysis.Language == nlp.LangFrench {
		b.WriteString("Basé sur vos symptômes, voici mon analyse :\n\n")
		fmt.Fprintf(&b, "**Condition possible**: %s\n", top.Name)
		fmt.Fprintf(&b, "   - Correspondance: %.0f%%\n", top.MatchPercentage)
		fmt.Fprintf(&b, "   - Urgence: %s\n", strings.ToUpper(string(top.Urgency)))
		b.WriteString("\n**Recommandation**:\n")
		if top.Referral != nil {
			fmt.Fprintf(&b, "   - Spécialité: %s\n", top.Referral.Specialty)
			fmt.Fprintf(&b, "   - Département: %s\n", top.Referral.Department)
		}
		if len(top.Precautions) > 0 {
			b.WriteString("\n**Précautions**:\n")
			for _, p := range capList(top.Precautions, 3) {
				fmt.Fprintf(&b, "   - %s\n", p)
			}
		}
		b.WriteString("\n**Important**: Cette analyse est indicative. Consultez un professionnel de santé pour un diagnostic précis.")
		return b.String()
	}

	b.WriteString("Based on your symptoms, here's my analysis:\n\n")
	fmt.Fprintf(&b, "**Possible Condition**: %s\n", top.Name)
	fmt.Fprintf(&b, "   - Match: %.0f%%\n", top.MatchPercentage)
	fmt.Fprintf(&b, "   - Urgency: %s\n", strings.ToUpper(string(top.Urgency)))
	b.WriteString("\n**Recommendation**:\n")
	if top.Referral != nil {
		fmt.Fprintf(&b, "   - Specialty: %s\n", top.Referral.Specialty)
		fmt.Fprintf(&b, "   - Department: %s\n", top.Referral.Department)
	}
	if len(top.Precautions) > 0 {
		b.WriteString("\n**Precautions**:\n")
		for _, p := range capList(top.Precautions, 3) {
			fmt.Fprintf(&b, "   - %s\n", p)
		}
	}
	b.WriteString("\n**Important**: This analysis is indicative. Consult a healthcare professional for an accurate diagnosis.")
	return b.String()
}

func capList(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
