package generation

import (
	"fmt"
	"strings"

	"sparkAPI/internal/couple"
)

var categoryGuidance = map[string]string{
	"Communication Boosters":     "Focus on exercises that improve verbal and non-verbal communication skills.",
	"Physical Touch & Affection": "Focus on non-sexual physical connection, affection, and touch exercises.",
	"Creative Date Night Ideas":  "Focus on unique, creative activities the couple can do together.",
	"Sexual Exploration":         "Focus on intimate activities that enhance sexual connection, while being respectful and consensual.",
	"Emotional Connection":       "Focus on activities that deepen emotional intimacy and understanding.",
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// writeContext describes the couple without their names. Generated challenges
// are cached per fingerprint and shared between couples, so the model only
// ever sees the {partner1}/{partner2} placeholders.
func writeContext(b *strings.Builder, c couple.Context) {
	fmt.Fprintf(b, "Relationship Context:\n")
	fmt.Fprintf(b, "- Partners: {partner1} and {partner2} (write these placeholders literally, never invent names)\n")
	fmt.Fprintf(b, "- Relationship status: %s\n", orDefault(c.RelationshipStatus, "dating"))
	fmt.Fprintf(b, "- Relationship duration: %s\n", c.RelationshipDuration)
}

func challengePrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Generate a unique relationship challenge for a couple.\n\n")
	writeContext(&b, req.Couple)

	if req.Category != "" {
		fmt.Fprintf(&b, "- Challenge category: %s\n", req.Category)
		if g, ok := categoryGuidance[req.Category]; ok {
			b.WriteString(g + "\n")
		}
	}

	b.WriteString(`
Respond with a single JSON object:
{
  "id": "ai_categoryname_001",
  "title": "Challenge Title",
  "description": "Detailed challenge description with specific steps",
  "category": "Category Name",
  "difficulty": "easy|medium|hard"
}

Keep in mind:
1. Challenge should be actionable and specific
2. Use {partner1} and {partner2} as placeholders in description
3. Make it appropriate for their relationship status and duration
4. Ensure the challenge is respectful and consensual
5. Provide a unique ID in the format "ai_categoryname_001"
`)
	return b.String()
}

func batchPrompt(req BatchRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d unique relationship challenges for a couple.\n\n", req.Count)
	writeContext(&b, req.Couple)
	fmt.Fprintf(&b, "\nPlease provide challenges across these categories: %s\n", strings.Join(req.Categories, ", "))
	b.WriteString(`
Respond with a JSON array where every element has this structure:
{
  "id": "ai_categoryname_001",
  "title": "Challenge Title",
  "description": "Detailed challenge description",
  "category": "One of the categories listed above",
  "difficulty": "easy|medium|hard"
}

Use {partner1} and {partner2} as placeholders in descriptions. Ensure each
challenge is unique, actionable, appropriate for their relationship, and respectful.
`)
	return b.String()
}
