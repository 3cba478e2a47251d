package classifier

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/quaestor/internal/models"
)

// buildPrompt assembles the single batched classification prompt for a
// page's links: the input and output shapes, the scoring guidance, the
// closed vocabulary, and the links themselves as JSON.
func buildPrompt(vocab models.Vocabulary, links []models.ExtractedLink) (string, error) {
	payload, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("failed to serialize links: %w", err)
	}

	var b strings.Builder
	b.WriteString(`At the end of this prompt is a JSON list of web links scraped from a single
public sector web page. Each link in the list looks like this:
{"url": "https://finance.com", "text": "Budget Link"}

Classify each link according to keywords that might be present in the text of
the link or in the URL itself. A link might have zero or more keywords.
Return a JSON list of objects, one for each link that has at least one
keyword associated with it. Each object has three keys:
- "url": the URL of the link
- "text": the text of the link
- "keywords": an object mapping each keyword to its score

Example output:
[{"url": "https://finance.com", "text": "Budget Link", "keywords": {"finance": 1.0, "budget": 1.0}}]

The keywords to look for are:
`)
	b.WriteString(keywordList(vocab))
	b.WriteString(`

Scores are in [0, 1]. An exact keyword match (ignoring casing and plurality)
scores 1.0. The adjective form of a noun keyword scores about 0.9. A close
synonym scores about 0.8. Verb forms are worth less, about 0.4. A word that
is unrelated to a keyword must not associate that keyword with the link.

Output only the JSON, no code fences or commentary. If a link has no
keywords, omit it. Do not use any keyword other than those listed above: if
you would output a different word, either map it to the closest listed
keyword with its score adjusted downward, or omit it. Ignore anything to do
with taxes.

`)
	b.Write(payload)
	return b.String(), nil
}

// invalidFormatPrompt is the round-1 remediation message sent when the
// model's reply could not be parsed or validated.
const invalidFormatPrompt = `Your previous reply was not valid. Emit the same answer again in the required
format: a JSON list of objects, each with a "url" string, a "text" string,
and a "keywords" object mapping keyword names to numeric scores. Output only
the JSON.`

// outOfVocabularyPrompt builds the round-2 remediation message listing the
// allowed keywords and the offending ones.
func outOfVocabularyPrompt(vocab models.Vocabulary, invalid []string) string {
	sort.Strings(invalid)
	var b strings.Builder
	b.WriteString(`Your previous reply used keywords that are not in the allowed list. The
allowed keywords are:
`)
	b.WriteString(keywordList(vocab))
	b.WriteString("\nThe keywords to fix are:\n")
	for _, kw := range invalid {
		b.WriteString("- " + kw + "\n")
	}
	b.WriteString(`
Emit the same answer again. Where an offending keyword is similar in meaning
to an allowed one, replace it with the allowed keyword and adjust its score
downward to reflect the similarity; if the allowed keyword is already present
for that link, keep the higher score. Where it is not similar to any allowed
keyword, drop it. Output only the JSON.`)
	return b.String()
}

func keywordList(vocab models.Vocabulary) string {
	var b strings.Builder
	for _, kw := range vocab.Keywords() {
		b.WriteString("- " + kw + "\n")
	}
	return b.String()
}
