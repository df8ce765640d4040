package llm

import (
	"fmt"
	"strings"

	"smartfeeds/internal/domain"
)

func curatorSystemPrompt(interests, sourceNotes, language string) string {
	var b strings.Builder
	b.WriteString(`You are a content curator. You receive a batch of raw feed items rendered as markdown and decide, for each item, whether it matches the user's interests.

User interests:
`)
	b.WriteString(interests)
	if sourceNotes != "" {
		b.WriteString("\n\nSource-specific notes:\n")
		b.WriteString(sourceNotes)
	}
	fmt.Fprintf(&b, `

For every item in the batch:
- If it matches the interests, put it in "selected" with a "relevance" explanation and a clean "summary" in %s.
- If it conflicts with the dislikes or is irrelevant, put it in "filtered" with a "reason".

Respond with a single JSON object: {"selected": [...], "filtered": [...]}.
Each item object must keep the original "title", "url", "source", and "published" values. Never invent or alter a URL.`, language)
	return b.String()
}

func curatorUserPrompt(batch string) string {
	return "Raw items batch:\n\n" + batch
}

func summarizerSystemPrompt(language string) string {
	return fmt.Sprintf(`You are a digest editor. You receive the day's curated items (already filtered for relevance) and compile a clean, organized daily digest in markdown.

- Group items by topic or theme and synthesize a short narrative per group.
- Every story must display its original link, like: [https://link](https://link). For podcast items, link the audio file.
- Do not re-judge relevance; focus on flow, readability, and grouping.

The digest must be written in %s.`, language)
}

func summarizerUserPrompt(curated string) string {
	return "Curated items for today:\n\n" + curated
}

func deepDiveSystemPrompt(language string) string {
	return fmt.Sprintf(`You are an analyst. You receive the daily digest plus the full text of its source pages, and write a deep-dive report in markdown.

For each story with an available page, produce a section with:
- Facts: what actually happened, key data points.
- Opinions: the main arguments or reactions.
- Analysis: implications, outlook, or missing context, in a fair professional tone.

Skip stories whose pages were inaccessible. The report must be written in %s.`, language)
}

func deepDiveUserPrompt(digest string, pages []domain.Page) string {
	var b strings.Builder
	b.WriteString("Daily digest:\n\n")
	b.WriteString(digest)
	for _, p := range pages {
		fmt.Fprintf(&b, "\n\n---\nPage: %s\n\n%s", p.URL, p.Content)
	}
	return b.String()
}

// SourceNotes renders per-source instructions for the curator prompt.
func SourceNotes(sources []domain.Source) string {
	var notes []string
	for _, src := range sources {
		if strings.TrimSpace(src.Instruction) == "" {
			continue
		}
		notes = append(notes, fmt.Sprintf("- %s: %s", src.Name, strings.TrimSpace(src.Instruction)))
	}
	return strings.Join(notes, "\n")
}
