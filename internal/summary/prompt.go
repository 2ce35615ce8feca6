// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summary

import "strings"

type prompt struct {
	name string
	text string
}

// contentsPrompt asks for the table of contents with authors, a short summary
// per article, and a separate section for book reviews.
var contentsPrompt = prompt{
	name: "contents",
	text: dedent(`
		Giv mig indholdsfortegnelse og skribenter og kort resume af emnet for artiklerne i vedhæftede blad.

		Svar med Markdown i følgende format:

		* **Titel på artikel** - *forfatter*. Kort resume af emnet.


		Hvis der er boganmeldelser, så skriv en sektion

		### Boganmeldelser

		Skriv for hver anmeldelse bogens titel og bogens forfatter og emne for anmeldelsen.

		Svar med Markdown i følgende format:

		* **Bogtitel** - *bogens forfatter*. Bogens emne.
	`),
}

// citedPrompt asks for the authors and works cited in each article.
var citedPrompt = prompt{
	name: "cited-works",
	text: dedent(`
		Hvilke forfattere og værker er citeret eller omtalt i de forskellige artikler?

		Svar med Markdown i følgende format:
		### Titel på artikel
		* Navn - liste over værker
	`),
}

// dedent strips the common tab indentation of a raw string literal and
// trims surrounding blank lines.
func dedent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "\t\t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
