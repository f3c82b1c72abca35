// Package render turns an ordered list of links into a link-page SVG.
//
// Rendering is pure: the same input always yields byte-identical output,
// and nothing time- or randomness-dependent is embedded in the document.
package render

import (
	"fmt"
	"strings"

	"github.com/planet-nine-app/linkitylink/internal/domain"
)

const defaultHeading = "My Links"

// SVG renders links into a complete SVG document. Callers truncate input
// to domain.MaxLinks; the layout math assumes at most that many cards.
func SVG(heading string, links []domain.LinkRecord) string {
	regular, social := domain.SplitLinks(links)
	layout := ChooseLayout(len(regular))
	spec := layoutSpecs[layout]
	height := PageHeight(layout, len(regular), len(social))

	if strings.TrimSpace(heading) == "" {
		heading = defaultHeading
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" data-layout="%s">`,
		canvasWidth, height, canvasWidth, height, layout)
	b.WriteString("\n")
	writeDefs(&b)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="url(#bg)"/>`+"\n", canvasWidth, height)
	fmt.Fprintf(&b, `<text x="%d" y="70" text-anchor="middle" fill="#ffffff" font-family="sans-serif" font-size="28" font-weight="bold">%s</text>`+"\n",
		canvasWidth/2, Escape(Truncate(heading, 40)))

	for i, link := range regular {
		writeCard(&b, layout, spec, i, link)
	}

	if len(social) > 0 {
		writeSocialBand(&b, height, social)
	}

	b.WriteString("</svg>\n")
	return b.String()
}

func writeDefs(b *strings.Builder) {
	b.WriteString("<defs>\n")
	b.WriteString(`<linearGradient id="bg" x1="0%" y1="0%" x2="0%" y2="100%"><stop offset="0%" stop-color="#1e1b4b"/><stop offset="100%" stop-color="#0f172a"/></linearGradient>`)
	b.WriteString("\n")
	for i, c := range palette {
		fmt.Fprintf(b, `<linearGradient id="card%d" x1="0%%" y1="0%%" x2="100%%" y2="100%%"><stop offset="0%%" stop-color="%s"/><stop offset="100%%" stop-color="%s"/></linearGradient>`+"\n",
			i, c.start, c.end)
	}
	b.WriteString("</defs>\n")
}

func writeCard(b *strings.Builder, layout Layout, spec layoutSpec, i int, link domain.LinkRecord) {
	x, y := cardOrigin(spec, i)
	title := Escape(Truncate(titleOrDefault(link.Title), spec.titleBudget))
	href := urlOrDefault(link.URL)

	fmt.Fprintf(b, `<a href="%s" target="_blank">`, Escape(href))
	fmt.Fprintf(b, `<rect x="%d" y="%d" width="%d" height="%d" rx="12" fill="url(#card%d)"/>`,
		x, y, spec.cardWidth, spec.cardHeight, paletteIndex(i))

	cx := x + spec.cardWidth/2
	if layout == LayoutStacked {
		fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" fill="#ffffff" font-family="sans-serif" font-size="18" font-weight="bold">%s</text>`,
			cx, y+30, title)
		fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" fill="#e5e7eb" font-family="sans-serif" font-size="12">%s</text>`,
			cx, y+52, Escape(Truncate(displayURL(href), urlBudget)))
	} else {
		fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" fill="#ffffff" font-family="sans-serif" font-size="15" font-weight="bold">%s</text>`,
			cx, y+spec.cardHeight/2+5, title)
	}
	b.WriteString("</a>\n")
}

func writeSocialBand(b *strings.Builder, height int, social []domain.LinkRecord) {
	top := height - socialBandHeight(len(social))
	fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" fill="#cbd5e1" font-family="sans-serif" font-size="14">Connect</text>`+"\n",
		canvasWidth/2, top+30)

	for i, link := range social {
		cx, cy := badgeCenter(i, len(social), top)
		fmt.Fprintf(b, `<a href="%s" target="_blank">`, Escape(urlOrDefault(link.URL)))
		fmt.Fprintf(b, `<circle cx="%d" cy="%d" r="%d" fill="#334155" stroke="#94a3b8" stroke-width="2"/>`, cx, cy, badgeRadius)
		fmt.Fprintf(b, `<text x="%d" y="%d" text-anchor="middle" font-size="20">%s</text>`, cx, cy+7, Escape(PlatformIcon(link.Title)))
		fmt.Fprintf(b, `<title>%s</title>`, Escape(titleOrDefault(link.Title)))
		b.WriteString("</a>\n")
	}
}

// badgeCenter places badge i of n. Badges wrap into rows of badgesPerRow
// and every row, the last one included, is centered on the canvas.
func badgeCenter(i, n, top int) (cx, cy int) {
	row, col := i/badgesPerRow, i%badgesPerRow
	inRow := min(n-row*badgesPerRow, badgesPerRow)
	first := canvasWidth/2 - (inRow-1)*badgePitch/2
	return first + col*badgePitch, top + 75 + row*badgePitch
}

// Document renders links and wraps the result in a storable link-page
// document. CreatedAt is left for the caller to stamp; it never enters the SVG.
func Document(title string, links []domain.LinkRecord) domain.Document {
	links = domain.TruncateLinks(links)
	return domain.Document{
		Title:      title,
		Type:       domain.DocumentType,
		SVGContent: SVG(title, links),
		Links:      append([]domain.LinkRecord(nil), links...),
	}
}
