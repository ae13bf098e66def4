package render

import (
	"bytes"
	"fmt"
	"strings"
)

const itemsPerPage = 10

func pageCountFor(items int) int {
	if items <= 0 {
		return 1
	}
	return (items + itemsPerPage - 1) / itemsPerPage
}

// buildCatalogPDF renders the request into a minimal single-font PDF. The
// output depends only on the request contents, so identical requests produce
// identical bytes.
func buildCatalogPDF(req RenderRequest) ([]byte, int) {
	pages := pageCountFor(len(req.Items))

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Catalog"
	}

	contents := make([]string, pages)
	for p := 0; p < pages; p++ {
		start := p * itemsPerPage
		end := start + itemsPerPage
		if end > len(req.Items) {
			end = len(req.Items)
		}
		contents[p] = pageContent(title, p+1, pages, req.Items[start:end], req.HidePrices, req.Currency)
	}

	// Object layout: 1 catalog, 2 pages, then a page/content pair per page,
	// then the shared font object.
	fontObj := 3 + 2*pages
	totalObjs := fontObj

	var buf bytes.Buffer
	offsets := make([]int, totalObjs+1)

	buf.WriteString("%PDF-1.4\n")

	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, pages)
	for p := 0; p < pages; p++ {
		kids[p] = fmt.Sprintf("%d 0 R", 3+2*p)
	}
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))

	for p := 0; p < pages; p++ {
		pageNum := 3 + 2*p
		contentNum := pageNum + 1
		writeObj(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			fontObj, contentNum))

		content := contents[p]
		offsets[contentNum] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n",
			contentNum, len(content), content)
	}

	writeObj(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", totalObjs+1)
	buf.WriteString("0000000000 65535 f \n")
	for num := 1; num <= totalObjs; num++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", totalObjs+1, xrefPos)

	return buf.Bytes(), pages
}

func pageContent(title string, page, pages int, items []RenderItem, hidePrices bool, currency string) string {
	var b strings.Builder
	b.WriteString("BT\n/F1 16 Tf\n72 720 Td\n")
	fmt.Fprintf(&b, "(%s) Tj\n", escapePDFText(title))
	b.WriteString("/F1 9 Tf\n0 -14 Td\n")
	fmt.Fprintf(&b, "(%s) Tj\n", escapePDFText(fmt.Sprintf("page %d of %d", page, pages)))
	b.WriteString("/F1 11 Tf\n")
	for _, it := range items {
		b.WriteString("0 -22 Td\n")
		fmt.Fprintf(&b, "(%s) Tj\n", escapePDFText(itemLine(it, hidePrices, currency)))
	}
	b.WriteString("ET")
	return b.String()
}

func itemLine(it RenderItem, hidePrices bool, fallbackCurrency string) string {
	parts := []string{strings.TrimSpace(it.Name)}
	if category := strings.TrimSpace(it.Category); category != "" {
		parts = append(parts, category)
	}
	if !hidePrices {
		currency := strings.TrimSpace(it.Currency)
		if currency == "" {
			currency = strings.TrimSpace(fallbackCurrency)
		}
		parts = append(parts, fmt.Sprintf("%s %d.%02d", currency, it.PriceCents/100, it.PriceCents%100))
	}
	parts = append(parts, fmt.Sprintf("stock %d", it.Stock))
	return strings.Join(parts, " | ")
}

func escapePDFText(s string) string {
	replacer := strings.NewReplacer("\\", "\\\\", "(", "\\(", ")", "\\)", "\n", " ", "\r", " ")
	return replacer.Replace(s)
}
