package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// SummarizeElements renders a text inventory of the interactive
// elements in the HTML: forms, inputs, buttons, and prominent links.
// The summary is what gets handed to the LLM when it is asked which
// element to drive.
func SummarizeElements(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	var b strings.Builder

	doc.Find("form").Each(func(i int, form *goquery.Selection) {
		act, _ := form.Attr("action")
		fmt.Fprintf(&b, "form[%d] action=%q\n", i, act)
		form.Find("input, select, textarea").Each(func(_ int, in *goquery.Selection) {
			name, _ := in.Attr("name")
			typ, _ := in.Attr("type")
			placeholder, _ := in.Attr("placeholder")
			fmt.Fprintf(&b, "  %s name=%q type=%q placeholder=%q\n", goquery.NodeName(in), name, typ, placeholder)
		})
	})

	doc.Find("button").Each(func(_ int, btn *goquery.Selection) {
		label := strings.TrimSpace(btn.Text())
		if label == "" {
			label, _ = btn.Attr("aria-label")
		}
		if label != "" {
			fmt.Fprintf(&b, "button %q\n", label)
		}
	})

	count := 0
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if count >= 20 {
			return
		}
		label := strings.TrimSpace(a.Text())
		if label == "" {
			return
		}
		href, _ := a.Attr("href")
		fmt.Fprintf(&b, "link %q -> %s\n", label, href)
		count++
	})

	if b.Len() == 0 {
		return "No interactive elements found.", nil
	}
	return b.String(), nil
}

// PageAnalysis summarizes the interactive elements of a live tab.
func (s *Session) PageAnalysis(ctx context.Context, tabID int) (string, error) {
	tctx, err := s.tabCtx(tabID)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(tctx, stepTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, outerHTML(&html)); err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return SummarizeElements(html)
}
