package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Renderer turns a complete HTML document into PDF bytes.
type Renderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

type paper struct {
	width, height float64
}

var paperSizes = map[string]paper{
	"LETTER": {8.5, 11.0},
	"LEGAL":  {8.5, 14.0},
	"A4":     {8.27, 11.69},
}

// ChromeRenderer prints HTML through headless Chrome.
type ChromeRenderer struct {
	execPath string
	paper    paper
	// margin in inches
	margin  float64
	timeout time.Duration
}

// NewChromeRenderer builds a renderer. A positive timeout bounds each render on top of the caller's context.
func NewChromeRenderer(execPath, pageSize string, timeout time.Duration) *ChromeRenderer {
	size, ok := paperSizes[strings.ToUpper(pageSize)]
	if !ok {
		size = paperSizes["LETTER"]
	}
	return &ChromeRenderer{execPath: execPath, paper: size, margin: 0.8, timeout: timeout}
}

func (r *ChromeRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
	)
	if r.execPath != "" {
		opts = append(opts, chromedp.ExecPath(r.execPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(r.paper.width).
				WithPaperHeight(r.paper.height).
				WithMarginTop(r.margin).
				WithMarginBottom(r.margin).
				WithMarginLeft(r.margin).
				WithMarginRight(r.margin).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return pdf, nil
}
