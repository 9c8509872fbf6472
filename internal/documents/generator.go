package documents

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/case-workflow/internal/domain"
)

var titles = map[domain.DocumentKind]string{
	domain.DocumentKindDossier:    "Case dossier",
	domain.DocumentKindAnalysis:   "Technical analysis - coordinating authority",
	domain.DocumentKindResolution: "Administrative resolution on competence",
	domain.DocumentKindDenial:     "Closure denial",
	domain.DocumentKindReport:     "Supplementary report",
}

var accents = map[domain.DocumentKind]template.CSS{
	domain.DocumentKindResolution: "#111827",
	domain.DocumentKindDenial:     "#991b1b",
}

type view struct {
	Title     string
	Accent    template.CSS
	Case      domain.Case
	Extra     map[string]string
	Generated time.Time
	// Content is sanitized report markup.
	Content template.HTML
}

// Generator renders case documents to PDF and stores them.
type Generator struct {
	renderer  Renderer
	storage   Storage
	policy    *bluemonday.Policy
	templates map[string]*template.Template
	logger    *zap.Logger
	now       func() time.Time
}

func NewGenerator(renderer Renderer, storage Storage, logger *zap.Logger) *Generator {
	return &Generator{
		renderer:  renderer,
		storage:   storage,
		policy:    bluemonday.UGCPolicy(),
		templates: parseTemplates(),
		logger:    logger,
		now:       time.Now,
	}
}

// Generate produces the document of the given kind for snapshot and returns its reference.
func (g *Generator) Generate(ctx context.Context, kind domain.DocumentKind, snapshot domain.Case, extra map[string]string) (string, error) {
	html, err := g.RenderHTML(kind, snapshot, extra)
	if err != nil {
		return "", err
	}
	pdf, err := g.renderer.RenderPDF(ctx, html)
	if err != nil {
		return "", err
	}

	key := path.Join("cases", safeName(snapshot.ID), fmt.Sprintf("%s-%s.pdf", kind, shortID()))
	ref, err := g.storage.Put(ctx, key, "application/pdf", pdf)
	if err != nil {
		return "", err
	}
	g.logger.Debug("document generated",
		zap.String("case_id", snapshot.ID),
		zap.String("kind", string(kind)),
		zap.Int("bytes", len(pdf)))
	return ref, nil
}

// RenderHTML builds the HTML source of a document without printing it.
func (g *Generator) RenderHTML(kind domain.DocumentKind, snapshot domain.Case, extra map[string]string) (string, error) {
	tmpl, ok := g.templates[string(kind)]
	if !ok {
		return "", fmt.Errorf("unknown document kind %q", kind)
	}
	if extra == nil {
		extra = map[string]string{}
	}
	accent, ok := accents[kind]
	if !ok {
		accent = "#6d28d9"
	}
	data := view{
		Title:     titles[kind],
		Accent:    accent,
		Case:      snapshot,
		Extra:     extra,
		Generated: g.now(),
		Content:   template.HTML(g.policy.Sanitize(extra["content"])),
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s: %w", kind, err)
	}
	return buf.String(), nil
}

// StoreAttachment saves a caller-supplied file next to the case's documents.
func (g *Generator) StoreAttachment(ctx context.Context, caseID, fileName, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := path.Join("cases", safeName(caseID), "attachments", shortID()+"-"+safeName(fileName))
	return g.storage.Put(ctx, key, contentType, data)
}

// Discard deletes a document or attachment that will not be referenced by any case.
func (g *Generator) Discard(ctx context.Context, ref string) error {
	return g.storage.Delete(ctx, ref)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func safeName(s string) string {
	s = unsafeChars.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "._")
	if s == "" {
		return "file"
	}
	return s
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
