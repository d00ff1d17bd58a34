package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/pfcatalog/internal/core"
	"github.com/JonMunkholm/pfcatalog/internal/diff"
)

// handleDiffPage renders a read-only view of a session. Differing rows are
// highlighted and the chosen value is shown in bold.
func (s *Server) handleDiffPage(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.DiffSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	templ.Handler(diffPage(info)).ServeHTTP(w, r)
}

func diffPage(info *core.DiffSessionInfo) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "Diff " + info.ID
		if info.ItemID != "" {
			title = "Diff " + info.ItemID
		}

		p := &pageWriter{w: w}
		p.printf(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title>`, templ.EscapeString(title))
		p.printf(`<style>body{font-family:sans-serif;margin:2rem}table{border-collapse:collapse}`)
		p.printf(`td,th{border:1px solid #ccc;padding:4px 8px;text-align:left;vertical-align:top}`)
		p.printf(`tr.diff{background:#fff4e0}.chosen{font-weight:bold}</style></head><body>`)
		p.printf(`<h1>%s</h1>`, templ.EscapeString(title))
		p.printf(`<p>%d of %d fields differ. Session expires %s.</p>`,
			info.Differing, len(info.Rows), templ.EscapeString(info.ExpiresAt.UTC().Format("2006-01-02 15:04:05 MST")))
		p.printf(`<table><thead><tr><th>Field</th><th>Left</th><th>Right</th><th>Choice</th></tr></thead><tbody>`)
		for _, row := range info.Rows {
			if err := diffRow(row).Render(ctx, w); err != nil {
				return err
			}
		}
		p.printf(`</tbody></table></body></html>`)
		return p.err
	})
}

func diffRow(row diff.Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &pageWriter{w: w}
		class := ""
		if row.IsDifferent {
			class = ` class="diff"`
		}
		leftClass, rightClass := "", ` class="chosen"`
		if row.Choice == diff.Left {
			leftClass, rightClass = ` class="chosen"`, ""
		}
		p.printf(`<tr%s><td>%s</td><td%s>%s</td><td%s>%s</td><td>%s</td></tr>`,
			class,
			templ.EscapeString(row.Field),
			leftClass, templ.EscapeString(row.Left),
			rightClass, templ.EscapeString(row.Right),
			templ.EscapeString(string(row.Choice)),
		)
		return p.err
	})
}

// pageWriter keeps the first write error so markup can be written without
// checking every call.
type pageWriter struct {
	w   io.Writer
	err error
}

func (p *pageWriter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
