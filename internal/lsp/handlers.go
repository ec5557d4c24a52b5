package lsp

import (
	"context"
	"fmt"
	"strings"

	"stylesense/internal/analysis"
	"stylesense/internal/config"
	"stylesense/internal/lang"
	"stylesense/internal/logging"
	"stylesense/internal/rules"
	"stylesense/internal/text"
	"stylesense/internal/workspace"
)

// ============================================================================
// Lifecycle
// ============================================================================

func (s *Server) handleInitialize(raw []byte) (interface{}, *ResponseError) {
	var params InitializeParams
	if len(raw) > 0 {
		if rpcErr := decode(raw, &params); rpcErr != nil {
			return nil, rpcErr
		}
	}

	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return nil, &ResponseError{Code: CodeInvalidRequest, Message: "initialize sent twice"}
	}
	s.initialized = true
	if s.workspace == "" {
		switch {
		case params.RootURI != "":
			s.workspace = uriToPath(params.RootURI)
		case params.RootPath != "":
			s.workspace = params.RootPath
		}
	}
	root := s.workspace
	s.mu.Unlock()

	logging.LSP("initialize: workspace=%q", root)
	if s.opts.ConfigPath == "" && root != "" {
		s.reloadConfig()
	}

	version := s.opts.Version
	if version == "" {
		s.mu.RLock()
		version = s.cfg.Version
		s.mu.RUnlock()
	}
	return map[string]interface{}{
		"capabilities": map[string]interface{}{
			"textDocumentSync": map[string]interface{}{
				"openClose": true,
				"change":    1, // full
				"save":      map[string]bool{"includeText": false},
			},
			"hoverProvider": true,
			"codeActionProvider": map[string]interface{}{
				"codeActionKinds": []string{KindQuickFix, KindFixAll},
			},
			"documentFormattingProvider": true,
		},
		"serverInfo": map[string]string{
			"name":    ServerName,
			"version": version,
		},
	}, nil
}

// handleInitialized optionally checks the whole workspace in the background.
func (s *Server) handleInitialized(ctx context.Context) {
	s.mu.RLock()
	enabled := s.cfg.LSP.CheckWorkspaceOnStart
	root := s.workspace
	ws := s.cfg.Workspace
	s.mu.RUnlock()

	if !enabled || root == "" {
		return
	}

	a := s.analyzerSnapshot()
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		files, err := workspace.Collect(ctx, []string{root}, ws.IgnorePatterns)
		if err != nil {
			logging.LSPWarn("workspace check: %v", err)
			return
		}
		results, err := workspace.CheckFiles(ctx, a, files, workspace.Options{Workers: ws.EffectiveWorkers()})
		if err != nil {
			logging.LSPWarn("workspace check: %v", err)
			return
		}
		for _, r := range results {
			if r.Err != nil || r.Result == nil {
				continue
			}
			uri := pathToURI(r.Path)
			if s.isOpen(uri) {
				continue
			}
			s.publish(uri, nil, r.Result)
		}
		logging.LSP("workspace check published %d files", len(results))
	}()
}

func (s *Server) isOpen(uri string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.documents[uri]
	return ok
}

// reloadConfig re-reads the config file and rebuilds the analyzer. The old
// analyzer stays in place when the new config is unusable.
func (s *Server) reloadConfig() bool {
	path := s.configFile()
	if path == "" {
		return false
	}
	cfg, err := config.Load(path)
	if err == nil {
		err = cfg.Validate()
	}
	var a *analysis.Analyzer
	if err == nil {
		a, err = analysis.New(cfg, s.registry)
	}
	if err != nil {
		logging.LSPWarn("config %s not applied: %v", path, err)
		s.notify("window/showMessage", map[string]interface{}{
			"type":    1,
			"message": fmt.Sprintf("StyleSense: %v", err),
		})
		return false
	}

	s.mu.Lock()
	s.cfg = cfg
	s.analyzer = a
	s.mu.Unlock()
	logging.LSP("config loaded from %s (%d rules active)", path, len(a.Rules()))
	return true
}

func (s *Server) handleDidChangeConfiguration(ctx context.Context) {
	if !s.reloadConfig() {
		return
	}
	s.mu.RLock()
	uris := make([]string, 0, len(s.documents))
	for uri := range s.documents {
		uris = append(uris, uri)
	}
	s.mu.RUnlock()

	for _, uri := range uris {
		s.analyzeAndPublish(ctx, uri)
	}
}

// ============================================================================
// Document sync
// ============================================================================

func (s *Server) handleDidOpen(ctx context.Context, raw []byte) *ResponseError {
	var params DidOpenTextDocumentParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return rpcErr
	}
	item := params.TextDocument

	language, err := lang.FromLanguageID(item.LanguageID)
	if err != nil {
		language, err = lang.Detect(uriToPath(item.URI))
	}
	if err != nil {
		logging.LSPDebug("ignoring %s: %v", item.URI, err)
		return nil
	}

	s.mu.Lock()
	s.documents[item.URI] = &document{
		uri:      item.URI,
		version:  item.Version,
		language: language,
		content:  []byte(item.Text),
	}
	s.mu.Unlock()

	s.analyzeAndPublish(ctx, item.URI)
	return nil
}

func (s *Server) handleDidChange(ctx context.Context, raw []byte) *ResponseError {
	var params DidChangeTextDocumentParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return rpcErr
	}

	s.mu.Lock()
	doc, ok := s.documents[params.TextDocument.URI]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	for _, change := range params.ContentChanges {
		doc.content = applyChange(doc.content, change)
	}
	doc.version = params.TextDocument.Version
	s.mu.Unlock()

	s.analyzeAndPublish(ctx, params.TextDocument.URI)
	return nil
}

// applyChange applies a full or ranged content change.
func applyChange(content []byte, change TextDocumentContentChangeEvent) []byte {
	if change.Range == nil {
		return []byte(change.Text)
	}
	li := text.NewLineIndex(content)
	start, end := li.Offset(change.Range.Start), li.Offset(change.Range.End)
	if end < start {
		start, end = end, start
	}
	out, _ := text.ApplyEdits(content, []text.Edit{text.Replace(start, end, change.Text)})
	return out
}

func (s *Server) handleDidSave(ctx context.Context, raw []byte) *ResponseError {
	var params DidSaveTextDocumentParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return rpcErr
	}
	if params.Text != nil {
		s.mu.Lock()
		if doc, ok := s.documents[params.TextDocument.URI]; ok {
			doc.content = []byte(*params.Text)
		}
		s.mu.Unlock()
	}
	s.analyzeAndPublish(ctx, params.TextDocument.URI)
	return nil
}

func (s *Server) handleDidClose(raw []byte) *ResponseError {
	var params DidCloseTextDocumentParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return rpcErr
	}
	s.mu.Lock()
	_, ok := s.documents[params.TextDocument.URI]
	delete(s.documents, params.TextDocument.URI)
	s.mu.Unlock()

	if ok {
		s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
			URI:         params.TextDocument.URI,
			Diagnostics: []Diagnostic{},
		})
	}
	return nil
}

// analyzeAndPublish re-analyzes an open document and publishes the result.
func (s *Server) analyzeAndPublish(ctx context.Context, uri string) {
	s.mu.RLock()
	doc, ok := s.documents[uri]
	if !ok {
		s.mu.RUnlock()
		return
	}
	input := analysis.Document{URI: uri, Language: doc.language, Content: doc.content}
	version := doc.version
	a := s.analyzer
	s.mu.RUnlock()

	res, err := a.Analyze(ctx, input)
	if err != nil {
		logging.LSPError("analyze %s: %v", uri, err)
		return
	}

	s.mu.Lock()
	if cur, ok := s.documents[uri]; ok && cur.version == version {
		cur.result = res
	}
	s.mu.Unlock()

	s.publish(uri, &version, res)
}

func (s *Server) publish(uri string, version *int, res *analysis.Result) {
	s.notify("textDocument/publishDiagnostics", PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: toLSPDiagnostics(res),
	})
}

func toLSPDiagnostic(res *analysis.Result, d rules.Diagnostic) Diagnostic {
	return Diagnostic{
		Range:    res.Lines.Range(d.Start, d.End),
		Severity: int(d.Severity),
		Code:     d.Rule,
		Source:   ServerName,
		Message:  d.Message,
	}
}

func toLSPDiagnostics(res *analysis.Result) []Diagnostic {
	out := make([]Diagnostic, 0, len(res.Diagnostics))
	for _, d := range res.Diagnostics {
		out = append(out, toLSPDiagnostic(res, d))
	}
	return out
}

func toTextEdits(res *analysis.Result, edits []text.Edit) []TextEdit {
	out := make([]TextEdit, 0, len(edits))
	for _, e := range edits {
		out = append(out, TextEdit{Range: res.Lines.Range(e.Start, e.End), NewText: e.NewText})
	}
	return out
}

// currentResult returns the latest analysis of an open document.
func (s *Server) currentResult(uri string) (*analysis.Result, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[uri]
	if !ok || doc.result == nil {
		return nil, 0, false
	}
	return doc.result, len(doc.content), true
}

// ============================================================================
// Code actions, formatting and hover
// ============================================================================

func (s *Server) handleCodeAction(raw []byte) (interface{}, *ResponseError) {
	var params CodeActionParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	uri := params.TextDocument.URI
	res, size, ok := s.currentResult(uri)
	actions := []CodeAction{}
	if !ok {
		return actions, nil
	}

	start, end := res.Lines.Offset(params.Range.Start), res.Lines.Offset(params.Range.End)
	wantQuickFix := kindRequested(params.Context.Only, KindQuickFix)
	wantFixAll := kindRequested(params.Context.Only, KindFixAll)

	var all []text.Edit
	for _, d := range res.Diagnostics {
		if !d.Fixable() {
			continue
		}
		all = append(all, d.Fix...)
		if !wantQuickFix || d.End < start || d.Start > end {
			continue
		}
		lspDiag := toLSPDiagnostic(res, d)
		actions = append(actions, CodeAction{
			Title:       fmt.Sprintf("Fix: %s", d.Message),
			Kind:        KindQuickFix,
			Diagnostics: []Diagnostic{lspDiag},
			IsPreferred: true,
			Edit: &WorkspaceEdit{Changes: map[string][]TextEdit{
				uri: toTextEdits(res, d.Fix),
			}},
		})
	}

	if wantFixAll && len(all) > 0 {
		actions = append(actions, CodeAction{
			Title: "Fix all StyleSense issues",
			Kind:  KindFixAll,
			Edit: &WorkspaceEdit{Changes: map[string][]TextEdit{
				uri: toTextEdits(res, text.Normalize(size, all)),
			}},
		})
	}
	return actions, nil
}

// kindRequested reports whether kind passes the client's "only" filter.
func kindRequested(only []string, kind string) bool {
	if len(only) == 0 {
		return true
	}
	for _, o := range only {
		if kind == o || strings.HasPrefix(kind, o+".") {
			return true
		}
	}
	return false
}

func (s *Server) handleFormatting(raw []byte) (interface{}, *ResponseError) {
	var params DocumentFormattingParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	res, size, ok := s.currentResult(params.TextDocument.URI)
	if !ok {
		return []TextEdit{}, nil
	}
	return toTextEdits(res, text.Normalize(size, res.Fixes())), nil
}

func (s *Server) handleHover(raw []byte) (interface{}, *ResponseError) {
	var params TextDocumentPositionParams
	if rpcErr := decode(raw, &params); rpcErr != nil {
		return nil, rpcErr
	}
	res, _, ok := s.currentResult(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	offset := res.Lines.Offset(params.Position)

	var sb strings.Builder
	var hit *rules.Diagnostic
	seen := make(map[string]bool)
	for i := range res.Diagnostics {
		d := &res.Diagnostics[i]
		if offset < d.Start || offset > d.End || seen[d.Rule] {
			continue
		}
		seen[d.Rule] = true
		if hit == nil {
			hit = d
		} else {
			sb.WriteString("\n---\n\n")
		}
		sb.WriteString(fmt.Sprintf("**%s** (%s)\n\n%s\n", d.Rule, d.Severity, d.Message))
		if rule, err := s.registry.Lookup(d.Rule); err == nil {
			sb.WriteString(fmt.Sprintf("\n_%s_\n\n%s", rule.Description(), rule.Documentation()))
		}
	}
	if hit == nil {
		return nil, nil
	}
	r := res.Lines.Range(hit.Start, hit.End)
	return &Hover{
		Contents: MarkupContent{Kind: "markdown", Value: sb.String()},
		Range:    &r,
	}, nil
}
