package codebase

import (
	"bytes"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/dhamidi/ziggurat/syntax/ast"
	"github.com/dhamidi/ziggurat/syntax/recovery"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

type LSPServer struct {
	name     string
	version  string
	options  []Option
	codebase *Codebase
	handler  protocol.Handler
	server   *server.Server

	// publishMu orders diagnostics notifications so a slow stale publish
	// never overwrites a newer one for the same document.
	publishMu sync.Mutex
	versions  map[string]protocol.Integer
}

// NewLSPServer returns a server announcing itself as name. opts are passed
// to the codebase created on initialize.
func NewLSPServer(name, version string, opts ...Option) *LSPServer {
	ls := &LSPServer{
		name:     name,
		version:  version,
		options:  opts,
		versions: make(map[string]protocol.Integer),
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, name, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

// Codebase returns the codebase created by initialize, or nil before it.
func (ls *LSPServer) Codebase() *Codebase {
	return ls.codebase
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	ls.codebase = New(rootDir, ls.options...)
	log.Infof("initialize: root %s", rootDir)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    ls.name,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.codebase.ScanAll(); err != nil {
		log.Warningf("initial scan: %v", err)
	}
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.codebase != nil {
		ls.codebase.Wait()
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.schedule(ctx, params.TextDocument.URI, params.TextDocument.Version, []byte(params.TextDocument.Text))
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	change := params.ContentChanges[len(params.ContentChanges)-1]
	if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
		ls.schedule(ctx, params.TextDocument.URI, params.TextDocument.Version, []byte(textChange.Text))
	}
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI
	path, err := uriToPath(uri)
	if err != nil {
		return nil
	}

	ls.publishMu.Lock()
	version := ls.versions[uri]
	ls.publishMu.Unlock()

	if params.Text != nil {
		ls.schedule(ctx, uri, version, []byte(*params.Text))
		return nil
	}
	if err := ls.codebase.ScanFile(path); err != nil {
		return nil
	}
	ls.publish(ctx, uri, version, ls.codebase.GetFile(path))
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI
	path, err := uriToPath(uri)
	if err != nil {
		return nil
	}
	ls.codebase.RemoveFile(path)

	ls.publishMu.Lock()
	delete(ls.versions, uri)
	ls.publishMu.Unlock()

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// schedule starts a background parse and publishes its diagnostics once it
// becomes the current version of the document.
func (ls *LSPServer) schedule(ctx *glsp.Context, uri protocol.DocumentUri, version protocol.Integer, content []byte) {
	path, err := uriToPath(uri)
	if err != nil {
		return
	}

	ls.publishMu.Lock()
	ls.versions[uri] = version
	ls.publishMu.Unlock()

	done := ls.codebase.Schedule(path, content)
	go func() {
		if info, ok := <-done; ok {
			ls.publish(ctx, uri, version, info)
		}
	}()
}

func (ls *LSPServer) publish(ctx *glsp.Context, uri protocol.DocumentUri, version protocol.Integer, info *FileInfo) {
	if info == nil {
		return
	}

	ls.publishMu.Lock()
	defer ls.publishMu.Unlock()
	if current, ok := ls.versions[uri]; ok && current != version {
		return
	}

	v := protocol.UInteger(version)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     &v,
		Diagnostics: ProtocolDiagnostics(info.Tree),
	})
}

// ProtocolDiagnostics converts the diagnostics of tree for publishing. The
// recovery context is appended to the message and carried in Data.
func ProtocolDiagnostics(tree *ast.Tree) []protocol.Diagnostic {
	result := make([]protocol.Diagnostic, 0, len(tree.Diagnostics))
	source := "ziggurat"
	for _, d := range tree.Diagnostics {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == recovery.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}

		pd := protocol.Diagnostic{
			Range:    tokenRange(tree, d.Token),
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(d.Code)},
			Source:   &source,
			Message:  d.Message,
		}
		if d.Context != nil {
			pd.Message = fmt.Sprintf("%s [%s depth %d]", d.Message, d.Context.Kind, d.Context.NestingLevel)
			pd.Data = map[string]any{
				"context":      d.Context.Kind.String(),
				"nestingLevel": d.Context.NestingLevel,
				"skip":         d.Skip,
			}
		}
		result = append(result, pd)
	}
	return result
}

// tokenRange covers the token at index i. Lines are zero based and
// characters count UTF-16 code units on the protocol side.
func tokenRange(tree *ast.Tree, i int) protocol.Range {
	if i < 0 || i >= len(tree.Tokens) {
		return protocol.Range{}
	}
	tok := tree.Tokens[i]
	lineStart := max(tok.Start-(tok.Column-1), 0)
	start := protocol.Position{
		Line:      protocol.UInteger(max(tok.Line-1, 0)),
		Character: utf16Len(tree.Source[lineStart:tok.Start]),
	}
	end := start
	if text := tree.Source[tok.Start:tok.End]; !bytes.ContainsRune(text, '\n') {
		end.Character += utf16Len(text)
	}
	return protocol.Range{Start: start, End: end}
}

func utf16Len(b []byte) protocol.UInteger {
	var n protocol.UInteger
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		n += protocol.UInteger(utf16.RuneLen(r))
		b = b[size:]
	}
	return n
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
