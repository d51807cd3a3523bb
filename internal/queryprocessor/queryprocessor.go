// Package queryprocessor implements the Query Processor worker: it accepts
// questions from two sources — an in-process channel for embedded callers,
// and a local Unix domain socket for external clients — retrieves candidate
// documents via the Retriever, and runs an extractive QA model over each
// one, exactly as the original's query_processor.rs does.
package queryprocessor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/sureshkumar/semdesk/internal/qamodel"
	"github.com/sureshkumar/semdesk/internal/retriever"
)

const (
	// topK is how many answers are extracted per candidate document.
	topK = 3
	// maxAnswerLen caps each answer to this many words.
	maxAnswerLen = 32
	// socketReadLimit matches the original's fixed-size read buffer.
	socketReadLimit = 1024
	// pollInterval is how long the scheduling loop sleeps between checks.
	pollInterval = 100 * time.Millisecond
)

// Retriever is the subset of *retriever.Retriever the Query Processor
// depends on.
type Retriever interface {
	RetrieveByQuery(ctx context.Context, query string) ([]retriever.Doc, error)
}

// DocResult is one extracted answer, tagged with where it came from.
type DocResult struct {
	ID    string
	Loc   string
	Text  string
	Score float32
}

// FileAnswers is the QA results for one candidate document.
type FileAnswers struct {
	Filename string
	Results  []DocResult
}

// QueryRequest is an in-process question. Reply receives one FileAnswers
// per candidate document (streamed, not batched) and is then closed.
type QueryRequest struct {
	Query string
	Reply chan<- FileAnswers
}

// QueryProcessor owns the QA model exclusively; nothing else in the
// process may call it.
type QueryProcessor struct {
	retriever  Retriever
	qa         qamodel.Model
	socketPath string
	inCh       chan QueryRequest
	logger     *slog.Logger
}

// New builds a QueryProcessor. inCh should be buffered by the caller to
// the size it wants in-process callers able to queue without blocking.
func New(r Retriever, qa qamodel.Model, socketPath string, inCh chan QueryRequest) *QueryProcessor {
	return &QueryProcessor{retriever: r, qa: qa, socketPath: socketPath, inCh: inCh, logger: slog.Default()}
}

// Query is a synchronous convenience wrapper for embedded callers.
func (qp *QueryProcessor) Query(ctx context.Context, query string) ([]FileAnswers, error) {
	reply := make(chan FileAnswers, 8)
	select {
	case qp.inCh <- QueryRequest{Query: query, Reply: reply}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var out []FileAnswers
	for fa := range reply {
		out = append(out, fa)
	}
	return out, nil
}

// Run drives the Query Processor's scheduling loop: one non-blocking
// receive on the in-process channel, one non-blocking accept on the
// socket, then sleep — mirroring the original's single-threaded poll loop
// even though Go's net.Listener.Accept is itself blocking (handled here by
// running Accept on its own goroutine and funneling connections through a
// channel the main loop polls non-blockingly).
func (qp *QueryProcessor) Run(ctx context.Context) error {
	if err := os.Remove(qp.socketPath); err != nil && !os.IsNotExist(err) {
		qp.logger.Warn("queryprocessor: could not remove stale socket", "path", qp.socketPath, "error", err)
	}

	listener, err := net.Listen("unix", qp.socketPath)
	if err != nil {
		return err
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	acceptCh := make(chan net.Conn)
	go func() {
		defer close(acceptCh)
		for {
			conn, err := listener.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				qp.logger.Warn("queryprocessor: accept failed", "error", err)
				continue
			}
			acceptCh <- conn
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}

		select {
		case req := <-qp.inCh:
			qp.handleInProcess(ctx, req)
		default:
		}

		select {
		case conn, ok := <-acceptCh:
			if ok {
				qp.handleConn(ctx, conn)
			}
		default:
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(pollInterval):
		}
	}
}

func (qp *QueryProcessor) handleInProcess(ctx context.Context, req QueryRequest) {
	defer close(req.Reply)

	docs, err := qp.retriever.RetrieveByQuery(ctx, req.Query)
	if err != nil {
		qp.logger.Warn("queryprocessor: retrieve failed", "error", err)
		return
	}

	for _, doc := range docs {
		req.Reply <- FileAnswers{Filename: doc.Filename, Results: qp.answer(ctx, req.Query, doc)}
	}
}

func (qp *QueryProcessor) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, socketReadLimit)
	n, err := conn.Read(buf)
	if err != nil {
		return
	}
	query := strings.TrimSpace(string(buf[:n]))
	if query == "" {
		return
	}

	docs, err := qp.retriever.RetrieveByQuery(ctx, query)
	if err != nil {
		qp.logger.Warn("queryprocessor: retrieve failed", "error", err)
		return
	}

	w := bufio.NewWriter(conn)
	for _, doc := range docs {
		for _, result := range qp.answer(ctx, query, doc) {
			line := fmt.Sprintf("%s|%s|%s|%g\n", sanitize(result.ID), sanitize(result.Loc), sanitize(result.Text), result.Score)
			_, _ = w.WriteString(line)
		}
	}
	_ = w.Flush()

	if uc, ok := conn.(*net.UnixConn); ok {
		_ = uc.CloseWrite()
	}
}

func (qp *QueryProcessor) answer(ctx context.Context, query string, doc retriever.Doc) []DocResult {
	answers, err := qp.qa.Predict(ctx, query, doc.Text, topK, maxAnswerLen)
	if err != nil {
		qp.logger.Warn("queryprocessor: qa predict failed", "file", doc.Filename, "error", err)
		return nil
	}

	results := make([]DocResult, 0, len(answers))
	for _, a := range answers {
		results = append(results, DocResult{ID: "id", Loc: doc.Filename, Text: a.Text, Score: a.Score})
	}
	return results
}

// sanitize replaces newlines, carriage returns, and the field separator in
// a value with spaces before it goes into the line protocol, matching the original's
// sanitization order exactly.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "|", " ")
	return s
}
