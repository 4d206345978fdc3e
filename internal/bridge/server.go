package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxLineBytes is the largest request line the server accepts
const MaxLineBytes = 16 * 1024 * 1024

// Server reads newline-delimited requests and writes one response line per
// request. Up to Workers calls run at once; responses are written in
// completion order and correlated by id.
type Server struct {
	dispatcher *Dispatcher
	workers    int
	logger     *zap.Logger
}

// NewServer creates a Server. workers below 1 is treated as 1.
func NewServer(d *Dispatcher, workers int, logger *zap.Logger) *Server {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{dispatcher: d, workers: workers, logger: logger}
}

// Serve processes requests from r until EOF or until ctx is cancelled, then
// waits for in-flight calls to finish. Cancellation is observed between lines.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)

	out := &responseWriter{enc: json.NewEncoder(w)}
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	s.logger.Info("bridge serving", zap.Int("workers", s.workers))

	var loopErr error
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			loopErr = err
			break
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			out.write(Response{ID: uuid.NewString(), Error: badRequest("malformed request")})
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			loopErr = ctx.Err()
		}
		if loopErr != nil {
			break
		}

		wg.Add(1)
		go func(req Request) {
			defer wg.Done()
			defer func() { <-sem }()
			out.write(s.dispatcher.Call(ctx, req))
		}(req)
	}

	wg.Wait()

	if loopErr != nil {
		return loopErr
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read requests: %w", err)
	}
	if err := out.err; err != nil {
		return fmt.Errorf("failed to write responses: %w", err)
	}
	s.logger.Info("bridge input closed")
	return nil
}

type responseWriter struct {
	mu  sync.Mutex
	enc *json.Encoder
	err error
}

func (rw *responseWriter) write(resp Response) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	if rw.err != nil {
		return
	}
	rw.err = rw.enc.Encode(resp)
}
