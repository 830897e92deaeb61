package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/delivery"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/flow"
	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Flow message types sent by the server
const (
	FlowMessageState     = "state"
	FlowMessageReveal    = "reveal"
	FlowMessageRevealed  = "revealed"
	FlowMessageSubmitted = "submitted"
	FlowMessageError     = "error"
)

// flowSubmit is the client event that hands a finished assessment to delivery
const flowSubmit flow.EventType = "submit"

// FlowMessage is one server-to-client message on the flow socket
type FlowMessage struct {
	Type     string                 `json:"type"`
	State    *flow.State            `json:"state,omitempty"`
	Question *models.Question       `json:"question,omitempty"`
	Value    int                    `json:"value,omitempty"`
	Result   *delivery.SubmitResult `json:"result,omitempty"`
	Error    *apiError              `json:"error,omitempty"`
}

// flowSession is one respondent walking through the assessment over a websocket
type flowSession struct {
	server *Server
	conn   *websocket.Conn

	writeMu sync.Mutex
	state   flow.State

	revealWG     sync.WaitGroup
	cancelReveal context.CancelFunc
}

func (s *Server) handleFlowWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	reqID := requestID(r)
	slog.Info("flow websocket connected", "request_id", reqID)

	sess := &flowSession{server: s, conn: conn, cancelReveal: func() {}}
	defer sess.stopReveal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			break
		}

		var event flow.Event
		if err := json.Unmarshal(message, &event); err != nil {
			slog.Debug("invalid message format", "error", err)
			sess.sendError(&apiError{Code: "invalid_request", Message: "invalid JSON message"})
			continue
		}
		if event.Type == flow.EventStart && event.Language == "" {
			event.Language = string(LanguageFromContext(r.Context()))
		}

		if err := sess.handle(ctx, event); err != nil {
			slog.Debug("failed to send flow message", "error", err)
			break
		}
	}

	slog.Info("flow websocket disconnected", "request_id", reqID)
}

// handle applies one client event and answers it. Only write errors are returned.
func (f *flowSession) handle(ctx context.Context, event flow.Event) error {
	// Any event interrupts a running reveal; the score itself is unaffected.
	f.stopReveal()

	if event.Type == flowSubmit {
		return f.submit(ctx)
	}

	next, err := f.server.machine.Apply(f.state, event)
	if err != nil {
		return f.sendError(flowError(err))
	}

	wasFinished := f.state.Finished
	f.state = next

	if err := f.sendState(); err != nil {
		return err
	}
	if next.Finished && !wasFinished && next.Result != nil {
		f.startReveal(next.Result.Score)
	}
	return nil
}

func (f *flowSession) submit(ctx context.Context) error {
	if !f.state.Finished {
		return f.sendError(&apiError{Code: "not_finished", Message: "assessment is not finished"})
	}

	result, err := f.server.delivery.Submit(ctx, f.state.Submission())
	if err != nil {
		_, apiErr := classifyError(err)
		return f.sendError(apiErr)
	}
	return f.send(FlowMessage{Type: FlowMessageSubmitted, Result: result})
}

func (f *flowSession) sendState() error {
	question, err := f.server.machine.Current(f.state)
	if err != nil {
		return f.sendError(flowError(err))
	}
	state := f.state
	return f.send(FlowMessage{Type: FlowMessageState, State: &state, Question: question})
}

func (f *flowSession) startReveal(score int) {
	ctx, cancel := context.WithCancel(context.Background())
	f.cancelReveal = cancel

	f.revealWG.Add(1)
	go func() {
		defer f.revealWG.Done()
		err := flow.Reveal(ctx, score, f.server.revealDuration, func(v int) error {
			return f.send(FlowMessage{Type: FlowMessageReveal, Value: v})
		})
		if err != nil {
			return
		}
		if err := f.send(FlowMessage{Type: FlowMessageRevealed, Value: score}); err != nil {
			slog.Debug("failed to send reveal end", "error", err)
		}
	}()
}

func (f *flowSession) stopReveal() {
	f.cancelReveal()
	f.revealWG.Wait()
}

func (f *flowSession) send(msg FlowMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal flow message", "error", err)
		return err
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	return f.conn.WriteMessage(websocket.TextMessage, data)
}

func (f *flowSession) sendError(apiErr *apiError) error {
	return f.send(FlowMessage{Type: FlowMessageError, Error: apiErr})
}

func flowError(err error) *apiError {
	switch {
	case errors.Is(err, flow.ErrAnswerRequired):
		return &apiError{Code: "answer_required", Message: err.Error()}
	case errors.Is(err, flow.ErrInvalidAnswer):
		return &apiError{Code: "invalid_answer", Message: err.Error()}
	case errors.Is(err, flow.ErrFinished):
		return &apiError{Code: "finished", Message: err.Error()}
	case errors.Is(err, flow.ErrNotStarted):
		return &apiError{Code: "not_started", Message: err.Error()}
	case errors.Is(err, flow.ErrUnknownEvent):
		return &apiError{Code: "unknown_event", Message: err.Error()}
	}
	_, apiErr := classifyError(err)
	return apiErr
}
