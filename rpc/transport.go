// Package rpc is the participant-side transport: a request/response RPC
// over plain TCP, framed as newline-delimited JSON, with a bounded worker
// pool and a per-call deadline. Adapted from the teacher's
// network/participant/conn.go and network/coordinator/conn.go Commu type,
// simplified from the teacher's async gossip-and-callback model to a
// synchronous call/response — this spec has exactly one 2PC round per
// upload, never a multi-round consensus variant, so there is nothing to
// gain from the teacher's fire-and-forget style.
package rpc

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/goccy/go-json"

	"github.com/flexicommit/upload2pc/configs"
	"github.com/flexicommit/upload2pc/txn"
)

// Method names carried in the envelope.
const (
	MethodVoteRequest    = "VoteRequest"
	MethodGlobalDecision = "GlobalDecision"
)

// envelope is the single frame exchanged in both directions: a method tag
// plus a JSON payload, terminated by '\n'. Framing by newline instead of a
// length prefix matches the teacher's bufio.ReadString('\n') idiom.
type envelope struct {
	Method  string          `json:"method,omitempty"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error,omitempty"`
}

// Handler is implemented by both participant flavors (spec §4.4 — one
// interface, two flavors, the coordinator never switches on which).
type Handler interface {
	VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error)
	GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error)
}

// Server accepts connections on a single listener and dispatches each
// inbound envelope to Handler, bounded by configs.MaxConnectionHandler
// concurrent in-flight requests — the reference "10 workers" of spec §5,
// widened to the teacher's own constant.
type Server struct {
	handler  Handler
	listener net.Listener
	sem      chan struct{}
	done     chan struct{}
}

// Listen starts a Server on addr. The caller must call Serve to begin
// accepting connections.
func Listen(addr string, h Handler) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		handler:  h,
		listener: l,
		sem:      make(chan struct{}, configs.MaxConnectionHandler),
		done:     make(chan struct{}),
	}, nil
}

// Addr returns the address the server is bound to.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until Close is called.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return err
			}
		}
		s.sem <- struct{}{}
		go func() {
			defer func() { <-s.sem }()
			s.handleConn(conn)
		}()
	}
}

// Close stops the listener; in-flight requests are allowed to finish.
func (s *Server) Close() error {
	close(s.done)
	return s.listener.Close()
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()
	reader := bufio.NewReader(conn)
	line, err := reader.ReadString('\n')
	if err != nil {
		configs.Warn(false, "rpc: read request: "+err.Error())
		return
	}
	var req envelope
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		configs.Warn(false, "rpc: decode envelope: "+err.Error())
		return
	}
	resp := s.dispatch(req)
	out, err := json.Marshal(resp)
	if err != nil {
		configs.Warn(false, "rpc: encode response: "+err.Error())
		return
	}
	out = append(out, '\n')
	_ = conn.SetWriteDeadline(time.Now().Add(configs.PerCallDeadline))
	if _, err := conn.Write(out); err != nil {
		configs.Warn(false, "rpc: write response: "+err.Error())
	}
}

func (s *Server) dispatch(req envelope) envelope {
	switch req.Method {
	case MethodVoteRequest:
		var vr txn.VoteRequest
		if err := json.Unmarshal(req.Payload, &vr); err != nil {
			return envelope{Error: err.Error()}
		}
		resp, err := s.handler.VoteRequest(vr)
		return encodeResult(resp, err)
	case MethodGlobalDecision:
		var dm txn.DecisionMsg
		if err := json.Unmarshal(req.Payload, &dm); err != nil {
			return envelope{Error: err.Error()}
		}
		ack, err := s.handler.GlobalDecision(dm)
		return encodeResult(ack, err)
	default:
		return envelope{Error: "unknown method " + req.Method}
	}
}

func encodeResult(v interface{}, err error) envelope {
	if err != nil {
		return envelope{Error: err.Error()}
	}
	payload, merr := json.Marshal(v)
	if merr != nil {
		return envelope{Error: merr.Error()}
	}
	return envelope{Payload: payload}
}

// ErrTimeout is returned by Client calls whose response read exceeds the
// deadline. Dial and write failures, timeouts included, are returned as
// wrapped errors instead.
var ErrTimeout = errors.New("rpc: call timed out")

// Client dials a single participant address per call. The teacher keeps a
// persistent connection pool (network/coordinator/conn.go's connMap); this
// system's call volume (one VoteRequest and one DecisionMsg per upload, per
// participant) does not justify that complexity, so each call opens a
// fresh, deadline-bounded connection instead.
type Client struct {
	Address  string
	Deadline time.Duration
}

// NewClient builds a Client with the spec's reference per-call deadline.
func NewClient(address string) *Client {
	return &Client{Address: address, Deadline: configs.PerCallDeadline}
}

func (c *Client) call(method string, payload interface{}, out interface{}) error {
	deadline := c.Deadline
	if deadline <= 0 {
		deadline = configs.PerCallDeadline
	}
	conn, err := net.DialTimeout("tcp", c.Address, deadline)
	if err != nil {
		return fmt.Errorf("rpc: dial %s: %w", c.Address, err)
	}
	defer conn.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req := envelope{Method: method, Payload: body}
	line, err := json.Marshal(req)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	_ = conn.SetDeadline(time.Now().Add(deadline))
	if _, err := conn.Write(line); err != nil {
		return fmt.Errorf("rpc: write: %w", err)
	}

	reader := bufio.NewReader(conn)
	respLine, err := reader.ReadString('\n')
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return ErrTimeout
		}
		return fmt.Errorf("rpc: read: %w", err)
	}
	var resp envelope
	if err := json.Unmarshal([]byte(respLine), &resp); err != nil {
		return err
	}
	if resp.Error != "" {
		return errors.New(resp.Error)
	}
	return json.Unmarshal(resp.Payload, out)
}

// VoteRequest sends req to the participant and returns its vote.
func (c *Client) VoteRequest(req txn.VoteRequest) (txn.VoteResponse, error) {
	var resp txn.VoteResponse
	err := c.call(MethodVoteRequest, req, &resp)
	return resp, err
}

// GlobalDecision sends msg to the participant and returns its acknowledgment.
func (c *Client) GlobalDecision(msg txn.DecisionMsg) (txn.DecisionAck, error) {
	var ack txn.DecisionAck
	err := c.call(MethodGlobalDecision, msg, &ack)
	return ack, err
}
